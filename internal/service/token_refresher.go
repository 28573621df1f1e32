package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/careerforge/identity-service/internal/domain"
	"github.com/careerforge/identity-service/internal/repository"
	"go.uber.org/zap"
)

// identityLock serializes refresh decisions for one (user, org) identity.
// lastAccess/lastRefresh are the coordinator's last-known token pair for
// that identity; both fields are guarded by mu.
type identityLock struct {
	mu          sync.Mutex
	lastAccess  string
	lastRefresh string
}

// TokenRefresher serves live external access tokens while guaranteeing at
// most one in-flight network refresh per identity. Identities refresh
// independently in parallel; callers for the same identity are serialized
// by a per-key mutex and the loser of a race observes the winner's result
// instead of issuing a redundant refresh.
type TokenRefresher struct {
	accounts repository.ExternalAccountRepository
	provider TokenProvider
	skew     time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*identityLock
}

// NewTokenRefresher creates a new token refresher
func NewTokenRefresher(
	accounts repository.ExternalAccountRepository,
	provider TokenProvider,
	skew time.Duration,
	logger *zap.Logger,
) *TokenRefresher {
	return &TokenRefresher{
		accounts: accounts,
		provider: provider,
		skew:     skew,
		logger:   logger,
	}
}

var _ TokenSource = (*TokenRefresher)(nil)

func (r *TokenRefresher) lock(key string) *identityLock {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locks == nil {
		r.locks = make(map[string]*identityLock)
	}
	l, ok := r.locks[key]
	if !ok {
		l = &identityLock{}
		r.locks[key] = l
	}
	return l
}

// LiveToken returns the external account with an access token valid for
// at least the configured skew, refreshing it through the provider when
// needed. The persisted row is re-read under the lock on every call, so a
// refresh performed elsewhere (another request, another process) is
// adopted instead of repeated.
func (r *TokenRefresher) LiveToken(ctx context.Context, userID, orgID string) (*domain.ExternalAccount, error) {
	l := r.lock(userID + "/" + orgID)
	l.mu.Lock()
	defer l.mu.Unlock()

	account, err := r.accounts.Get(ctx, userID, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotConnected
		}
		return nil, fmt.Errorf("failed to get external account: %w", err)
	}

	if !account.SamePair(l.lastAccess, l.lastRefresh) && l.lastAccess != "" {
		r.logger.Debug("adopting token pair refreshed elsewhere",
			zap.String("user_id", userID),
			zap.String("org_id", orgID),
		)
	}
	l.lastAccess, l.lastRefresh = account.AccessToken, account.RefreshToken

	if account.LiveFor(r.skew) {
		return account, nil
	}

	pair, err := r.provider.Refresh(ctx, account.RefreshToken)
	if err != nil {
		// Terminal RefreshFailed propagates as-is; transport errors stay
		// retryable and the next caller re-enters from a clean read.
		return nil, err
	}

	// Providers may omit refresh_token and scope on renewal
	if pair.RefreshToken == "" {
		pair.RefreshToken = account.RefreshToken
	}
	if pair.Scopes == "" {
		pair.Scopes = account.Scopes
	}

	if !account.SamePair(pair.AccessToken, pair.RefreshToken) {
		account.AccessToken = pair.AccessToken
		account.RefreshToken = pair.RefreshToken
		account.Scopes = pair.Scopes
		account.ExpiresAt = pair.ExpiresAt
		if err := r.accounts.Save(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed tokens: %w", err)
		}
	}

	l.lastAccess, l.lastRefresh = account.AccessToken, account.RefreshToken

	r.logger.Info("external token refreshed",
		zap.String("user_id", userID),
		zap.String("org_id", orgID),
		zap.Time("expires_at", account.ExpiresAt),
	)

	return account, nil
}
