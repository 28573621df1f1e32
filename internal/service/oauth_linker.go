package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/careerforge/identity-service/internal/domain"
	"github.com/careerforge/identity-service/internal/repository"
	"github.com/careerforge/identity-service/internal/utils"
	"go.uber.org/zap"
)

const stateTokenBytes = 32

// accountLinker implements AccountLinker interface
type accountLinker struct {
	accountRepo repository.ExternalAccountRepository
	stateRepo   repository.OAuthStateRepository
	provider    TokenProvider
	stateTTL    time.Duration
	logger      *zap.Logger
}

// NewAccountLinker creates a new account linker
func NewAccountLinker(
	accountRepo repository.ExternalAccountRepository,
	stateRepo repository.OAuthStateRepository,
	provider TokenProvider,
	stateTTL time.Duration,
	logger *zap.Logger,
) AccountLinker {
	return &accountLinker{
		accountRepo: accountRepo,
		stateRepo:   stateRepo,
		provider:    provider,
		stateTTL:    stateTTL,
		logger:      logger,
	}
}

// InitiateConnect issues a single-use state nonce bound to the acting
// session and returns the provider authorization URL to redirect to.
func (l *accountLinker) InitiateConnect(ctx context.Context, auth *AuthContext, meta domain.RequestMeta) (*ConnectPrompt, error) {
	_, err := l.accountRepo.Get(ctx, auth.User.ID, auth.Organization.ID)
	if err == nil {
		return nil, ErrAlreadyConnected
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check external account: %w", err)
	}

	stateToken, err := utils.NewOpaqueToken(stateTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	now := time.Now()
	state := &domain.OAuthState{
		State:     stateToken,
		UserID:    auth.User.ID,
		OrgID:     auth.Organization.ID,
		SessionID: auth.Session.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(l.stateTTL),
		UAHash:    utils.Fingerprint(meta.UserAgent),
		IPHash:    utils.Fingerprint(meta.IP),
	}

	if err := l.stateRepo.Create(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save oauth state: %w", err)
	}

	l.logger.Info("oauth connect initiated",
		zap.String("user_id", auth.User.ID),
		zap.String("org_id", auth.Organization.ID),
	)

	return &ConnectPrompt{
		AuthorizationURL: l.provider.AuthorizationURL(stateToken),
		State:            stateToken,
	}, nil
}

// HandleCallback consumes the state nonce exactly once, exchanges the
// authorization code, and persists the external account, replacing any
// stale row for the same (user, org) pair. A replayed or expired state
// fails closed before any provider call happens.
func (l *accountLinker) HandleCallback(ctx context.Context, code, stateToken string) error {
	state, err := l.stateRepo.Consume(ctx, stateToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredState
		}
		return fmt.Errorf("failed to consume oauth state: %w", err)
	}

	if state.IsExpired() {
		return ErrInvalidOrExpiredState
	}

	pair, err := l.provider.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}

	account := &domain.ExternalAccount{
		UserID:       state.UserID,
		OrgID:        state.OrgID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
		Scopes:       pair.Scopes,
		ConnectedAt:  time.Now(),
		UAHash:       state.UAHash,
		IPHash:       state.IPHash,
	}

	if err := l.accountRepo.Save(ctx, account); err != nil {
		return fmt.Errorf("failed to save external account: %w", err)
	}

	l.logger.Info("external account connected",
		zap.String("user_id", state.UserID),
		zap.String("org_id", state.OrgID),
	)

	return nil
}

// Status reports the connection state without mutating anything.
// "Expired" is derived from expires_at at read time, not stored.
func (l *accountLinker) Status(ctx context.Context, userID, orgID string) (*ConnectionStatus, error) {
	account, err := l.accountRepo.Get(ctx, userID, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &ConnectionStatus{IsConnected: false}, nil
		}
		return nil, fmt.Errorf("failed to get external account: %w", err)
	}

	expiresIn := int64(time.Until(account.ExpiresAt).Seconds())
	if expiresIn < 0 {
		expiresIn = 0
	}

	return &ConnectionStatus{
		IsConnected:      true,
		ExpiresInSeconds: expiresIn,
		ConnectedAt:      account.ConnectedAt.Format(time.RFC3339),
	}, nil
}

// Disconnect removes the external account for a (user, org) pair
func (l *accountLinker) Disconnect(ctx context.Context, userID, orgID string) error {
	_, err := l.accountRepo.Get(ctx, userID, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotConnected
		}
		return fmt.Errorf("failed to get external account: %w", err)
	}

	if err := l.accountRepo.Delete(ctx, userID, orgID); err != nil {
		return fmt.Errorf("failed to delete external account: %w", err)
	}

	l.logger.Info("external account disconnected",
		zap.String("user_id", userID),
		zap.String("org_id", orgID),
	)

	return nil
}
