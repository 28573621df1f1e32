package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/careerforge/identity-service/internal/config"
	"github.com/careerforge/identity-service/internal/domain"
	"go.uber.org/zap"
)

const maxTokenResponseBytes = 1 << 20

// errGrantRejected marks a definitive 4xx from the token endpoint, as
// opposed to a transport failure or 5xx the caller may retry.
var errGrantRejected = errors.New("provider rejected grant")

// ProviderClient talks to the external OAuth2 provider's authorize and
// token endpoints using the standard Authorization Code grant.
type ProviderClient struct {
	cfg    config.OAuthConfig
	client *http.Client
	logger *zap.Logger
}

// NewProviderClient creates a new provider client
func NewProviderClient(cfg config.OAuthConfig, logger *zap.Logger) *ProviderClient {
	return &ProviderClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout.Duration},
		logger: logger,
	}
}

// AuthorizationURL builds the provider's authorize endpoint URL for one
// authorization attempt bound to the given state nonce.
func (p *ProviderClient) AuthorizationURL(state string) string {
	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", p.cfg.ClientID)
	query.Set("redirect_uri", p.cfg.RedirectURL)
	query.Set("scope", p.cfg.ScopeString())
	query.Set("state", state)

	return p.cfg.AuthorizeURL + "?" + query.Encode()
}

// Exchange trades an authorization code for a token pair
func (p *ProviderClient) Exchange(ctx context.Context, code string) (*domain.TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", p.cfg.RedirectURL)
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)

	pair, err := p.token(ctx, form)
	if err != nil {
		if errors.Is(err, errGrantRejected) {
			return nil, fmt.Errorf("%v: %w", err, ErrCodeExchangeFailed)
		}
		return nil, err
	}

	return pair, nil
}

// Refresh renews a token pair with the refresh_token grant. A definitive
// rejection (revoked or expired refresh token) is terminal: the caller
// must force full re-authorization rather than retry.
func (p *ProviderClient) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", p.cfg.ClientID)
	form.Set("client_secret", p.cfg.ClientSecret)

	pair, err := p.token(ctx, form)
	if err != nil {
		if errors.Is(err, errGrantRejected) {
			return nil, fmt.Errorf("%v: %w", err, ErrRefreshFailed)
		}
		return nil, err
	}

	return pair, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}

func (p *ProviderClient) token(ctx context.Context, form url.Values) (*domain.TokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token endpoint unreachable (%v): %w", err, ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", ErrProviderUnavailable)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// parsed below
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		p.logger.Warn("provider rejected token grant",
			zap.Int("status", resp.StatusCode),
			zap.String("grant_type", form.Get("grant_type")),
		)
		return nil, fmt.Errorf("%w (status %d): %s", errGrantRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	default:
		return nil, fmt.Errorf("token endpoint returned status %d: %w", resp.StatusCode, ErrProviderUnavailable)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token response is missing access_token")
	}

	return &domain.TokenPair{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
		Scopes:       tr.Scope,
	}, nil
}
