package service

import (
	"context"

	"github.com/careerforge/identity-service/internal/domain"
)

// AuthContext is the resolved identity attached to a validated request
type AuthContext struct {
	User         *domain.User
	Organization *domain.Organization
	Role         string
	Session      *domain.Session
}

// SignupResult holds the identities created by a signup
type SignupResult struct {
	User         *domain.User
	Organization *domain.Organization
	Membership   *domain.Membership
}

// ConnectPrompt is what initiate-connect hands back to the HTTP layer
type ConnectPrompt struct {
	AuthorizationURL string
	State            string
}

// ConnectionStatus is the read-only view of an external connection
type ConnectionStatus struct {
	IsConnected      bool
	ExpiresInSeconds int64
	ConnectedAt      string
}

// SessionService defines credential and session operations
type SessionService interface {
	Signup(ctx context.Context, email, password, orgName string) (*SignupResult, error)
	Login(ctx context.Context, email, password string, meta domain.RequestMeta) (*AuthContext, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentUser(ctx context.Context, sessionID string) (*AuthContext, error)
	CreateOrganization(ctx context.Context, userID, name string) (*domain.Organization, error)
}

// AccountLinker defines the external account connect/callback/status/
// disconnect operations
type AccountLinker interface {
	InitiateConnect(ctx context.Context, auth *AuthContext, meta domain.RequestMeta) (*ConnectPrompt, error)
	HandleCallback(ctx context.Context, code, state string) error
	Status(ctx context.Context, userID, orgID string) (*ConnectionStatus, error)
	Disconnect(ctx context.Context, userID, orgID string) error
}

// TokenProvider is the outbound OAuth2 surface this core depends on:
// the authorize endpoint (URL construction only) and the token endpoint
// for the authorization_code and refresh_token grants.
type TokenProvider interface {
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
}

// TokenSource serves live external access tokens to feature code
type TokenSource interface {
	LiveToken(ctx context.Context, userID, orgID string) (*domain.ExternalAccount, error)
}
