package domain

import "time"

// ExternalAccount is a linked identity at the external OAuth2 provider,
// with its own access/refresh token pair. At most one row exists per
// (user, org) pair.
type ExternalAccount struct {
	UserID       string    `json:"user_id" db:"user_id"`
	OrgID        string    `json:"org_id" db:"org_id"`
	AccessToken  string    `json:"-" db:"access_token"`
	RefreshToken string    `json:"-" db:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at" db:"expires_at"`
	Scopes       string    `json:"scopes" db:"scopes"`
	ConnectedAt  time.Time `json:"connected_at" db:"connected_at"`
	UAHash       string    `json:"-" db:"ua_hash"`
	IPHash       string    `json:"-" db:"ip_hash"`
}

// LiveFor reports whether the access token remains valid for at least the
// given skew from now. Refresh-ahead policy: callers refresh before hard
// expiry so in-flight requests never carry a token that dies mid-call.
func (a *ExternalAccount) LiveFor(skew time.Duration) bool {
	return time.Until(a.ExpiresAt) > skew
}

// SamePair reports whether the stored token pair matches the given one
func (a *ExternalAccount) SamePair(accessToken, refreshToken string) bool {
	return a.AccessToken == accessToken && a.RefreshToken == refreshToken
}

// TokenPair is what the provider's token endpoint returns for both the
// authorization_code and refresh_token grants.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scopes       string
}

// OAuthState is a single-use CSRF nonce bound to one authorization
// attempt. Valid for exactly one successful consumption within its TTL.
type OAuthState struct {
	State     string    `json:"state" db:"state"`
	UserID    string    `json:"user_id" db:"user_id"`
	OrgID     string    `json:"org_id" db:"org_id"`
	SessionID string    `json:"session_id" db:"session_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	UAHash    string    `json:"-" db:"ua_hash"`
	IPHash    string    `json:"-" db:"ip_hash"`
}

// IsExpired reports whether the state TTL has elapsed
func (s *OAuthState) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
