package dto

// SignupRequest represents an account registration request
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	OrgName  string `json:"org_name"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateOrgRequest represents an organization creation request
type CreateOrgRequest struct {
	Name string `json:"name" binding:"required"`
}

// UserInfo represents user information in responses
type UserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// OrgInfo represents organization information in responses
type OrgInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SignupResponse is returned after successful registration
type SignupResponse struct {
	User         UserInfo `json:"user"`
	Organization OrgInfo  `json:"organization"`
	Role         string   `json:"role"`
}

// MeResponse describes the acting identity of an authenticated request
type MeResponse struct {
	User         UserInfo `json:"user"`
	Organization OrgInfo  `json:"organization"`
	Role         string   `json:"role"`
}

// ConnectResponse carries the provider redirect for an initiated connect
type ConnectResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// ConnectionStatusResponse is the read-only view of an external connection
type ConnectionStatusResponse struct {
	IsConnected      bool   `json:"is_connected"`
	ExpiresInSeconds int64  `json:"expires_in_seconds,omitempty"`
	ConnectedAt      string `json:"connected_at,omitempty"`
}

// AccessTokenResponse exposes a live external access token to callers
// that talk to the provider directly
type AccessTokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresInSeconds int64  `json:"expires_in_seconds"`
	Scopes           string `json:"scopes"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response. Error holds the stable
// machine-readable code; Message is for humans only.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
