package domain

import "time"

// Session is a server-side record granting continued access to the bearer
// of the matching opaque identifier. The identifier is never decoded on the
// client; validation is a store lookup only.
type Session struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	OrgID     string    `json:"org_id" db:"org_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	UAHash    string    `json:"-" db:"ua_hash"`
	IPHash    string    `json:"-" db:"ip_hash"`
}

// IsExpired reports whether the session TTL has elapsed
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// RequestMeta carries the client metadata the HTTP layer supplies with
// every request. Raw values are hashed before they reach the store.
type RequestMeta struct {
	IP        string
	UserAgent string
}
