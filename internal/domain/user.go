package domain

import "time"

// User represents a registered account in the system
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Organization represents a tenant that users act within
type Organization struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Membership role values
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Membership status values
const (
	MembershipActive   = "active"
	MembershipDisabled = "disabled"
)

// Membership links a user to an organization with a role.
// At most one row exists per (user, org) pair.
type Membership struct {
	UserID string `json:"user_id" db:"user_id"`
	OrgID  string `json:"org_id" db:"org_id"`
	Role   string `json:"role" db:"role"`
	Status string `json:"status" db:"status"`
}

// IsActive reports whether the membership currently grants access
func (m *Membership) IsActive() bool {
	return m.Status == MembershipActive
}
