package repository

import (
	"github.com/careerforge/identity-service/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User            UserRepository
	Organization    OrganizationRepository
	Membership      MembershipRepository
	Session         SessionRepository
	ExternalAccount ExternalAccountRepository
	OAuthState      OAuthStateRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:            NewUserRepository(db),
		Organization:    NewOrganizationRepository(db),
		Membership:      NewMembershipRepository(db),
		Session:         NewSessionRepository(db),
		ExternalAccount: NewExternalAccountRepository(db),
		OAuthState:      NewOAuthStateRepository(db),
	}
}
