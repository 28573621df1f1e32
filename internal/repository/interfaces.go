package repository

import (
	"context"

	"github.com/careerforge/identity-service/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// OrganizationRepository defines methods for organization operations
type OrganizationRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
}

// MembershipRepository defines methods for membership operations
type MembershipRepository interface {
	Upsert(ctx context.Context, membership *domain.Membership) error
	Get(ctx context.Context, userID, orgID string) (*domain.Membership, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Membership, error)
}

// SessionRepository defines methods for session operations
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
}

// ExternalAccountRepository defines methods for external account operations
type ExternalAccountRepository interface {
	Save(ctx context.Context, account *domain.ExternalAccount) error
	Get(ctx context.Context, userID, orgID string) (*domain.ExternalAccount, error)
	Delete(ctx context.Context, userID, orgID string) error
}

// OAuthStateRepository defines methods for oauth state operations
type OAuthStateRepository interface {
	Create(ctx context.Context, state *domain.OAuthState) error
	Consume(ctx context.Context, state string) (*domain.OAuthState, error)
	DeleteExpired(ctx context.Context) (int64, error)
}
