package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/careerforge/identity-service/internal/domain"
	"github.com/careerforge/identity-service/pkg/database"
	"github.com/google/uuid"
)

// organizationRepository implements OrganizationRepository interface
type organizationRepository struct {
	db *database.Postgres
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *database.Postgres) OrganizationRepository {
	return &organizationRepository{db: db}
}

// Create creates a new organization in the database
func (r *organizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	query := `
		INSERT INTO organizations (id, name, created_at)
		VALUES ($1, $2, $3)
	`

	if org.ID == "" {
		org.ID = uuid.New().String()
	}

	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		org.ID,
		org.Name,
		org.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return nil
}

// GetByID retrieves an organization by ID
func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	query := `
		SELECT id, name, created_at
		FROM organizations
		WHERE id = $1
	`

	org := &domain.Organization{}

	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("organization with id %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get organization by id: %w", err)
	}

	return org, nil
}
