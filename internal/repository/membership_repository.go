package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/careerforge/identity-service/internal/domain"
	"github.com/careerforge/identity-service/pkg/database"
)

// membershipRepository implements MembershipRepository interface
type membershipRepository struct {
	db *database.Postgres
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *database.Postgres) MembershipRepository {
	return &membershipRepository{db: db}
}

// Upsert creates a membership or replaces the role and status of an
// existing (user, org) row in a single statement.
func (r *membershipRepository) Upsert(ctx context.Context, membership *domain.Membership) error {
	query := `
		INSERT INTO memberships (user_id, org_id, role, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, org_id)
		DO UPDATE SET role = EXCLUDED.role, status = EXCLUDED.status
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		membership.UserID,
		membership.OrgID,
		membership.Role,
		membership.Status,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert membership: %w", err)
	}

	return nil
}

// Get retrieves a membership by its composite key
func (r *membershipRepository) Get(ctx context.Context, userID, orgID string) (*domain.Membership, error) {
	query := `
		SELECT user_id, org_id, role, status
		FROM memberships
		WHERE user_id = $1 AND org_id = $2
	`

	membership := &domain.Membership{}

	err := r.db.DB.QueryRowContext(ctx, query, userID, orgID).Scan(
		&membership.UserID,
		&membership.OrgID,
		&membership.Role,
		&membership.Status,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("membership for user %s in org %s not found: %w", userID, orgID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return membership, nil
}

// ListByUser retrieves all memberships for a user, oldest organization first
func (r *membershipRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	query := `
		SELECT m.user_id, m.org_id, m.role, m.status
		FROM memberships m
		JOIN organizations o ON o.id = m.org_id
		WHERE m.user_id = $1
		ORDER BY o.created_at ASC
	`

	rows, err := r.db.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships by user id: %w", err)
	}
	defer rows.Close()

	var memberships []*domain.Membership
	for rows.Next() {
		membership := &domain.Membership{}

		err := rows.Scan(
			&membership.UserID,
			&membership.OrgID,
			&membership.Role,
			&membership.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}

		memberships = append(memberships, membership)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memberships: %w", err)
	}

	return memberships, nil
}
