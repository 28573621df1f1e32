package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/careerforge/identity-service/internal/domain"
	"github.com/careerforge/identity-service/pkg/database"
	"github.com/lib/pq"
)

// sessionRepository implements SessionRepository interface
type sessionRepository struct {
	db *database.Postgres
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.Postgres) SessionRepository {
	return &sessionRepository{db: db}
}

// Create creates a new session in the database
func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, org_id, expires_at, ua_hash, ip_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.OrgID,
		session.ExpiresAt,
		session.UAHash,
		session.IPHash,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("session id collision: %w", ErrDuplicateSession)
			}
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// Get retrieves a session by its opaque identifier
func (r *sessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	query := `
		SELECT id, user_id, org_id, expires_at, ua_hash, ip_hash
		FROM sessions
		WHERE id = $1
	`

	session := &domain.Session{}

	err := r.db.DB.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.OrgID,
		&session.ExpiresAt,
		&session.UAHash,
		&session.IPHash,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// Delete deletes a session. Deleting an absent session is not an error:
// logout is idempotent and two lazy-expiry reads may race on the delete.
func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = $1`

	_, err := r.db.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}
