package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/careerforge/identity-service/internal/domain"
	"github.com/careerforge/identity-service/pkg/database"
	"github.com/lib/pq"
)

// oauthStateRepository implements OAuthStateRepository interface
type oauthStateRepository struct {
	db *database.Postgres
}

// NewOAuthStateRepository creates a new oauth state repository
func NewOAuthStateRepository(db *database.Postgres) OAuthStateRepository {
	return &oauthStateRepository{db: db}
}

// Create creates a new oauth state in the database
func (r *oauthStateRepository) Create(ctx context.Context, state *domain.OAuthState) error {
	query := `
		INSERT INTO oauth_states (state, user_id, org_id, session_id, created_at, expires_at, ua_hash, ip_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if state.CreatedAt.IsZero() {
		state.CreatedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		state.State,
		state.UserID,
		state.OrgID,
		state.SessionID,
		state.CreatedAt,
		state.ExpiresAt,
		state.UAHash,
		state.IPHash,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" { // unique_violation
				return fmt.Errorf("oauth state collision: %w", ErrDuplicateState)
			}
		}
		return fmt.Errorf("failed to create oauth state: %w", err)
	}

	return nil
}

// Consume atomically reads and deletes an oauth state. The single
// DELETE ... RETURNING statement guarantees that of two concurrent
// consumers of the same state token, exactly one sees the row; the other
// gets ErrNotFound.
func (r *oauthStateRepository) Consume(ctx context.Context, stateToken string) (*domain.OAuthState, error) {
	query := `
		DELETE FROM oauth_states
		WHERE state = $1
		RETURNING state, user_id, org_id, session_id, created_at, expires_at, ua_hash, ip_hash
	`

	state := &domain.OAuthState{}

	err := r.db.DB.QueryRowContext(ctx, query, stateToken).Scan(
		&state.State,
		&state.UserID,
		&state.OrgID,
		&state.SessionID,
		&state.CreatedAt,
		&state.ExpiresAt,
		&state.UAHash,
		&state.IPHash,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("oauth state not found or already consumed: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to consume oauth state: %w", err)
	}

	return state, nil
}

// DeleteExpired deletes all oauth states past their TTL and returns how
// many rows were removed. Nothing to do is success, not an error.
func (r *oauthStateRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM oauth_states WHERE expires_at < $1`

	result, err := r.db.DB.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired oauth states: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return removed, nil
}
