package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/careerforge/identity-service/internal/domain"
	"github.com/careerforge/identity-service/pkg/database"
)

// externalAccountRepository implements ExternalAccountRepository interface
type externalAccountRepository struct {
	db *database.Postgres
}

// NewExternalAccountRepository creates a new external account repository
func NewExternalAccountRepository(db *database.Postgres) ExternalAccountRepository {
	return &externalAccountRepository{db: db}
}

// Save creates or replaces the external account for a (user, org) pair in
// a single statement. Used both by the OAuth callback (replacing a stale
// row) and by the refresh coordinator (persisting a renewed pair).
func (r *externalAccountRepository) Save(ctx context.Context, account *domain.ExternalAccount) error {
	query := `
		INSERT INTO external_accounts (user_id, org_id, access_token, refresh_token, expires_at, scopes, connected_at, ua_hash, ip_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, org_id)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			scopes = EXCLUDED.scopes,
			connected_at = EXCLUDED.connected_at,
			ua_hash = EXCLUDED.ua_hash,
			ip_hash = EXCLUDED.ip_hash
	`

	if account.ConnectedAt.IsZero() {
		account.ConnectedAt = time.Now()
	}

	_, err := r.db.DB.ExecContext(ctx, query,
		account.UserID,
		account.OrgID,
		account.AccessToken,
		account.RefreshToken,
		account.ExpiresAt,
		account.Scopes,
		account.ConnectedAt,
		account.UAHash,
		account.IPHash,
	)

	if err != nil {
		return fmt.Errorf("failed to save external account: %w", err)
	}

	return nil
}

// Get retrieves the external account for a (user, org) pair
func (r *externalAccountRepository) Get(ctx context.Context, userID, orgID string) (*domain.ExternalAccount, error) {
	query := `
		SELECT user_id, org_id, access_token, refresh_token, expires_at, scopes, connected_at, ua_hash, ip_hash
		FROM external_accounts
		WHERE user_id = $1 AND org_id = $2
	`

	account := &domain.ExternalAccount{}

	err := r.db.DB.QueryRowContext(ctx, query, userID, orgID).Scan(
		&account.UserID,
		&account.OrgID,
		&account.AccessToken,
		&account.RefreshToken,
		&account.ExpiresAt,
		&account.Scopes,
		&account.ConnectedAt,
		&account.UAHash,
		&account.IPHash,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("external account for user %s in org %s not found: %w", userID, orgID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get external account: %w", err)
	}

	return account, nil
}

// Delete deletes the external account for a (user, org) pair. Deleting an
// absent row is not an error.
func (r *externalAccountRepository) Delete(ctx context.Context, userID, orgID string) error {
	query := `DELETE FROM external_accounts WHERE user_id = $1 AND org_id = $2`

	_, err := r.db.DB.ExecContext(ctx, query, userID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete external account: %w", err)
	}

	return nil
}
