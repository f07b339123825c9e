package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/launchpath/backend/internal/models"
)

// ErrDuplicateApplication is returned when the account has already applied to
// the opportunity.
var ErrDuplicateApplication = errors.New("already applied")

type ApplicationRepo struct {
	pool *pgxpool.Pool
}

func NewApplicationRepo(pool *pgxpool.Pool) *ApplicationRepo {
	return &ApplicationRepo{pool: pool}
}

func (r *ApplicationRepo) Create(ctx context.Context, a *models.Application) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO applications (id, account_id, opportunity_id)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, a.ID, a.AccountID, a.OpportunityID).Scan(&a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateApplication
		}
		return err
	}
	return nil
}

// Exists reports whether the account has already applied to the opportunity.
func (r *ApplicationRepo) Exists(ctx context.Context, accountID, opportunityID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM applications WHERE account_id = $1 AND opportunity_id = $2
		)
	`, accountID, opportunityID).Scan(&exists)
	return exists, err
}

// ListOpportunityIDs returns the set of opportunities the account has applied
// to; the feed excludes them.
func (r *ApplicationRepo) ListOpportunityIDs(ctx context.Context, accountID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT opportunity_id FROM applications WHERE account_id = $1
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}
