package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/launchpath/backend/internal/models"
)

type UnlockRepo struct {
	pool *pgxpool.Pool
}

func NewUnlockRepo(pool *pgxpool.Pool) *UnlockRepo {
	return &UnlockRepo{pool: pool}
}

// Get returns the unlock record for the pair, or nil when none exists.
func (r *UnlockRepo) Get(ctx context.Context, accountID, opportunityID uuid.UUID) (*models.UnlockRecord, error) {
	var u models.UnlockRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, account_id, opportunity_id, method, credits_paid, created_at
		FROM unlock_records WHERE account_id = $1 AND opportunity_id = $2
	`, accountID, opportunityID).Scan(&u.ID, &u.AccountID, &u.OpportunityID, &u.Method, &u.CreditsPaid, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// CreateTx inserts the record inside the given transaction. The unique
// (account_id, opportunity_id) constraint absorbs duplicate inserts; false
// means another record already exists.
func (r *UnlockRepo) CreateTx(ctx context.Context, tx pgx.Tx, u *models.UnlockRecord) (bool, error) {
	result, err := tx.Exec(ctx, `
		INSERT INTO unlock_records (id, account_id, opportunity_id, method, credits_paid)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id, opportunity_id) DO NOTHING
	`, u.ID, u.AccountID, u.OpportunityID, u.Method, u.CreditsPaid)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// ListOpportunityIDs returns the set of opportunities the account has unlocked.
func (r *UnlockRepo) ListOpportunityIDs(ctx context.Context, accountID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT opportunity_id FROM unlock_records WHERE account_id = $1
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
