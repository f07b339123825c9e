package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/launchpath/backend/internal/models"
)

// CreditRepo appends and reads the append-only credit transaction log.
// Rows are never updated or deleted.
type CreditRepo struct {
	pool *pgxpool.Pool
}

func NewCreditRepo(pool *pgxpool.Pool) *CreditRepo {
	return &CreditRepo{pool: pool}
}

// CreateTx inserts a transaction row inside the given database transaction so
// it commits or rolls back together with the balance mutation.
func (r *CreditRepo) CreateTx(ctx context.Context, tx pgx.Tx, c *models.CreditTransaction) error {
	return tx.QueryRow(ctx, `
		INSERT INTO credit_transactions (id, account_id, amount, reason, balance_after)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, c.ID, c.AccountID, c.Amount, c.Reason, c.BalanceAfter).Scan(&c.CreatedAt)
}

func (r *CreditRepo) ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.CreditTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, amount, reason, balance_after, created_at
		FROM credit_transactions WHERE account_id = $1 ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.CreditTransaction
	for rows.Next() {
		var c models.CreditTransaction
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Amount, &c.Reason, &c.BalanceAfter, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
