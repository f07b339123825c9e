package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/launchpath/backend/internal/models"
)

const accountColumns = `id, email, name, password_hash, subscription_tier, credit_balance, lifetime_spent, free_unlocks_remaining, actions_this_period, period_anchor, created_at, updated_at`

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.SubscriptionTier, &a.CreditBalance, &a.LifetimeSpent, &a.FreeUnlocksRemaining, &a.ActionsThisPeriod, &a.PeriodAnchor, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) Create(ctx context.Context, a *models.Account) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, email, name, password_hash, subscription_tier, credit_balance, lifetime_spent, free_unlocks_remaining, actions_this_period, period_anchor)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, a.ID, a.Email, a.Name, a.PasswordHash, a.SubscriptionTier, a.CreditBalance, a.LifetimeSpent, a.FreeUnlocksRemaining, a.ActionsThisPeriod, a.PeriodAnchor).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1
	`, id))
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE email = $1
	`, email))
}

// GetByIDForUpdate locks the account row for update. Call within a transaction.
func (r *AccountRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error) {
	return scanAccount(tx.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE
	`, id))
}

// DeductCredits atomically deducts amount if balance >= amount, bumping
// lifetime_spent by the same delta. Returns the new balance.
func (r *AccountRepo) DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE accounts
		SET credit_balance = credit_balance - $1, lifetime_spent = lifetime_spent + $1, updated_at = now()
		WHERE id = $2 AND credit_balance >= $1
		RETURNING credit_balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}

// AddCredits adds amount to the account and returns the new balance.
// lifetime_spent is untouched.
func (r *AccountRepo) AddCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (newBalance int, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE accounts SET credit_balance = credit_balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING credit_balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}

// ConsumeFreeUnlock decrements the free-unlock allowance by one. Returns false
// when no allowance remains.
func (r *AccountRepo) ConsumeFreeUnlock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	result, err := tx.Exec(ctx, `
		UPDATE accounts SET free_unlocks_remaining = free_unlocks_remaining - 1, updated_at = now()
		WHERE id = $1 AND free_unlocks_remaining > 0
	`, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// ResetQuota zeroes the action counter and moves the period anchor, keyed on
// the old anchor so two concurrent resets apply once.
func (r *AccountRepo) ResetQuota(ctx context.Context, id uuid.UUID, oldAnchor, now time.Time) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET actions_this_period = 0, period_anchor = $3, updated_at = now()
		WHERE id = $1 AND period_anchor = $2
	`, id, oldAnchor, now)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// IncrementActions bumps the action counter by one, keyed on the expected
// current count (compare-and-swap). Returns false on a lost race.
func (r *AccountRepo) IncrementActions(ctx context.Context, id uuid.UUID, expectedUsed int) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE accounts SET actions_this_period = actions_this_period + 1, updated_at = now()
		WHERE id = $1 AND actions_this_period = $2
	`, id, expectedUsed)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// SetTier changes the subscription tier and grants the tier's free-unlock
// allowance.
func (r *AccountRepo) SetTier(ctx context.Context, id uuid.UUID, tier string, freeUnlocks int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE accounts SET subscription_tier = $2, free_unlocks_remaining = $3, updated_at = now()
		WHERE id = $1
	`, id, tier, freeUnlocks)
	return err
}
