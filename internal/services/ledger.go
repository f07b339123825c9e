package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/launchpath/backend/internal/models"
)

// LedgerAccountRepo is the minimal account repository interface for the ledger.
type LedgerAccountRepo interface {
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error)
	// DeductCredits subtracts amount and bumps lifetime_spent, conditional on
	// sufficient balance. Returns the new balance.
	DeductCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (int, error)
	AddCredits(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount int) (int, error)
}

// LedgerTransactionRepo appends ledger entries.
type LedgerTransactionRepo interface {
	CreateTx(ctx context.Context, tx pgx.Tx, t *models.CreditTransaction) error
}

// Ledger applies atomic debits and credits against account balances and
// appends the matching transaction row in the same database transaction. If
// the row cannot be written, the caller's rollback undoes the balance change:
// no orphaned mutations.
type Ledger struct {
	Accounts     LedgerAccountRepo
	Transactions LedgerTransactionRepo
}

func NewLedger(accounts LedgerAccountRepo, transactions LedgerTransactionRepo) *Ledger {
	return &Ledger{Accounts: accounts, Transactions: transactions}
}

// Debit locks the account row, checks the balance, subtracts amount and
// records the entry. Returns InsufficientCreditsError when amount exceeds the
// balance; the account is left untouched. Call within a transaction.
func (l *Ledger) Debit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int, reason string) (*models.CreditTransaction, error) {
	acc, err := l.Accounts.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	if acc.CreditBalance < amount {
		return nil, &InsufficientCreditsError{Required: amount, Balance: acc.CreditBalance}
	}
	newBalance, err := l.Accounts.DeductCredits(ctx, tx, accountID, amount)
	if err != nil {
		return nil, err
	}
	entry := &models.CreditTransaction{
		ID:           uuid.New(),
		AccountID:    accountID,
		Amount:       -amount,
		Reason:       reason,
		BalanceAfter: newBalance,
	}
	if err := l.Transactions.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Credit adds amount to the account. No balance ceiling; lifetime_spent is
// never adjusted by credits or refunds. Call within a transaction.
func (l *Ledger) Credit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int, reason string) (*models.CreditTransaction, error) {
	if _, err := l.Accounts.GetByIDForUpdate(ctx, tx, accountID); err != nil {
		return nil, err
	}
	newBalance, err := l.Accounts.AddCredits(ctx, tx, accountID, amount)
	if err != nil {
		return nil, err
	}
	entry := &models.CreditTransaction{
		ID:           uuid.New(),
		AccountID:    accountID,
		Amount:       amount,
		Reason:       reason,
		BalanceAfter: newBalance,
	}
	if err := l.Transactions.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
