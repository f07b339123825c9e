package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/launchpath/backend/internal/models"
)

// AccessState is the explicit early-access state for a (user, opportunity)
// pair, computed at read time; no background sweep persists expiry.
type AccessState int

const (
	// AccessNotRestricted: no active restriction, visible to everyone.
	AccessNotRestricted AccessState = iota
	// AccessLocked: restriction active and the user has not unlocked.
	AccessLocked
	// AccessUnlocked: restriction active but the user has an unlock record.
	AccessUnlocked
)

// StateFor derives the access state from the raw flag-and-timestamp pair.
// Every call site derives lock state through this one function.
func StateFor(isRestricted bool, restrictedUntil *time.Time, hasUnlock bool, now time.Time) AccessState {
	if !isRestricted || restrictedUntil == nil || !now.Before(*restrictedUntil) {
		return AccessNotRestricted
	}
	if hasUnlock {
		return AccessUnlocked
	}
	return AccessLocked
}

// CurrentlyRestricted reports whether the opportunity's restriction window is
// active at now.
func CurrentlyRestricted(o *models.Opportunity, now time.Time) bool {
	return StateFor(o.IsRestricted, o.RestrictedUntil, false, now) == AccessLocked
}

// UnlockResult describes a successful (or idempotently repeated) unlock.
type UnlockResult struct {
	Method           string `json:"method"`
	CreditsPaid      int    `json:"credits_paid"`
	CreditsRemaining int    `json:"credits_remaining"`
	AlreadyUnlocked  bool   `json:"already_unlocked"`
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// GateOpportunityRepo resolves opportunities for the gate.
type GateOpportunityRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)
}

// GateUnlockRepo reads and writes unlock records.
type GateUnlockRepo interface {
	Get(ctx context.Context, accountID, opportunityID uuid.UUID) (*models.UnlockRecord, error)
	// CreateTx inserts the record, returning false if a record for the pair
	// already exists (the unique constraint absorbed the insert).
	CreateTx(ctx context.Context, tx pgx.Tx, r *models.UnlockRecord) (bool, error)
}

// GateAccountRepo is the account access the gate needs.
type GateAccountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Account, error)
	// ConsumeFreeUnlock decrements the free-unlock allowance if any remains.
	ConsumeFreeUnlock(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)
}

// GateLedger is the debit operation the gate needs from the credit ledger.
type GateLedger interface {
	Debit(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, amount int, reason string) (*models.CreditTransaction, error)
}

// AccessGate decides visibility of restricted opportunities and performs the
// unlock transition.
type AccessGate struct {
	DB            TxBeginner
	Opportunities GateOpportunityRepo
	Unlocks       GateUnlockRepo
	Accounts      GateAccountRepo
	Ledger        GateLedger
}

func NewAccessGate(db TxBeginner, opps GateOpportunityRepo, unlocks GateUnlockRepo, accounts GateAccountRepo, ledger GateLedger) *AccessGate {
	return &AccessGate{DB: db, Opportunities: opps, Unlocks: unlocks, Accounts: accounts, Ledger: ledger}
}

// AttemptUnlock makes a restricted opportunity visible to the account.
// Payment resolves in strict priority order: tier grant, then free allowance,
// then credits. Unlocking is idempotent: a repeated or concurrent attempt
// observes the existing record and succeeds without a second charge.
func (g *AccessGate) AttemptUnlock(ctx context.Context, accountID, opportunityID uuid.UUID, now time.Time) (*UnlockResult, error) {
	opp, err := g.Opportunities.GetByID(ctx, opportunityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if existing, err := g.Unlocks.Get(ctx, accountID, opportunityID); err != nil {
		return nil, err
	} else if existing != nil {
		return g.repeatResult(ctx, accountID, existing)
	}

	// Already fully visible: no-op success, nothing to pay.
	if !CurrentlyRestricted(opp, now) {
		acc, err := g.Accounts.GetByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		return &UnlockResult{AlreadyUnlocked: true, CreditsRemaining: acc.CreditBalance}, nil
	}

	tx, err := g.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	acc, err := g.Accounts.GetByIDForUpdate(ctx, tx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rec := &models.UnlockRecord{
		ID:            uuid.New(),
		AccountID:     accountID,
		OpportunityID: opportunityID,
	}
	balance := acc.CreditBalance

	switch quota := models.QuotaForTier(acc.SubscriptionTier); {
	case quota.EarlyAccess:
		rec.Method = models.UnlockMethodTier
	default:
		consumed, err := g.Accounts.ConsumeFreeUnlock(ctx, tx, accountID)
		if err != nil {
			return nil, err
		}
		if consumed {
			rec.Method = models.UnlockMethodFreeAllowance
			break
		}
		cost := opp.CostToUnlock()
		entry, err := g.Ledger.Debit(ctx, tx, accountID, cost, models.CreditReasonUnlockPrefix+opportunityID.String())
		if err != nil {
			return nil, err
		}
		rec.Method = models.UnlockMethodCredits
		rec.CreditsPaid = cost
		balance = entry.BalanceAfter
	}

	inserted, err := g.Unlocks.CreateTx(ctx, tx, rec)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// A concurrent attempt won the race. The deferred rollback drops our
		// payment; report the winner's record as an idempotent success.
		_ = tx.Rollback(ctx)
		existing, err := g.Unlocks.Get(ctx, accountID, opportunityID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrConcurrentModification
		}
		return g.repeatResult(ctx, accountID, existing)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &UnlockResult{
		Method:           rec.Method,
		CreditsPaid:      rec.CreditsPaid,
		CreditsRemaining: balance,
	}, nil
}

func (g *AccessGate) repeatResult(ctx context.Context, accountID uuid.UUID, existing *models.UnlockRecord) (*UnlockResult, error) {
	acc, err := g.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &UnlockResult{
		Method:           existing.Method,
		CreditsRemaining: acc.CreditBalance,
		AlreadyUnlocked:  true,
	}, nil
}
