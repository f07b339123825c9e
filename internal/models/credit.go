package models

import (
	"time"

	"github.com/google/uuid"
)

// Well-known credit transaction reasons. Reasons are free-form strings; the
// unlock path appends the opportunity id, e.g. "unlock:<uuid>".
const (
	CreditReasonUnlockPrefix = "unlock:"
	CreditReasonTopUp        = "top_up"
	CreditReasonSignupGrant  = "signup_grant"
)

// CreditTransaction is an immutable, append-only ledger entry. The account's
// credit_balance is the fast-path value; folding Amount over an account's
// transactions must always reproduce it.
type CreditTransaction struct {
	ID           uuid.UUID `json:"id"`
	AccountID    uuid.UUID `json:"account_id"`
	Amount       int       `json:"amount"` // signed: debits negative, credits positive
	Reason       string    `json:"reason"`
	BalanceAfter int       `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}
