package models

import (
	"time"

	"github.com/google/uuid"
)

// Unlock payment methods, in resolution priority order.
const (
	UnlockMethodTier          = "tier"
	UnlockMethodFreeAllowance = "free_allowance"
	UnlockMethodCredits       = "credits"
)

// UnlockRecord marks that an account has unlocked a restricted opportunity.
// At most one record exists per (account, opportunity) pair; the table's
// unique constraint enforces it.
type UnlockRecord struct {
	ID            uuid.UUID `json:"id"`
	AccountID     uuid.UUID `json:"account_id"`
	OpportunityID uuid.UUID `json:"opportunity_id"`
	Method        string    `json:"method"`
	CreditsPaid   int       `json:"credits_paid"`
	CreatedAt     time.Time `json:"created_at"`
}

// Application records a quota-gated apply action. Applied opportunities are
// excluded from the daily feed.
type Application struct {
	ID            uuid.UUID `json:"id"`
	AccountID     uuid.UUID `json:"account_id"`
	OpportunityID uuid.UUID `json:"opportunity_id"`
	CreatedAt     time.Time `json:"created_at"`
}
