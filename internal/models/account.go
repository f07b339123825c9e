package models

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID                   uuid.UUID `json:"id"`
	Email                string    `json:"email"`
	Name                 string    `json:"name"`
	PasswordHash         string    `json:"-"`
	SubscriptionTier     string    `json:"subscription_tier"`
	CreditBalance        int       `json:"credit_balance"`
	LifetimeSpent        int       `json:"lifetime_spent"`
	FreeUnlocksRemaining int       `json:"free_unlocks_remaining"`
	ActionsThisPeriod    int       `json:"actions_this_period"`
	PeriodAnchor         time.Time `json:"period_anchor"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
