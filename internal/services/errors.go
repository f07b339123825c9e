package services

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a referenced opportunity or account does not
// exist. Fatal to the request, never retried.
var ErrNotFound = errors.New("not found")

// ErrConcurrentModification is returned when an atomic operation lost a race
// to a conflicting write. The handler layer retries the operation exactly once
// before surfacing it.
var ErrConcurrentModification = errors.New("concurrent modification")

// InsufficientCreditsError is returned when a debit exceeds the account
// balance. Non-retryable without user action.
type InsufficientCreditsError struct {
	Required int
	Balance  int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: need %d, have %d", e.Required, e.Balance)
}

// Shortfall is the amount the user would need to top up.
func (e *InsufficientCreditsError) Shortfall() int {
	return e.Required - e.Balance
}

// QuotaExceededError is returned when the monthly action quota is exhausted.
// NextResetAt lets the caller present a concrete wait time.
type QuotaExceededError struct {
	Used        int
	Max         int
	NextResetAt time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("monthly quota exhausted: %d/%d used, resets %s", e.Used, e.Max, e.NextResetAt.Format(time.RFC3339))
}
