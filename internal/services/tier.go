package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/launchpath/backend/internal/models"
)

// quotaPeriodDays is the rolling window length for accounts that straddle
// calendar months.
const quotaPeriodDays = 30

// QuotaStatus is the result of a quota check.
type QuotaStatus struct {
	Allowed     bool      `json:"allowed"`
	Used        int       `json:"used"`
	Max         int       `json:"max"` // -1 = unlimited
	Remaining   int       `json:"remaining"`
	NextResetAt time.Time `json:"next_reset_at"`
}

// QuotaAccountRepo is the minimal account access TierPolicy needs.
type QuotaAccountRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// ResetQuota zeroes the action counter and moves the anchor to now, but
	// only if the stored anchor still equals oldAnchor. Returns false when a
	// concurrent reset already happened.
	ResetQuota(ctx context.Context, id uuid.UUID, oldAnchor, now time.Time) (bool, error)
	// IncrementActions bumps the counter by one only if the stored count still
	// equals expectedUsed. Returns false on a lost race.
	IncrementActions(ctx context.Context, id uuid.UUID, expectedUsed int) (bool, error)
}

// TierPolicy evaluates subscription quotas against per-account counters.
type TierPolicy struct {
	Accounts QuotaAccountRepo
}

func NewTierPolicy(accounts QuotaAccountRepo) *TierPolicy {
	return &TierPolicy{Accounts: accounts}
}

// ShouldReset reports whether the billing period anchored at anchor has
// expired at now: either 30 full days have elapsed, or the calendar month or
// year changed. The calendar clause keeps infrequently-used accounts on a
// monthly cadence even though they are not checked daily.
func ShouldReset(anchor, now time.Time) bool {
	if now.Sub(anchor) >= quotaPeriodDays*24*time.Hour {
		return true
	}
	return now.Month() != anchor.Month() || now.Year() != anchor.Year()
}

// NextResetAt is the earlier of anchor+30d and the first instant of the next
// calendar month after the anchor.
func NextResetAt(anchor time.Time) time.Time {
	rolling := anchor.Add(quotaPeriodDays * 24 * time.Hour)
	monthEdge := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location()).AddDate(0, 1, 0)
	if monthEdge.Before(rolling) {
		return monthEdge
	}
	return rolling
}

// CheckQuota evaluates the account's quota at now, resetting the period first
// if it has expired. The check always runs against a fresh read of the stored
// counters, never the caller's in-memory copy: the copy may predate a
// concurrent consume, and the count it reports feeds the ConsumeAction CAS.
// The passed account is updated in place with what the check observed.
func (t *TierPolicy) CheckQuota(ctx context.Context, acc *models.Account, now time.Time) (QuotaStatus, error) {
	fresh, err := t.Accounts.GetByID(ctx, acc.ID)
	if err != nil {
		return QuotaStatus{}, err
	}
	*acc = *fresh

	if ShouldReset(acc.PeriodAnchor, now) {
		won, err := t.Accounts.ResetQuota(ctx, acc.ID, acc.PeriodAnchor, now)
		if err != nil {
			return QuotaStatus{}, err
		}
		if won {
			acc.ActionsThisPeriod = 0
			acc.PeriodAnchor = now
		} else {
			// A concurrent request reset first; re-read the fresh counters.
			fresh, err := t.Accounts.GetByID(ctx, acc.ID)
			if err != nil {
				return QuotaStatus{}, err
			}
			*acc = *fresh
		}
	}

	quota := models.QuotaForTier(acc.SubscriptionTier)
	status := QuotaStatus{
		Used:        acc.ActionsThisPeriod,
		Max:         quota.MonthlyActions,
		NextResetAt: NextResetAt(acc.PeriodAnchor),
	}
	if quota.MonthlyActions == models.UnlimitedQuota {
		status.Allowed = true
		status.Remaining = models.UnlimitedQuota
		return status, nil
	}
	status.Allowed = acc.ActionsThisPeriod < quota.MonthlyActions
	status.Remaining = quota.MonthlyActions - acc.ActionsThisPeriod
	if status.Remaining < 0 {
		status.Remaining = 0
	}
	return status, nil
}

// ConsumeAction records one quota unit. Invoked only after the gated action
// has been authorized and is about to commit, never before, so a failed
// action is never charged. expectedUsed is the count CheckQuota reported;
// a mismatch means another request consumed concurrently.
func (t *TierPolicy) ConsumeAction(ctx context.Context, accountID uuid.UUID, expectedUsed int) error {
	ok, err := t.Accounts.IncrementActions(ctx, accountID, expectedUsed)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConcurrentModification
	}
	return nil
}
