package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/launchpath/backend/internal/middleware"
	"github.com/launchpath/backend/internal/models"
	"github.com/launchpath/backend/internal/notify"
	"github.com/launchpath/backend/internal/repository"
	"github.com/launchpath/backend/internal/services"
)

// QuotaPolicy is the quota surface the apply path needs.
type QuotaPolicy interface {
	CheckQuota(ctx context.Context, acc *models.Account, now time.Time) (services.QuotaStatus, error)
	ConsumeAction(ctx context.Context, accountID uuid.UUID, expectedUsed int) error
}

// OpportunityGetter resolves a single opportunity.
type OpportunityGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error)
}

// ApplicationStore persists applications.
type ApplicationStore interface {
	Create(ctx context.Context, a *models.Application) error
	Exists(ctx context.Context, accountID, opportunityID uuid.UUID) (bool, error)
}

// UnlockGetter reads a single unlock record.
type UnlockGetter interface {
	Get(ctx context.Context, accountID, opportunityID uuid.UUID) (*models.UnlockRecord, error)
}

// ApplyHandler serves POST /v1/opportunities/{id}/apply — the quota-gated
// action.
type ApplyHandler struct {
	Quota         QuotaPolicy
	Opportunities OpportunityGetter
	Applications  ApplicationStore
	Unlocks       UnlockGetter
	Notifier      *notify.Notifier
	Logger        *slog.Logger
}

type applyResponse struct {
	ApplicationID string `json:"application_id"`
	Used          int    `json:"used"`
	Remaining     int    `json:"remaining"` // -1 = unlimited
}

// Apply validates first and consumes quota last, so a request that fails
// validation is never charged.
func (h *ApplyHandler) Apply(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	opportunityID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid opportunity id")
		return
	}
	now := time.Now().UTC()

	status, err := h.Quota.CheckQuota(r.Context(), acc, now)
	if err != nil {
		h.Logger.Error("check quota", "account_id", acc.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !status.Allowed {
		h.Notifier.Emit(r.Context(), notify.EventQuotaExhausted, acc.ID, map[string]any{
			"used":          status.Used,
			"max":           status.Max,
			"next_reset_at": status.NextResetAt,
		})
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":         "monthly action quota exhausted",
			"used":          status.Used,
			"max":           status.Max,
			"next_reset_at": status.NextResetAt,
			"suggestion":    "upgrade your plan for more monthly actions",
		})
		return
	}

	opp, err := h.Opportunities.GetByID(r.Context(), opportunityID)
	if err != nil {
		writeError(w, http.StatusNotFound, "opportunity not found")
		return
	}
	unlock, err := h.Unlocks.Get(r.Context(), acc.ID, opportunityID)
	if err != nil {
		h.Logger.Error("read unlock record", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if services.StateFor(opp.IsRestricted, opp.RestrictedUntil, unlock != nil, now) == services.AccessLocked {
		writeError(w, http.StatusForbidden, "opportunity is in early access; unlock it first")
		return
	}

	// Rejecting duplicates before the consume keeps the quota uncharged; the
	// unique constraint below backstops the remaining race window.
	applied, err := h.Applications.Exists(r.Context(), acc.ID, opportunityID)
	if err != nil {
		h.Logger.Error("check existing application", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if applied {
		writeError(w, http.StatusConflict, "already applied")
		return
	}

	// Action authorized; charge the quota unit, then commit the application.
	used, err := h.consumeWithRetry(r.Context(), acc, status.Used, now)
	if err != nil {
		if errors.Is(err, services.ErrConcurrentModification) {
			writeError(w, http.StatusConflict, "quota changed concurrently, try again")
			return
		}
		var exceeded *services.QuotaExceededError
		if errors.As(err, &exceeded) {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":         "monthly action quota exhausted",
				"used":          exceeded.Used,
				"max":           exceeded.Max,
				"next_reset_at": exceeded.NextResetAt,
			})
			return
		}
		h.Logger.Error("consume quota", "account_id", acc.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	app := &models.Application{
		ID:            uuid.New(),
		AccountID:     acc.ID,
		OpportunityID: opportunityID,
	}
	if err := h.Applications.Create(r.Context(), app); err != nil {
		if errors.Is(err, repository.ErrDuplicateApplication) {
			writeError(w, http.StatusConflict, "already applied")
			return
		}
		h.Logger.Error("create application", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	remaining := models.UnlimitedQuota
	if status.Max != models.UnlimitedQuota {
		remaining = status.Max - used
		if remaining < 0 {
			remaining = 0
		}
	}
	writeJSON(w, http.StatusCreated, applyResponse{
		ApplicationID: app.ID.String(),
		Used:          used,
		Remaining:     remaining,
	})
}

// consumeWithRetry performs the quota compare-and-swap, retrying exactly once
// after a conflicting concurrent write. Returns the used count after consuming.
func (h *ApplyHandler) consumeWithRetry(ctx context.Context, acc *models.Account, expectedUsed int, now time.Time) (int, error) {
	err := h.Quota.ConsumeAction(ctx, acc.ID, expectedUsed)
	if err == nil {
		return expectedUsed + 1, nil
	}
	if !errors.Is(err, services.ErrConcurrentModification) {
		return 0, err
	}

	status, err := h.Quota.CheckQuota(ctx, acc, now)
	if err != nil {
		return 0, err
	}
	if !status.Allowed {
		return 0, &services.QuotaExceededError{Used: status.Used, Max: status.Max, NextResetAt: status.NextResetAt}
	}
	if err := h.Quota.ConsumeAction(ctx, acc.ID, status.Used); err != nil {
		return 0, err
	}
	return status.Used + 1, nil
}
