package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/launchpath/backend/internal/middleware"
	"github.com/launchpath/backend/internal/notify"
	"github.com/launchpath/backend/internal/services"
)

// UnlockGate is the unlock operation the handler needs.
type UnlockGate interface {
	AttemptUnlock(ctx context.Context, accountID, opportunityID uuid.UUID, now time.Time) (*services.UnlockResult, error)
}

// UnlockHandler serves POST /v1/opportunities/{id}/unlock.
type UnlockHandler struct {
	Gate     UnlockGate
	Notifier *notify.Notifier
	Logger   *slog.Logger
}

type unlockResponse struct {
	Success          bool   `json:"success"`
	Method           string `json:"method,omitempty"`
	CreditsRemaining int    `json:"credits_remaining"`
	AlreadyUnlocked  bool   `json:"already_unlocked,omitempty"`
}

func (h *UnlockHandler) Unlock(w http.ResponseWriter, r *http.Request) {
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

	res, err := h.Gate.AttemptUnlock(r.Context(), acc.ID, opportunityID, time.Now().UTC())
	if err != nil {
		var insufficient *services.InsufficientCreditsError
		switch {
		case errors.Is(err, services.ErrNotFound):
			writeError(w, http.StatusNotFound, "opportunity not found")
		case errors.As(err, &insufficient):
			writeJSON(w, http.StatusPaymentRequired, map[string]any{
				"error":      "insufficient credits",
				"required":   insufficient.Required,
				"balance":    insufficient.Balance,
				"shortfall":  insufficient.Shortfall(),
				"suggestion": "top up credits or upgrade your plan",
			})
		default:
			h.Logger.Error("attempt unlock", "opportunity_id", opportunityID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	if !res.AlreadyUnlocked {
		h.Notifier.Emit(r.Context(), notify.EventUnlockSucceeded, acc.ID, map[string]any{
			"opportunity_id": opportunityID,
			"method":         res.Method,
			"credits_paid":   res.CreditsPaid,
		})
	}
	writeJSON(w, http.StatusOK, unlockResponse{
		Success:          true,
		Method:           res.Method,
		CreditsRemaining: res.CreditsRemaining,
		AlreadyUnlocked:  res.AlreadyUnlocked,
	})
}
