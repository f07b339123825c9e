package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/launchpath/backend/internal/middleware"
)

// QuotaHandler serves GET /v1/quota.
type QuotaHandler struct {
	Quota  QuotaPolicy
	Logger *slog.Logger
}

type quotaResponse struct {
	Used        int    `json:"used"`
	Max         int    `json:"max"` // -1 = unlimited
	Remaining   int    `json:"remaining"`
	NextResetAt string `json:"next_reset_at"`
}

func (h *QuotaHandler) Check(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	status, err := h.Quota.CheckQuota(r.Context(), acc, time.Now().UTC())
	if err != nil {
		h.Logger.Error("check quota", "account_id", acc.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, quotaResponse{
		Used:        status.Used,
		Max:         status.Max,
		Remaining:   status.Remaining,
		NextResetAt: status.NextResetAt.Format(time.RFC3339),
	})
}
