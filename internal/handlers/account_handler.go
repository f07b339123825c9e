package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/launchpath/backend/internal/middleware"
	"github.com/launchpath/backend/internal/models"
)

// TransactionLister reads an account's credit transaction history.
type TransactionLister interface {
	ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.CreditTransaction, error)
}

// AccountHandler serves the account dashboard endpoints.
type AccountHandler struct {
	Transactions TransactionLister
	Logger       *slog.Logger
}

type meResponse struct {
	ID                   string `json:"id"`
	Email                string `json:"email"`
	Name                 string `json:"name"`
	SubscriptionTier     string `json:"subscription_tier"`
	CreditBalance        int    `json:"credit_balance"`
	LifetimeSpent        int    `json:"lifetime_spent"`
	FreeUnlocksRemaining int    `json:"free_unlocks_remaining"`
}

// Me returns the authenticated account's balances and tier.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, meResponse{
		ID:                   acc.ID.String(),
		Email:                acc.Email,
		Name:                 acc.Name,
		SubscriptionTier:     acc.SubscriptionTier,
		CreditBalance:        acc.CreditBalance,
		LifetimeSpent:        acc.LifetimeSpent,
		FreeUnlocksRemaining: acc.FreeUnlocksRemaining,
	})
}

// ListTransactions returns the account's ledger history, newest first.
func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := h.Transactions.ListByAccountID(r.Context(), acc.ID)
	if err != nil {
		h.Logger.Error("list transactions", "account_id", acc.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []*models.CreditTransaction{}
	}
	writeJSON(w, http.StatusOK, list)
}
