package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/launchpath/backend/internal/middleware"
	"github.com/launchpath/backend/internal/models"
	"github.com/launchpath/backend/internal/services"
)

// feedCandidateLimit bounds how many active opportunities one feed request
// scores.
const feedCandidateLimit = 200

// ProfileSource reads the caller's matchable profile.
type ProfileSource interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// OpportunitySource lists feed candidates.
type OpportunitySource interface {
	ListActive(ctx context.Context, limit int) ([]*models.Opportunity, error)
}

// IDSetSource returns a set of opportunity ids for an account (applications,
// unlocks).
type IDSetSource interface {
	ListOpportunityIDs(ctx context.Context, accountID uuid.UUID) (map[uuid.UUID]bool, error)
}

// FeedHandler serves GET /v1/feed.
type FeedHandler struct {
	Profiles      ProfileSource
	Opportunities OpportunitySource
	Applications  IDSetSource
	Unlocks       IDSetSource
	Selector      *services.PicksSelector
	Logger        *slog.Logger
}

type feedResponse struct {
	RestrictedPick *services.ScoredOpportunity   `json:"restricted_pick"`
	RegularPicks   []*services.ScoredOpportunity `json:"regular_picks"`
}

// Feed returns the daily picks. The read path degrades instead of failing:
// a missing profile scores at baseline, and an unreadable unlock set renders
// restricted items as locked.
func (h *FeedHandler) Feed(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	now := time.Now().UTC()

	profile, err := h.Profiles.GetByUserID(r.Context(), acc.ID)
	if err != nil {
		h.Logger.Warn("load profile, scoring at baseline", "account_id", acc.ID, "error", err)
		profile = &models.Profile{UserID: acc.ID}
	}

	candidates, err := h.Opportunities.ListActive(r.Context(), feedCandidateLimit)
	if err != nil {
		h.Logger.Error("list opportunities", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	applied, err := h.Applications.ListOpportunityIDs(r.Context(), acc.ID)
	if err != nil {
		h.Logger.Warn("list applications", "account_id", acc.ID, "error", err)
		applied = map[uuid.UUID]bool{}
	}
	unlocked, err := h.Unlocks.ListOpportunityIDs(r.Context(), acc.ID)
	if err != nil {
		h.Logger.Warn("list unlocks", "account_id", acc.ID, "error", err)
		unlocked = map[uuid.UUID]bool{}
	}

	sel := h.Selector.Select(profile, candidates, applied, unlocked, now)
	writeJSON(w, http.StatusOK, feedResponse{
		RestrictedPick: sel.RestrictedPick,
		RegularPicks:   sel.RegularPicks,
	})
}
