package services

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/launchpath/backend/internal/models"
)

// regularPickCount is how many unrestricted items the daily feed surfaces.
const regularPickCount = 2

// ScoredOpportunity is a feed item annotated with its relevance and lock state.
type ScoredOpportunity struct {
	Opportunity *models.Opportunity `json:"opportunity"`
	Score       int                 `json:"score"`
	Reasons     []string            `json:"reasons"`
	Locked      bool                `json:"locked"`
}

// FeedSelection is the daily picks result: at most one restricted early-access
// item plus the top regular items.
type FeedSelection struct {
	RestrictedPick *ScoredOpportunity   `json:"restricted_pick"`
	RegularPicks   []*ScoredOpportunity `json:"regular_picks"`
}

// PicksSelector combines scoring with early-access state to build the feed.
type PicksSelector struct {
	Scorer *Scorer
}

func NewPicksSelector(scorer *Scorer) *PicksSelector {
	return &PicksSelector{Scorer: scorer}
}

// Select scores every candidate the user has not applied to, partitions by
// active restriction, and returns the single best restricted item plus the top
// two regular items. The restricted pick is surfaced even when its score is
// below unselected regular items: that slot is about visibility, not pure
// ranking. Ties sort newest first.
func (s *PicksSelector) Select(profile *models.Profile, candidates []*models.Opportunity, applied map[uuid.UUID]bool, unlocked map[uuid.UUID]bool, now time.Time) FeedSelection {
	var restricted []*ScoredOpportunity
	// regular starts non-nil so an empty feed serializes as [] not null.
	regular := make([]*ScoredOpportunity, 0, regularPickCount)
	for _, o := range candidates {
		if applied[o.ID] {
			continue
		}
		res := s.Scorer.Score(profile, o, now)
		item := &ScoredOpportunity{
			Opportunity: o,
			Score:       res.Score,
			Reasons:     res.Reasons,
			Locked:      StateFor(o.IsRestricted, o.RestrictedUntil, unlocked[o.ID], now) == AccessLocked,
		}
		if CurrentlyRestricted(o, now) {
			restricted = append(restricted, item)
		} else {
			regular = append(regular, item)
		}
	}

	sortPicks(restricted)
	sortPicks(regular)

	sel := FeedSelection{}
	if len(restricted) > 0 {
		sel.RestrictedPick = restricted[0]
	}
	n := regularPickCount
	if len(regular) < n {
		n = len(regular)
	}
	sel.RegularPicks = regular[:n]
	return sel
}

func sortPicks(items []*ScoredOpportunity) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Opportunity.CreatedAt.After(items[j].Opportunity.CreatedAt)
	})
}
