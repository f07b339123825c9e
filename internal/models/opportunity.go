package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultUnlockCost is charged for a credit-paid early-access unlock when the
// opportunity row does not carry its own price.
const DefaultUnlockCost = 5

// Opportunity is a postable unit of work. Content is written by the ingestion
// collaborator and is immutable here; only the access-state fields belong to
// this service.
type Opportunity struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Organization string    `json:"organization"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category,omitempty"`
	IsActive     bool      `json:"is_active"`

	// AI-derived tags, populated asynchronously by the categorization
	// collaborator. Any of these may be empty.
	AITags AITags `json:"ai_tags"`

	// Manually curated tags set by the poster.
	ManualTags ManualTags `json:"manual_tags"`

	// Access state for early-access gating.
	IsRestricted    bool       `json:"is_restricted"`
	RestrictedUntil *time.Time `json:"restricted_until,omitempty"`
	UnlockCost      int        `json:"unlock_cost"`

	CreatedAt time.Time `json:"created_at"`
}

type AITags struct {
	Categories []string `json:"categories,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Skills     []string `json:"skills,omitempty"`
	Education  []string `json:"education,omitempty"`
	Industries []string `json:"industries,omitempty"`
}

type ManualTags struct {
	RequiredDegrees []string `json:"required_degrees,omitempty"`
	PreferredMajors []string `json:"preferred_majors,omitempty"`
	RequiredSkills  []string `json:"required_skills,omitempty"`
	Industries      []string `json:"industries,omitempty"`
	MatchingTags    []string `json:"matching_tags,omitempty"`
}

// CostToUnlock returns the credit price for this opportunity, falling back to
// the platform default when the row has no explicit price.
func (o *Opportunity) CostToUnlock() int {
	if o.UnlockCost > 0 {
		return o.UnlockCost
	}
	return DefaultUnlockCost
}
