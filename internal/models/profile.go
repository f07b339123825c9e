package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds a user's matchable attributes. Owned by the profile-builder
// collaborator; this service only reads it.
type Profile struct {
	UserID       uuid.UUID `json:"user_id"`
	Skills       []string  `json:"skills"`
	Interests    []string  `json:"interests"`
	FieldOfStudy string    `json:"field_of_study,omitempty"`
	Education    string    `json:"education,omitempty"`
	CareerGoals  []string  `json:"career_goals"`

	EducationEntries  []EducationEntry  `json:"education_entries,omitempty"`
	ExperienceEntries []ExperienceEntry `json:"experience_entries,omitempty"`
	SkillEntries      []SkillEntry      `json:"skill_entries,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// EducationEntry is a structured education record contributed by the profile builder.
type EducationEntry struct {
	DegreeType  string `json:"degree_type,omitempty"`
	DegreeTitle string `json:"degree_title,omitempty"`
	Field       string `json:"field,omitempty"`
	Institution string `json:"institution,omitempty"`
}

type ExperienceEntry struct {
	Title    string `json:"title,omitempty"`
	Employer string `json:"employer,omitempty"`
}

type SkillEntry struct {
	Name string `json:"name"`
}
