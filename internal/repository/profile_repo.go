package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/launchpath/backend/internal/models"
)

// ProfileRepo reads profiles written by the profile-builder collaborator.
// This service never writes profile data.
type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// GetByUserID returns the user's profile, or an empty profile when the user
// has not built one yet. A sparse profile degrades to baseline scoring, so
// absence is not an error.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	var educationJSON, experienceJSON, skillsJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, skills, interests, COALESCE(field_of_study, ''), COALESCE(education, ''), career_goals,
		       COALESCE(education_entries, '[]'), COALESCE(experience_entries, '[]'), COALESCE(skill_entries, '[]'), updated_at
		FROM profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.Skills, &p.Interests, &p.FieldOfStudy, &p.Education, &p.CareerGoals,
		&educationJSON, &experienceJSON, &skillsJSON, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.Profile{UserID: userID}, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(educationJSON, &p.EducationEntries); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(experienceJSON, &p.ExperienceEntries); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(skillsJSON, &p.SkillEntries); err != nil {
		return nil, err
	}
	return &p, nil
}
