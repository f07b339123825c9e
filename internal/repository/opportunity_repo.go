package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/launchpath/backend/internal/models"
)

const opportunityColumns = `id, title, organization, COALESCE(description, ''), COALESCE(category, ''), is_active,
	ai_categories, ai_keywords, ai_skills, ai_education, ai_industries,
	required_degrees, preferred_majors, required_skills, industries, matching_tags,
	is_restricted, restricted_until, unlock_cost, created_at`

// OpportunityRepo reads opportunities written by the ingestion collaborator.
// Content is immutable here; only access-state fields belong to this service.
type OpportunityRepo struct {
	pool *pgxpool.Pool
}

func NewOpportunityRepo(pool *pgxpool.Pool) *OpportunityRepo {
	return &OpportunityRepo{pool: pool}
}

func scanOpportunity(row pgx.Row) (*models.Opportunity, error) {
	var o models.Opportunity
	err := row.Scan(&o.ID, &o.Title, &o.Organization, &o.Description, &o.Category, &o.IsActive,
		&o.AITags.Categories, &o.AITags.Keywords, &o.AITags.Skills, &o.AITags.Education, &o.AITags.Industries,
		&o.ManualTags.RequiredDegrees, &o.ManualTags.PreferredMajors, &o.ManualTags.RequiredSkills, &o.ManualTags.Industries, &o.ManualTags.MatchingTags,
		&o.IsRestricted, &o.RestrictedUntil, &o.UnlockCost, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OpportunityRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Opportunity, error) {
	return scanOpportunity(r.pool.QueryRow(ctx, `
		SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1
	`, id))
}

// ListActive returns active opportunities, newest first. Restricted
// opportunities are included; visibility is decided at read time by the gate.
func (r *OpportunityRepo) ListActive(ctx context.Context, limit int) ([]*models.Opportunity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+opportunityColumns+` FROM opportunities
		WHERE is_active ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}
