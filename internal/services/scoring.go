package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/launchpath/backend/internal/models"
	"github.com/launchpath/backend/internal/tags"
)

// Signal caps and per-match weights. Five additive signals; each is capped
// independently, then the total is clamped to [0,100].
const (
	skillCap         = 35
	skillWeight      = 12
	interestCap      = 25
	interestWeight   = 13
	educationCap     = 20
	educationWeight  = 10
	experienceCap    = 10
	experienceWeight = 5
	recencyCap       = 10
	recencyWindow    = 7 // days

	// baselineScore keeps every candidate rankable when no signal fires.
	baselineScore  = 30
	baselineReason = "general opportunity"
)

// ScoreResult is the relevance score and its human-readable justification.
type ScoreResult struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Scorer computes relevance of an opportunity for a profile. It is a pure
// function of its inputs: no storage, no randomness. now is passed in so the
// recency signal is deterministic under test.
type Scorer struct{}

func NewScorer() *Scorer { return &Scorer{} }

// Score returns a 0..100 relevance score and one reason per contributing
// signal, in evaluation order: skills, interests, education, experience,
// recency.
func (s *Scorer) Score(p *models.Profile, o *models.Opportunity, now time.Time) ScoreResult {
	text := strings.ToLower(o.Title + " " + o.Organization + " " + o.Description)
	score := 0
	var reasons []string

	if n := s.skillMatches(p, o, text); n > 0 {
		score += capped(n*skillWeight, skillCap)
		reasons = append(reasons, pluralMatch(n, "skill"))
	}
	if n := s.interestMatches(p, o); n > 0 {
		score += capped(n*interestWeight, interestCap)
		reasons = append(reasons, pluralMatch(n, "interest"))
	}
	if n := s.educationMatches(p, o); n > 0 {
		score += capped(n*educationWeight, educationCap)
		reasons = append(reasons, "education matches")
	}
	if n := s.experienceMatches(p, o); n > 0 {
		score += capped(n*experienceWeight, experienceCap)
		reasons = append(reasons, "experience aligns")
	}
	if bonus := recencyBonus(o.CreatedAt, now); bonus > 0 {
		score += bonus
		reasons = append(reasons, "posted recently")
	}

	if score == 0 {
		return ScoreResult{Score: baselineScore, Reasons: []string{baselineReason}}
	}
	if score > 100 {
		score = 100
	}
	return ScoreResult{Score: score, Reasons: reasons}
}

func (s *Scorer) skillMatches(p *models.Profile, o *models.Opportunity, text string) int {
	against := append(append([]string{}, o.AITags.Skills...), o.AITags.Keywords...)
	against = append(against, o.ManualTags.RequiredSkills...)

	tokens := append([]string{}, p.Skills...)
	for _, e := range p.SkillEntries {
		tokens = append(tokens, e.Name)
	}
	return tags.CountMatches(tokens, against, text)
}

func (s *Scorer) interestMatches(p *models.Profile, o *models.Opportunity) int {
	against := []string{o.Category}
	against = append(against, o.AITags.Categories...)
	against = append(against, o.AITags.Industries...)
	against = append(against, o.ManualTags.Industries...)
	tokens := append(append([]string{}, p.Interests...), p.CareerGoals...)
	return tags.CountMatches(tokens, against, "")
}

func (s *Scorer) educationMatches(p *models.Profile, o *models.Opportunity) int {
	against := append(append([]string{}, o.ManualTags.RequiredDegrees...), o.ManualTags.PreferredMajors...)
	against = append(against, o.AITags.Education...)

	tokens := []string{p.FieldOfStudy, p.Education}
	for _, e := range p.EducationEntries {
		tokens = append(tokens, e.DegreeType, e.DegreeTitle, e.Field, e.Institution)
	}
	return tags.CountMatches(tokens, against, "")
}

func (s *Scorer) experienceMatches(p *models.Profile, o *models.Opportunity) int {
	against := append(append([]string{}, o.ManualTags.MatchingTags...), o.AITags.Keywords...)
	var tokens []string
	for _, e := range p.ExperienceEntries {
		tokens = append(tokens, e.Title, e.Employer)
	}
	return tags.CountMatches(tokens, against, "")
}

// recencyBonus rewards opportunities younger than the recency window:
// max(0, 10 - daysSinceCreated).
func recencyBonus(createdAt, now time.Time) int {
	days := int(now.Sub(createdAt).Hours() / 24)
	if days < 0 || days >= recencyWindow {
		return 0
	}
	bonus := recencyCap - days
	if bonus < 0 {
		return 0
	}
	return bonus
}

func capped(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}

// pluralMatch renders "1 skill matches" / "3 skills match".
func pluralMatch(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s matches", noun)
	}
	return fmt.Sprintf("%d %ss match", n, noun)
}
