package services

import (
	"reflect"
	"testing"
	"time"

	"github.com/launchpath/backend/internal/models"
)

var scoreNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

// oldOpp returns an opportunity created well outside the recency window.
func oldOpp() *models.Opportunity {
	return &models.Opportunity{
		Title:        "Software Engineering Internship",
		Organization: "Acme Corp",
		CreatedAt:    scoreNow.AddDate(0, -2, 0),
	}
}

func TestScoreDeterminism(t *testing.T) {
	p := &models.Profile{
		Skills:    []string{"Python", "SQL"},
		Interests: []string{"fintech"},
	}
	o := oldOpp()
	o.AITags.Skills = []string{"python"}
	o.AITags.Industries = []string{"fintech"}

	scorer := NewScorer()
	first := scorer.Score(p, o, scoreNow)
	for i := 0; i < 5; i++ {
		got := scorer.Score(p, o, scoreNow)
		if got.Score != first.Score || !reflect.DeepEqual(got.Reasons, first.Reasons) {
			t.Fatalf("call %d differs: got %+v, want %+v", i, got, first)
		}
	}
}

func TestScoreBounded(t *testing.T) {
	// Many overlapping tokens push every signal past its cap; total must
	// still clamp at 100.
	p := &models.Profile{
		Skills:       []string{"go", "python", "sql", "java", "rust", "c"},
		Interests:    []string{"tech", "software", "data"},
		FieldOfStudy: "computer science",
		EducationEntries: []models.EducationEntry{
			{DegreeType: "bachelor", Field: "computer science"},
			{DegreeType: "master", Field: "software"},
		},
		ExperienceEntries: []models.ExperienceEntry{
			{Title: "software engineer"},
			{Title: "data engineer"},
			{Employer: "tech corp"},
		},
	}
	o := &models.Opportunity{
		Title:        "Engineer",
		Organization: "Tech Corp",
		CreatedAt:    scoreNow, // full recency bonus
	}
	o.AITags.Skills = []string{"go", "python", "sql", "java", "rust", "c"}
	o.AITags.Industries = []string{"tech", "software", "data"}
	o.AITags.Education = []string{"computer science", "software"}
	o.AITags.Keywords = []string{"software engineer", "data engineer", "tech corp"}

	got := NewScorer().Score(p, o, scoreNow)
	if got.Score < 0 || got.Score > 100 {
		t.Fatalf("score out of bounds: %d", got.Score)
	}
	if got.Score != 100 {
		t.Errorf("full-overlap score: got %d, want 100", got.Score)
	}
}

func TestScoreBaseline(t *testing.T) {
	p := &models.Profile{}
	o := oldOpp()

	got := NewScorer().Score(p, o, scoreNow)
	if got.Score != 30 {
		t.Errorf("baseline score: got %d, want 30", got.Score)
	}
	if len(got.Reasons) != 1 || got.Reasons[0] != "general opportunity" {
		t.Errorf("baseline reasons: got %v", got.Reasons)
	}
}

func TestScoreSkillOverlap(t *testing.T) {
	// Only "python" matches "Python"; "sql" matches nothing.
	p := &models.Profile{Skills: []string{"python", "sql"}}
	o := &models.Opportunity{
		Title:        "Research Internship",
		Organization: "Lab",
		CreatedAt:    scoreNow.AddDate(0, -1, 0),
	}
	o.AITags.Skills = []string{"Python", "Data Analysis"}

	got := NewScorer().Score(p, o, scoreNow)
	if got.Score < 12 {
		t.Errorf("score: got %d, want >= 12", got.Score)
	}
	if got.Score != 12 {
		t.Errorf("only skill signal should fire: got %d, want 12", got.Score)
	}
	found := false
	for _, r := range got.Reasons {
		if r == "1 skill matches" {
			found = true
		}
	}
	if !found {
		t.Errorf("reasons %v should contain %q", got.Reasons, "1 skill matches")
	}
}

func TestScoreSkillCap(t *testing.T) {
	p := &models.Profile{Skills: []string{"go", "python", "sql", "java"}}
	o := oldOpp()
	o.AITags.Skills = []string{"go", "python", "sql", "java"}

	// 4 matches x 12 = 48, capped at 35.
	got := NewScorer().Score(p, o, scoreNow)
	if got.Score != 35 {
		t.Errorf("capped skill score: got %d, want 35", got.Score)
	}
	if got.Reasons[0] != "4 skills match" {
		t.Errorf("reason: got %q, want %q", got.Reasons[0], "4 skills match")
	}
}

func TestScoreCaseAndWhitespaceInsensitive(t *testing.T) {
	p := &models.Profile{Skills: []string{"  PYTHON  "}}
	o := oldOpp()
	o.AITags.Skills = []string{"python"}

	got := NewScorer().Score(p, o, scoreNow)
	if got.Score != 12 {
		t.Errorf("normalized match: got %d, want 12", got.Score)
	}
}

func TestScoreSkillMatchesDescriptionText(t *testing.T) {
	p := &models.Profile{Skills: []string{"kubernetes"}}
	o := &models.Opportunity{
		Title:        "Platform Internship",
		Organization: "CloudCo",
		Description:  "Work with Kubernetes and Terraform at scale.",
		CreatedAt:    scoreNow.AddDate(0, -1, 0),
	}

	got := NewScorer().Score(p, o, scoreNow)
	if got.Score != 12 {
		t.Errorf("text match: got %d, want 12", got.Score)
	}
}

func TestScoreInterestOverlap(t *testing.T) {
	p := &models.Profile{Interests: []string{"healthcare", "biotech"}}
	o := oldOpp()
	o.ManualTags.Industries = []string{"Healthcare"}
	o.AITags.Industries = []string{"Biotech"}

	// 2 matches x 13 = 26, capped at 25.
	got := NewScorer().Score(p, o, scoreNow)
	if got.Score != 25 {
		t.Errorf("interest score: got %d, want 25", got.Score)
	}
	if got.Reasons[0] != "2 interests match" {
		t.Errorf("reason: got %q", got.Reasons[0])
	}
}

func TestScoreEducationOverlap(t *testing.T) {
	p := &models.Profile{FieldOfStudy: "Computer Science"}
	o := oldOpp()
	o.ManualTags.PreferredMajors = []string{"computer science"}

	got := NewScorer().Score(p, o, scoreNow)
	if got.Score != 10 {
		t.Errorf("education score: got %d, want 10", got.Score)
	}
	if got.Reasons[0] != "education matches" {
		t.Errorf("reason: got %q", got.Reasons[0])
	}
}

func TestScoreRecencyBonus(t *testing.T) {
	cases := []struct {
		age  time.Duration
		want int
	}{
		{0, 10},
		{24 * time.Hour, 9},
		{3 * 24 * time.Hour, 7},
		{6*24*time.Hour + 12*time.Hour, 4},
		{7 * 24 * time.Hour, 0},
		{30 * 24 * time.Hour, 0},
	}
	for _, c := range cases {
		got := recencyBonus(scoreNow.Add(-c.age), scoreNow)
		if got != c.want {
			t.Errorf("recencyBonus(age=%v): got %d, want %d", c.age, got, c.want)
		}
	}
}

func TestScoreRecencyOnlyStillAboveZero(t *testing.T) {
	// A fresh opportunity with zero tag overlap gets the recency bonus, not
	// the baseline.
	p := &models.Profile{Skills: []string{"nothing matches"}}
	o := &models.Opportunity{
		Title:        "Internship",
		Organization: "Org",
		CreatedAt:    scoreNow,
	}
	got := NewScorer().Score(p, o, scoreNow)
	if got.Score != 10 {
		t.Errorf("recency-only score: got %d, want 10", got.Score)
	}
	if got.Reasons[0] != "posted recently" {
		t.Errorf("reason: got %q", got.Reasons[0])
	}
}
