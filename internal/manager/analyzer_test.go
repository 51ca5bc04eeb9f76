package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/strataga/foreman/internal/prompt"
	"github.com/strataga/foreman/pkg/models"
)

const validAnalysisJSON = `{
	"core_objective": "Ship a todo API",
	"subtasks": ["design schema", "implement endpoints", "write tests"],
	"required_specializations": ["backend-developer", "qa-engineer"],
	"estimated_timeline_hours": 12,
	"potential_blockers": ["unclear auth requirements"],
	"success_criteria": ["all endpoints pass integration tests"]
}`

func newTestAnalyzer(responses ...fakeCompletion) (*Analyzer, *fakeCompleter) {
	fake := &fakeCompleter{responses: responses}
	return NewAnalyzer(fake, prompt.NewCatalog(), testAgentConfig()), fake
}

func TestAnalyzeParsesValidResponse(t *testing.T) {
	analyzer, fake := newTestAnalyzer(fakeCompletion{content: validAnalysisJSON})
	goal := models.NewGoal("team-1", "Build a todo API")

	analysis, err := analyzer.Analyze(context.Background(), goal)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.CoreObjective != "Ship a todo API" {
		t.Errorf("CoreObjective = %q, want %q", analysis.CoreObjective, "Ship a todo API")
	}
	if len(analysis.Subtasks) != 3 {
		t.Errorf("len(Subtasks) = %d, want 3", len(analysis.Subtasks))
	}
	if analysis.GoalID != goal.ID {
		t.Errorf("GoalID = %q, want %q", analysis.GoalID, goal.ID)
	}
	if analysis.TeamID != "team-1" {
		t.Errorf("TeamID = %q, want %q", analysis.TeamID, "team-1")
	}
	if analysis.PromptVersion != "1.0.0" {
		t.Errorf("PromptVersion = %q, want %q", analysis.PromptVersion, "1.0.0")
	}
	if fake.calls() != 1 {
		t.Errorf("completions = %d, want 1", fake.calls())
	}
}

func TestAnalyzeRetriesOnceOnInvalidResponse(t *testing.T) {
	analyzer, fake := newTestAnalyzer(
		fakeCompletion{content: `{"subtasks": ["only subtasks"]}`},
		fakeCompletion{content: validAnalysisJSON},
	)

	analysis, err := analyzer.Analyze(context.Background(), models.NewGoal("team-1", "Build a todo API"))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.CoreObjective == "" {
		t.Error("CoreObjective empty after successful retry")
	}
	if fake.calls() != 2 {
		t.Errorf("completions = %d, want 2", fake.calls())
	}
}

func TestAnalyzeFailsAfterSecondInvalidResponse(t *testing.T) {
	analyzer, fake := newTestAnalyzer(
		fakeCompletion{content: "not json at all"},
		fakeCompletion{content: `{"core_objective": "x"}`},
	)

	_, err := analyzer.Analyze(context.Background(), models.NewGoal("team-1", "Build a todo API"))
	if err == nil {
		t.Fatal("Analyze() error = nil, want InvalidAnalysisError")
	}
	var ierr *InvalidAnalysisError
	if !errors.As(err, &ierr) {
		t.Fatalf("Analyze() error = %v, want *InvalidAnalysisError", err)
	}
	if fake.calls() != 2 {
		t.Errorf("completions = %d, want 2", fake.calls())
	}
}

func TestAnalyzeDoesNotRetryGatewayErrors(t *testing.T) {
	analyzer, fake := newTestAnalyzer(fakeCompletion{err: errors.New("api unavailable")})

	_, err := analyzer.Analyze(context.Background(), models.NewGoal("team-1", "Build a todo API"))
	if err == nil {
		t.Fatal("Analyze() error = nil, want gateway error")
	}
	var ierr *InvalidAnalysisError
	if errors.As(err, &ierr) {
		t.Errorf("Analyze() error = %v, want non-analysis error", err)
	}
	if fake.calls() != 1 {
		t.Errorf("completions = %d, want 1", fake.calls())
	}
}

func TestAnalyzeCachesByNormalizedGoalText(t *testing.T) {
	analyzer, fake := newTestAnalyzer(fakeCompletion{content: validAnalysisJSON})

	first, err := analyzer.Analyze(context.Background(), models.NewGoal("team-1", "Build a todo API"))
	if err != nil {
		t.Fatalf("first Analyze() error = %v", err)
	}
	// Same text up to case and whitespace must hit the cache.
	second, err := analyzer.Analyze(context.Background(), models.NewGoal("team-1", "  build a  TODO api "))
	if err != nil {
		t.Fatalf("second Analyze() error = %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("cache miss: got analysis %s, want %s", second.ID, first.ID)
	}
	if fake.calls() != 1 {
		t.Errorf("completions = %d, want 1", fake.calls())
	}
}

func TestAnalyzeDifferentGoalsMissCache(t *testing.T) {
	analyzer, fake := newTestAnalyzer(
		fakeCompletion{content: validAnalysisJSON},
		fakeCompletion{content: validAnalysisJSON},
	)

	if _, err := analyzer.Analyze(context.Background(), models.NewGoal("team-1", "Build a todo API")); err != nil {
		t.Fatalf("first Analyze() error = %v", err)
	}
	if _, err := analyzer.Analyze(context.Background(), models.NewGoal("team-1", "Build a blog engine")); err != nil {
		t.Fatalf("second Analyze() error = %v", err)
	}
	if fake.calls() != 2 {
		t.Errorf("completions = %d, want 2", fake.calls())
	}
}
