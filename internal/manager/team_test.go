package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/strataga/foreman/internal/prompt"
	"github.com/strataga/foreman/pkg/models"
)

func teamJSON(specializations ...string) string {
	type worker struct {
		Specialization   string   `json:"specialization"`
		Skills           []string `json:"skills"`
		Responsibilities []string `json:"responsibilities"`
		RequiredTools    []string `json:"required_tools"`
	}
	workers := make([]worker, len(specializations))
	for i, s := range specializations {
		workers[i] = worker{
			Specialization:   s,
			Skills:           []string{"go", "sql"},
			Responsibilities: []string{fmt.Sprintf("own the %s area", s)},
			RequiredTools:    []string{"editor"},
		}
	}
	raw, _ := json.Marshal(workers)
	return string(raw)
}

func testAnalysis() *models.GoalAnalysis {
	return &models.GoalAnalysis{
		ID:                      "analysis-1",
		GoalID:                  "goal-1",
		TeamID:                  "team-1",
		CoreObjective:           "Ship a todo API",
		Subtasks:                []string{"design schema", "implement endpoints"},
		RequiredSpecializations: []string{"backend-developer"},
		SuccessCriteria:         []string{"tests pass"},
	}
}

func newTestFormer(responses ...fakeCompletion) (*TeamFormer, *fakeCompleter) {
	fake := &fakeCompleter{responses: responses}
	return NewTeamFormer(fake, prompt.NewCatalog(), testAgentConfig()), fake
}

func TestFormTeamAcceptsValidSizes(t *testing.T) {
	for _, size := range []int{3, 4, 5} {
		specializations := make([]string, size)
		for i := range specializations {
			specializations[i] = fmt.Sprintf("specialist-%d", i)
		}
		former, _ := newTestFormer(fakeCompletion{content: teamJSON(specializations...)})

		specs, err := former.FormTeam(context.Background(), models.NewGoal("team-1", "Build it"), testAnalysis())
		if err != nil {
			t.Errorf("FormTeam() with %d workers: error = %v", size, err)
			continue
		}
		if len(specs) != size {
			t.Errorf("FormTeam() returned %d specs, want %d", len(specs), size)
		}
	}
}

func TestFormTeamRejectsOutOfRangeSizes(t *testing.T) {
	for _, size := range []int{0, 1, 2, 6, 8} {
		specializations := make([]string, size)
		for i := range specializations {
			specializations[i] = fmt.Sprintf("specialist-%d", i)
		}
		former, _ := newTestFormer(fakeCompletion{content: teamJSON(specializations...)})

		_, err := former.FormTeam(context.Background(), models.NewGoal("team-1", "Build it"), testAnalysis())
		var serr *InvalidTeamSizeError
		if !errors.As(err, &serr) {
			t.Errorf("FormTeam() with %d workers: error = %v, want *InvalidTeamSizeError", size, err)
			continue
		}
		if serr.Count != size {
			t.Errorf("InvalidTeamSizeError.Count = %d, want %d", serr.Count, size)
		}
	}
}

func TestFormTeamRejectsDuplicateSpecializations(t *testing.T) {
	former, _ := newTestFormer(fakeCompletion{
		content: teamJSON("backend-developer", "qa-engineer", "backend-developer"),
	})

	_, err := former.FormTeam(context.Background(), models.NewGoal("team-1", "Build it"), testAnalysis())
	var terr *InvalidTeamError
	if !errors.As(err, &terr) {
		t.Fatalf("FormTeam() error = %v, want *InvalidTeamError", err)
	}
	if terr.Specialization != "backend-developer" {
		t.Errorf("InvalidTeamError.Specialization = %q, want %q", terr.Specialization, "backend-developer")
	}
}

func TestFormTeamRejectsMalformedSpecializationTokens(t *testing.T) {
	for _, bad := range []string{"Backend Developer", "backend_dev", "-leading", "trailing-", "UPPER"} {
		former, _ := newTestFormer(fakeCompletion{
			content: teamJSON(bad, "qa-engineer", "tech-writer"),
		})

		_, err := former.FormTeam(context.Background(), models.NewGoal("team-1", "Build it"), testAnalysis())
		var terr *InvalidTeamError
		if !errors.As(err, &terr) {
			t.Errorf("FormTeam() with specialization %q: error = %v, want *InvalidTeamError", bad, err)
		}
	}
}

func TestFormTeamPreservesResponseOrderInCreatedAt(t *testing.T) {
	former, _ := newTestFormer(fakeCompletion{
		content: teamJSON("backend-developer", "qa-engineer", "tech-writer"),
	})

	specs, err := former.FormTeam(context.Background(), models.NewGoal("team-1", "Build it"), testAnalysis())
	if err != nil {
		t.Fatalf("FormTeam() error = %v", err)
	}
	for i := 1; i < len(specs); i++ {
		if !specs[i-1].CreatedAt.Before(specs[i].CreatedAt) {
			t.Errorf("specs[%d].CreatedAt not before specs[%d].CreatedAt", i-1, i)
		}
	}
}

func TestFormTeamExtractsArrayFromProse(t *testing.T) {
	former, _ := newTestFormer(fakeCompletion{
		content: "Here is the team:\n" + teamJSON("backend-developer", "qa-engineer", "tech-writer") + "\nLet me know.",
	})

	specs, err := former.FormTeam(context.Background(), models.NewGoal("team-1", "Build it"), testAnalysis())
	if err != nil {
		t.Fatalf("FormTeam() error = %v", err)
	}
	if len(specs) != 3 {
		t.Errorf("FormTeam() returned %d specs, want 3", len(specs))
	}
}
