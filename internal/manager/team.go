package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/strataga/foreman/internal/gateway"
	"github.com/strataga/foreman/internal/prompt"
	"github.com/strataga/foreman/pkg/models"
)

// formedWorker is the JSON structure the model returns per worker.
type formedWorker struct {
	Specialization   string   `json:"specialization" validate:"required"`
	Skills           []string `json:"skills" validate:"required,min=1,dive,required"`
	Responsibilities []string `json:"responsibilities" validate:"required,min=1,dive,required"`
	RequiredTools    []string `json:"required_tools"`
}

// TeamFormer produces 3-5 worker specifications from a goal analysis.
// Out-of-range responses fail hard; the caller re-invokes with a stricter
// prompt rather than fabricating or truncating workers.
type TeamFormer struct {
	completer Completer
	catalog   *prompt.Catalog
	cfg       AgentConfig
}

// NewTeamFormer creates a team formation engine for one team.
func NewTeamFormer(completer Completer, catalog *prompt.Catalog, cfg AgentConfig) *TeamFormer {
	return &TeamFormer{completer: completer, catalog: catalog, cfg: cfg}
}

// FormTeam asks the model for worker specifications and validates the set:
// 3-5 workers, well-formed pairwise-distinct specialization tokens.
func (f *TeamFormer) FormTeam(ctx context.Context, goal models.Goal, analysis *models.GoalAnalysis) ([]models.WorkerSpecification, error) {
	tmpl, err := f.catalog.Get(prompt.TemplateTeamFormation)
	if err != nil {
		return nil, err
	}

	vars := map[string]string{
		"goal":            goal.Text,
		"core_objective":  analysis.CoreObjective,
		"subtasks":        joinList(analysis.Subtasks),
		"specializations": joinList(analysis.RequiredSpecializations),
	}
	user, err := tmpl.Render(vars)
	if err != nil {
		return nil, err
	}
	system, err := tmpl.RenderSystem(vars)
	if err != nil {
		return nil, err
	}

	result, err := f.completer.Complete(ctx, gateway.CompletionRequest{
		Model:       f.cfg.Model,
		System:      system,
		Messages:    []gateway.Message{{Role: gateway.RoleUser, Content: user}},
		MaxTokens:   f.cfg.MaxTokens,
		Temperature: f.cfg.Temperature,
		TeamID:      f.cfg.TeamID,
		AgentID:     f.cfg.AgentID,
		AgentType:   models.AgentTypeManager,
	})
	if err != nil {
		return nil, fmt.Errorf("team formation completion: %w", err)
	}

	specs, err := parseTeam(result.Content, f.cfg.TeamID)
	if err != nil {
		return nil, err
	}

	log.Printf("[manager] formed team of %d workers for goal %s", len(specs), goal.ID)
	return specs, nil
}

// parseTeam parses and validates the model's team formation response.
func parseTeam(response, teamID string) ([]models.WorkerSpecification, error) {
	raw, err := extractJSONArray(response)
	if err != nil {
		return nil, &InvalidTeamError{Reason: err.Error()}
	}

	var workers []formedWorker
	if err := json.Unmarshal([]byte(raw), &workers); err != nil {
		return nil, &InvalidTeamError{Reason: fmt.Sprintf("unmarshal team: %v", err)}
	}

	if len(workers) < models.MinTeamSize || len(workers) > models.MaxTeamSize {
		return nil, &InvalidTeamSizeError{Count: len(workers)}
	}

	seen := make(map[string]bool, len(workers))
	now := time.Now()
	specs := make([]models.WorkerSpecification, 0, len(workers))

	for i, w := range workers {
		if err := validate.Struct(w); err != nil {
			return nil, &InvalidTeamError{Specialization: w.Specialization, Reason: err.Error()}
		}
		if !models.ValidSpecialization(w.Specialization) {
			return nil, &InvalidTeamError{
				Specialization: w.Specialization,
				Reason:         "specialization must be a lowercase-hyphenated token",
			}
		}
		if seen[w.Specialization] {
			return nil, &InvalidTeamError{
				Specialization: w.Specialization,
				Reason:         "duplicate specialization in team",
			}
		}
		seen[w.Specialization] = true

		specs = append(specs, models.WorkerSpecification{
			ID:               uuid.New().String(),
			TeamID:           teamID,
			Specialization:   w.Specialization,
			Skills:           w.Skills,
			Responsibilities: w.Responsibilities,
			RequiredTools:    w.RequiredTools,
			// Nanosecond offsets keep creation order stable for selection
			// tie-breaking even when formation happens in one instant.
			CreatedAt: now.Add(time.Duration(i) * time.Nanosecond),
		})
	}

	return specs, nil
}
