package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/strataga/foreman/internal/gateway"
	"github.com/strataga/foreman/internal/prompt"
	"github.com/strataga/foreman/pkg/models"
)

// decomposedTask is the JSON structure the model returns per task.
type decomposedTask struct {
	Title              string   `json:"title" validate:"required"`
	Description        string   `json:"description" validate:"required"`
	AcceptanceCriteria []string `json:"acceptance_criteria" validate:"required,min=3,max=5,dive,required"`
	RequiredSkills     []string `json:"required_skills"`
	Complexity         string   `json:"complexity"`
}

// Decomposer breaks a goal into 5-20 concrete tasks with acceptance criteria.
type Decomposer struct {
	completer Completer
	catalog   *prompt.Catalog
	cfg       AgentConfig
}

// NewDecomposer creates a task decomposer for one team.
func NewDecomposer(completer Completer, catalog *prompt.Catalog, cfg AgentConfig) *Decomposer {
	return &Decomposer{completer: completer, catalog: catalog, cfg: cfg}
}

// Decompose asks the model for tasks and validates the set: 5-20 tasks, each
// with 3-5 acceptance criteria. Response order is preserved in Task.Ordinal
// as a priority hint, not an enforced dependency graph.
func (d *Decomposer) Decompose(ctx context.Context, goal models.Goal, analysis *models.GoalAnalysis) ([]*models.Task, error) {
	tmpl, err := d.catalog.Get(prompt.TemplateTaskDecomposition)
	if err != nil {
		return nil, err
	}

	vars := map[string]string{
		"goal":           goal.Text,
		"core_objective": analysis.CoreObjective,
		"subtasks":       joinList(analysis.Subtasks),
	}
	user, err := tmpl.Render(vars)
	if err != nil {
		return nil, err
	}
	system, err := tmpl.RenderSystem(vars)
	if err != nil {
		return nil, err
	}

	result, err := d.completer.Complete(ctx, gateway.CompletionRequest{
		Model:       d.cfg.Model,
		System:      system,
		Messages:    []gateway.Message{{Role: gateway.RoleUser, Content: user}},
		MaxTokens:   d.cfg.MaxTokens,
		Temperature: d.cfg.Temperature,
		TeamID:      d.cfg.TeamID,
		AgentID:     d.cfg.AgentID,
		AgentType:   models.AgentTypeManager,
	})
	if err != nil {
		return nil, fmt.Errorf("task decomposition completion: %w", err)
	}

	tasks, err := parseTasks(result.Content, goal)
	if err != nil {
		return nil, err
	}

	log.Printf("[manager] decomposed goal %s into %d tasks", goal.ID, len(tasks))
	return tasks, nil
}

// parseTasks parses and validates the model's decomposition response.
func parseTasks(response string, goal models.Goal) ([]*models.Task, error) {
	raw, err := extractJSONArray(response)
	if err != nil {
		return nil, &InvalidTaskSetError{Reason: err.Error()}
	}

	var decomposed []decomposedTask
	if err := json.Unmarshal([]byte(raw), &decomposed); err != nil {
		return nil, &InvalidTaskSetError{Reason: fmt.Sprintf("unmarshal tasks: %v", err)}
	}

	if len(decomposed) < models.MinTaskCount || len(decomposed) > models.MaxTaskCount {
		return nil, &InvalidTaskSetError{
			Reason: fmt.Sprintf("%d tasks (must be %d-%d)", len(decomposed), models.MinTaskCount, models.MaxTaskCount),
		}
	}

	now := time.Now()
	tasks := make([]*models.Task, len(decomposed))
	for i, dt := range decomposed {
		if err := validate.Struct(dt); err != nil {
			return nil, &InvalidTaskSetError{TaskTitle: dt.Title, Reason: err.Error()}
		}

		complexity := models.Complexity(strings.ToLower(dt.Complexity))
		if !complexity.Valid() {
			complexity = models.ComplexityMedium
		}

		tasks[i] = &models.Task{
			ID:                 uuid.New().String(),
			GoalID:             goal.ID,
			TeamID:             goal.TeamID,
			Title:              dt.Title,
			Description:        dt.Description,
			AcceptanceCriteria: dt.AcceptanceCriteria,
			RequiredSkills:     dt.RequiredSkills,
			Complexity:         complexity,
			Status:             models.TaskStatusPending,
			Ordinal:            i,
			Round:              1,
			CreatedAt:          now,
		}
	}

	return tasks, nil
}
