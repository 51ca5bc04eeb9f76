package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/strataga/foreman/internal/gateway"
	"github.com/strataga/foreman/internal/prompt"
	"github.com/strataga/foreman/pkg/models"
)

// analyzedGoal is the JSON structure the model returns for goal analysis.
type analyzedGoal struct {
	CoreObjective           string   `json:"core_objective" validate:"required"`
	Subtasks                []string `json:"subtasks" validate:"required,min=1,dive,required"`
	RequiredSpecializations []string `json:"required_specializations" validate:"required,min=1,dive,required"`
	EstimatedTimelineHours  float64  `json:"estimated_timeline_hours" validate:"omitempty,gt=0"`
	PotentialBlockers       []string `json:"potential_blockers"`
	SuccessCriteria         []string `json:"success_criteria" validate:"required,min=1,dive,required"`
}

// Analyzer turns a natural-language goal into a validated GoalAnalysis.
// Identical goal text reuses a prior analysis; the cache is keyed per team
// by normalized goal text, so rephrasing for another team never collides.
type Analyzer struct {
	completer Completer
	catalog   *prompt.Catalog
	cfg       AgentConfig

	mu    sync.Mutex
	cache map[string]*models.GoalAnalysis // fingerprint -> analysis
}

// AgentConfig carries the model parameters shared by manager calls.
type AgentConfig struct {
	// TeamID is the team all calls are attributed to.
	TeamID string
	// AgentID identifies the manager for usage records.
	AgentID string
	// Model is the model name used for manager calls.
	Model string
	// MaxTokens bounds each completion.
	MaxTokens int64
	// Temperature is the sampling temperature for manager calls.
	Temperature float64
}

// NewAnalyzer creates a goal analyzer for one team.
func NewAnalyzer(completer Completer, catalog *prompt.Catalog, cfg AgentConfig) *Analyzer {
	return &Analyzer{
		completer: completer,
		catalog:   catalog,
		cfg:       cfg,
		cache:     make(map[string]*models.GoalAnalysis),
	}
}

// Analyze produces a GoalAnalysis for the goal, or a typed error. The result
// is always fully populated: a response missing any required field fails
// validation and is retried once before surfacing InvalidAnalysisError.
func (a *Analyzer) Analyze(ctx context.Context, goal models.Goal) (*models.GoalAnalysis, error) {
	fingerprint := goal.Fingerprint()

	a.mu.Lock()
	if cached, ok := a.cache[fingerprint]; ok {
		a.mu.Unlock()
		log.Printf("[analyzer] cache hit for goal %s", goal.ID)
		return cached, nil
	}
	a.mu.Unlock()

	analysis, err := a.analyzeOnce(ctx, goal)
	if err != nil {
		// One whole-call retry on validation failure, distinct from the
		// gateway's transport retries.
		var ierr *InvalidAnalysisError
		if !errors.As(err, &ierr) {
			return nil, err
		}
		log.Printf("[analyzer] invalid analysis for goal %s, retrying once: %v", goal.ID, err)
		analysis, err = a.analyzeOnce(ctx, goal)
		if err != nil {
			return nil, err
		}
	}

	a.mu.Lock()
	a.cache[fingerprint] = analysis
	a.mu.Unlock()

	return analysis, nil
}

func (a *Analyzer) analyzeOnce(ctx context.Context, goal models.Goal) (*models.GoalAnalysis, error) {
	tmpl, err := a.catalog.Get(prompt.TemplateGoalAnalysis)
	if err != nil {
		return nil, err
	}

	vars := map[string]string{"goal": goal.Text}
	user, err := tmpl.Render(vars)
	if err != nil {
		return nil, err
	}
	system, err := tmpl.RenderSystem(vars)
	if err != nil {
		return nil, err
	}

	result, err := a.completer.Complete(ctx, gateway.CompletionRequest{
		Model:       a.cfg.Model,
		System:      system,
		Messages:    []gateway.Message{{Role: gateway.RoleUser, Content: user}},
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
		TeamID:      a.cfg.TeamID,
		AgentID:     a.cfg.AgentID,
		AgentType:   models.AgentTypeManager,
	})
	if err != nil {
		return nil, fmt.Errorf("goal analysis completion: %w", err)
	}

	return parseAnalysis(result.Content, goal, tmpl.Version)
}

// parseAnalysis parses and validates the model's analysis response.
func parseAnalysis(response string, goal models.Goal, promptVersion string) (*models.GoalAnalysis, error) {
	raw, err := extractJSONObject(response)
	if err != nil {
		return nil, &InvalidAnalysisError{Err: err}
	}

	var parsed analyzedGoal
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &InvalidAnalysisError{Err: fmt.Errorf("unmarshal analysis: %w", err)}
	}

	if err := validate.Struct(parsed); err != nil {
		return nil, &InvalidAnalysisError{Field: firstFailedField(err), Err: err}
	}

	return &models.GoalAnalysis{
		ID:                      uuid.New().String(),
		GoalID:                  goal.ID,
		TeamID:                  goal.TeamID,
		CoreObjective:           parsed.CoreObjective,
		Subtasks:                parsed.Subtasks,
		RequiredSpecializations: parsed.RequiredSpecializations,
		EstimatedTimelineHours:  parsed.EstimatedTimelineHours,
		PotentialBlockers:       parsed.PotentialBlockers,
		SuccessCriteria:         parsed.SuccessCriteria,
		PromptVersion:           promptVersion,
		CreatedAt:               time.Now(),
	}, nil
}

// firstFailedField extracts the first offending field from validator errors.
func firstFailedField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}
