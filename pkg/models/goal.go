// Package models defines the core domain entities shared across Foreman:
// goals, analyses, worker specifications, tasks, reviews, and usage records.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Goal is the immutable user-supplied objective driving one orchestration run.
type Goal struct {
	// ID is the unique identifier for this goal.
	ID string `json:"id"`
	// TeamID is the team this goal belongs to.
	TeamID string `json:"team_id"`
	// Text is the natural-language objective. Never mutated after creation.
	Text string `json:"text"`
	// CreatedAt is when the goal was submitted.
	CreatedAt time.Time `json:"created_at"`
}

// NewGoal creates a Goal for the given team.
func NewGoal(teamID, text string) Goal {
	return Goal{
		ID:        uuid.New().String(),
		TeamID:    teamID,
		Text:      text,
		CreatedAt: time.Now(),
	}
}

// Fingerprint returns the normalized cache key for the goal text:
// trimmed, lowercased, with runs of whitespace collapsed to single spaces.
// Identical rephrasings of a goal for different teams deliberately do not
// collide because analysis caches are keyed per team.
func (g Goal) Fingerprint() string {
	return NormalizeGoalText(g.Text)
}

// NormalizeGoalText normalizes goal text for exact-match caching.
func NormalizeGoalText(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// GoalAnalysis is the structured breakdown of a goal produced by the
// manager's goal analysis. Immutable after creation.
type GoalAnalysis struct {
	// ID is the unique identifier for this analysis.
	ID string `json:"id"`
	// GoalID references the analyzed goal.
	GoalID string `json:"goal_id"`
	// TeamID is the team the analysis was produced for.
	TeamID string `json:"team_id"`
	// CoreObjective is a one-sentence statement of what the goal achieves.
	CoreObjective string `json:"core_objective" validate:"required"`
	// Subtasks is the ordered list of work items the goal breaks into.
	Subtasks []string `json:"subtasks" validate:"required,min=1,dive,required"`
	// RequiredSpecializations lists the worker specializations needed.
	RequiredSpecializations []string `json:"required_specializations" validate:"required,min=1,dive,required"`
	// EstimatedTimelineHours is the model's timeline estimate, if any.
	EstimatedTimelineHours float64 `json:"estimated_timeline_hours,omitempty" validate:"omitempty,gt=0"`
	// PotentialBlockers lists risks the model identified.
	PotentialBlockers []string `json:"potential_blockers,omitempty"`
	// SuccessCriteria lists how goal completion is judged.
	SuccessCriteria []string `json:"success_criteria" validate:"required,min=1,dive,required"`
	// PromptVersion records the prompt catalog version used, for reproducibility.
	PromptVersion string `json:"prompt_version,omitempty"`
	// CreatedAt is when the analysis was produced.
	CreatedAt time.Time `json:"created_at"`
}
