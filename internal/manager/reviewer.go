package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strataga/foreman/internal/gateway"
	"github.com/strataga/foreman/internal/prompt"
	"github.com/strataga/foreman/pkg/models"
)

// reviewedOutput is the JSON structure the model returns for a review.
type reviewedOutput struct {
	Decision string `json:"decision" validate:"required"`
	Feedback string `json:"feedback"`
}

// Reviewer is the review/revision controller: it judges task outputs
// against acceptance criteria and drives the bounded revision loop.
//
// The revision bound is unconditional: any revision request past round 3 is
// downgraded to a rejection, so the loop can never run forever. The bound is
// carried in task data (Task.Round), not in control flow.
type Reviewer struct {
	completer Completer
	catalog   *prompt.Catalog
	cfg       AgentConfig

	// mu serializes reviews per task: round N's decision must be visible
	// before round N+1 begins, and two reviews must never race on the same
	// task-and-round.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewReviewer creates a review controller for one team.
func NewReviewer(completer Completer, catalog *prompt.Catalog, cfg AgentConfig) *Reviewer {
	return &Reviewer{
		completer: completer,
		catalog:   catalog,
		cfg:       cfg,
		locks:     make(map[string]*sync.Mutex),
	}
}

// taskLock returns the serialization lock for one task.
func (r *Reviewer) taskLock(taskID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.locks[taskID]; !ok {
		r.locks[taskID] = &sync.Mutex{}
	}
	return r.locks[taskID]
}

// Review judges the output for the task's current round and applies the
// resulting state transition. Exactly one TaskReview is returned per call;
// the caller appends it to the task's immutable history.
func (r *Reviewer) Review(ctx context.Context, task *models.Task, output *models.TaskOutput) (*models.TaskReview, error) {
	lock := r.taskLock(task.ID)
	lock.Lock()
	defer lock.Unlock()

	if task.Status != models.TaskStatusUnderReview {
		return nil, fmt.Errorf("task %s is %s, not under review", task.ID, task.Status)
	}

	decision, feedback, promptVersion, err := r.judge(ctx, task, output)
	if err != nil {
		return nil, err
	}

	return r.apply(task, output, decision, feedback, promptVersion)
}

// judge performs the LLM review call and parses the decision.
func (r *Reviewer) judge(ctx context.Context, task *models.Task, output *models.TaskOutput) (models.ReviewDecision, string, string, error) {
	tmpl, err := r.catalog.Get(prompt.TemplateTaskReview)
	if err != nil {
		return "", "", "", err
	}

	vars := map[string]string{
		"title":               task.Title,
		"acceptance_criteria": bulletList(task.AcceptanceCriteria),
		"round":               fmt.Sprintf("%d", task.Round),
		"max_rounds":          fmt.Sprintf("%d", models.MaxRevisionRounds),
		"output":              output.Content,
	}
	user, err := tmpl.Render(vars)
	if err != nil {
		return "", "", "", err
	}
	system, err := tmpl.RenderSystem(vars)
	if err != nil {
		return "", "", "", err
	}

	result, err := r.completer.Complete(ctx, gateway.CompletionRequest{
		Model:       r.cfg.Model,
		System:      system,
		Messages:    []gateway.Message{{Role: gateway.RoleUser, Content: user}},
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
		TeamID:      r.cfg.TeamID,
		AgentID:     r.cfg.AgentID,
		AgentType:   models.AgentTypeManager,
	})
	if err != nil {
		return "", "", "", fmt.Errorf("review completion: %w", err)
	}

	raw, err := extractJSONObject(result.Content)
	if err != nil {
		return "", "", "", fmt.Errorf("parse review response: %w", err)
	}
	var parsed reviewedOutput
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return "", "", "", fmt.Errorf("unmarshal review response: %w", err)
	}

	decision := models.ReviewDecision(parsed.Decision)
	if !decision.Valid() {
		return "", "", "", fmt.Errorf("unknown review decision %q", parsed.Decision)
	}

	return decision, parsed.Feedback, tmpl.Version, nil
}

// apply enforces preconditions, the revision bound, and the state machine,
// then materializes the review record. Feedback is checked before any state
// mutation so a precondition violation leaves the task untouched.
func (r *Reviewer) apply(task *models.Task, output *models.TaskOutput, decision models.ReviewDecision, feedback, promptVersion string) (*models.TaskReview, error) {
	forced := false
	if decision == models.DecisionRequestRevision && task.Round > models.MaxRevisionRounds {
		decision = models.DecisionReject
		forced = true
		if feedback == "" {
			feedback = "revision limit reached"
		}
		feedback = fmt.Sprintf("revision rounds exhausted (%d used): %s", models.MaxRevisionRounds, feedback)
		log.Printf("[reviewer] task %s round %d: revision request forced to reject", task.ID, task.Round)
	}

	if decision != models.DecisionApprove && feedback == "" {
		return nil, fmt.Errorf("%w: decision %s on task %s", ErrMissingFeedback, decision, task.ID)
	}

	review := &models.TaskReview{
		ID:            uuid.New().String(),
		TaskID:        task.ID,
		OutputID:      output.ID,
		Round:         task.Round,
		Decision:      decision,
		Feedback:      feedback,
		Forced:        forced,
		PromptVersion: promptVersion,
		CreatedAt:     time.Now(),
	}

	switch decision {
	case models.DecisionApprove:
		if err := task.Transition(models.TaskStatusApproved); err != nil {
			return nil, err
		}
	case models.DecisionReject:
		if err := task.Transition(models.TaskStatusRejected); err != nil {
			return nil, err
		}
	case models.DecisionRequestRevision:
		if err := task.Transition(models.TaskStatusRevising); err != nil {
			return nil, err
		}
		task.Round++
	}

	log.Printf("[reviewer] task %s round %d: %s", task.ID, review.Round, decision)
	return review, nil
}

// RejectSystemic terminates a task that exhausted its execution retries,
// without consulting the model. The task may be in any non-terminal state.
func (r *Reviewer) RejectSystemic(task *models.Task, reason string) (*models.TaskReview, error) {
	lock := r.taskLock(task.ID)
	lock.Lock()
	defer lock.Unlock()

	if task.Status.Terminal() {
		return nil, fmt.Errorf("task %s already terminal (%s)", task.ID, task.Status)
	}
	if err := task.Transition(models.TaskStatusRejected); err != nil {
		return nil, err
	}

	review := &models.TaskReview{
		ID:        uuid.New().String(),
		TaskID:    task.ID,
		Round:     task.Round,
		Decision:  models.DecisionReject,
		Feedback:  fmt.Sprintf("systemic failure: %s", reason),
		Forced:    true,
		CreatedAt: time.Now(),
	}
	log.Printf("[reviewer] task %s rejected systemically: %s", task.ID, reason)
	return review, nil
}
