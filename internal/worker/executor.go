package worker

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/strataga/foreman/internal/gateway"
	"github.com/strataga/foreman/internal/prompt"
	"github.com/strataga/foreman/pkg/models"
)

// Completer is the slice of the gateway the executor depends on. Tests
// inject scripted fakes; production wires *gateway.Gateway.
type Completer interface {
	Complete(ctx context.Context, req gateway.CompletionRequest) (*gateway.CompletionResult, error)
}

// Config carries the model parameters shared by worker calls.
type Config struct {
	// TeamID is the team all calls are attributed to.
	TeamID string
	// Model is the model name used for worker calls.
	Model string
	// MaxTokens bounds each completion.
	MaxTokens int64
	// Temperature is the sampling temperature for worker calls.
	Temperature float64
}

// Revision carries the prior output and reviewer feedback when a task comes
// back for another round.
type Revision struct {
	Output   *models.TaskOutput
	Feedback string
}

// Executor runs tasks through worker agents. Each execution is one
// completion under the worker's specialization persona; revisions continue
// the same conversation with the reviewer's feedback.
type Executor struct {
	completer Completer
	catalog   *prompt.Catalog
	cfg       Config
}

// NewExecutor creates a task executor for one team.
func NewExecutor(completer Completer, catalog *prompt.Catalog, cfg Config) *Executor {
	return &Executor{completer: completer, catalog: catalog, cfg: cfg}
}

// Execute runs the task on its assigned worker and returns the produced
// output. The task must be Assigned (first round) or Revising (later rounds).
// On success the task is left UnderReview; on transport failure the task is
// re-queued to Pending with its failure count incremented. The caller is
// responsible for releasing the worker.
func (e *Executor) Execute(ctx context.Context, w *models.WorkerAgent, spec models.WorkerSpecification, task *models.Task, rev *Revision) (*models.TaskOutput, error) {
	if task.AssignedWorkerID != w.ID {
		return nil, fmt.Errorf("task %s is assigned to %q, not %s", task.ID, task.AssignedWorkerID, w.ID)
	}
	if err := task.Transition(models.TaskStatusInProgress); err != nil {
		return nil, err
	}

	system, messages, err := e.buildPrompt(spec, task, rev)
	if err != nil {
		return nil, err
	}

	result, err := e.completer.Complete(ctx, gateway.CompletionRequest{
		Model:       e.cfg.Model,
		System:      system,
		Messages:    messages,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
		TeamID:      e.cfg.TeamID,
		AgentID:     w.ID,
		AgentType:   models.AgentTypeWorker,
	})
	if err != nil {
		e.requeue(task)
		return nil, fmt.Errorf("task execution: %w", err)
	}

	if err := task.Transition(models.TaskStatusUnderReview); err != nil {
		return nil, err
	}

	output := &models.TaskOutput{
		ID:         uuid.New().String(),
		TaskID:     task.ID,
		WorkerID:   w.ID,
		Content:    result.Content,
		Round:      task.Round,
		ProducedAt: time.Now(),
	}
	log.Printf("[worker] %s (%s) produced output for task %s round %d", w.ID, w.Specialization, task.ID, task.Round)
	return output, nil
}

// buildPrompt renders the execution conversation. A revision continues the
// prior exchange so the worker sees its own output alongside the feedback.
func (e *Executor) buildPrompt(spec models.WorkerSpecification, task *models.Task, rev *Revision) (string, []gateway.Message, error) {
	tmpl, err := e.catalog.Get(prompt.TemplateTaskExecution)
	if err != nil {
		return "", nil, err
	}

	vars := map[string]string{
		"specialization":      spec.Specialization,
		"skills":              strings.Join(spec.Skills, ", "),
		"responsibilities":    strings.Join(spec.Responsibilities, ", "),
		"tools":               strings.Join(spec.RequiredTools, ", "),
		"title":               task.Title,
		"description":         task.Description,
		"acceptance_criteria": criteriaList(task.AcceptanceCriteria),
	}
	system, err := tmpl.RenderSystem(vars)
	if err != nil {
		return "", nil, err
	}
	user, err := tmpl.Render(vars)
	if err != nil {
		return "", nil, err
	}

	messages := []gateway.Message{{Role: gateway.RoleUser, Content: user}}
	if rev != nil {
		messages = append(messages,
			gateway.Message{Role: gateway.RoleAssistant, Content: rev.Output.Content},
			gateway.Message{Role: gateway.RoleUser, Content: "Your output needs revision. Reviewer feedback:\n" + rev.Feedback + "\n\nProduce the full revised deliverable."},
		)
	}
	return system, messages, nil
}

// requeue returns a failed task to the pending queue. The caller releases
// the worker; task and worker bookkeeping run under different owners.
func (e *Executor) requeue(task *models.Task) {
	task.ExecutionFailures++
	if err := task.Transition(models.TaskStatusPending); err != nil {
		log.Printf("[worker] requeue of task %s failed: %v", task.ID, err)
		return
	}
	task.AssignedWorkerID = ""
	log.Printf("[worker] task %s re-queued after %d execution failure(s)", task.ID, task.ExecutionFailures)
}

// criteriaList renders acceptance criteria as bullet lines.
func criteriaList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}
