package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strataga/foreman/internal/manager"
	"github.com/strataga/foreman/internal/prompt"
	"github.com/strataga/foreman/internal/worker"
	"github.com/strataga/foreman/pkg/models"
)

// Config carries the model parameters for one orchestration run.
type Config struct {
	// TeamID identifies the team; generated when empty.
	TeamID string
	// ManagerModel serves analysis, formation, decomposition, and review.
	ManagerModel string
	// WorkerModel serves task execution.
	WorkerModel string
	// ManagerMaxTokens bounds manager completions.
	ManagerMaxTokens int64
	// WorkerMaxTokens bounds worker completions.
	WorkerMaxTokens int64
	// ManagerTemperature is the sampling temperature for manager calls.
	ManagerTemperature float64
	// WorkerTemperature is the sampling temperature for worker calls.
	WorkerTemperature float64
}

// RunResult summarizes one completed (or stopped) goal run.
type RunResult struct {
	Goal     models.Goal
	Analysis *models.GoalAnalysis
	Specs    []models.WorkerSpecification
	Workers  []*models.WorkerAgent
	Tasks    []*models.Task
	Outputs  []*models.TaskOutput
	Reviews  []models.TaskReview
	Approved int
	Rejected int
	// Stopped is true when the run ended on an external stop signal or
	// context cancellation before every task terminated.
	Stopped bool
}

// Orchestrator drives one goal through the full manager/worker pipeline:
// analyze, form the team and decompose in parallel, then run the assign/
// execute/review loop until every task terminates.
type Orchestrator struct {
	teamID     string
	analyzer   *manager.Analyzer
	former     *manager.TeamFormer
	decomposer *manager.Decomposer
	reviewer   *manager.Reviewer
	executor   *worker.Executor
	opts       orchestratorOptions
	events     chan Event

	// mu guards worker and dispatch bookkeeping during the run loop.
	// LLM calls never happen under it.
	mu   sync.Mutex
	cond *sync.Cond
}

// New creates an orchestrator over the given completion backend.
func New(completer manager.Completer, catalog *prompt.Catalog, cfg Config, opts ...Option) *Orchestrator {
	options := orchestratorOptions{executionRetryCap: defaultExecutionRetryCap}
	for _, opt := range opts {
		opt(&options)
	}

	teamID := cfg.TeamID
	if teamID == "" {
		teamID = uuid.New().String()
	}

	managerCfg := manager.AgentConfig{
		TeamID:      teamID,
		AgentID:     "manager-" + teamID,
		Model:       cfg.ManagerModel,
		MaxTokens:   cfg.ManagerMaxTokens,
		Temperature: cfg.ManagerTemperature,
	}
	workerCfg := worker.Config{
		TeamID:      teamID,
		Model:       cfg.WorkerModel,
		MaxTokens:   cfg.WorkerMaxTokens,
		Temperature: cfg.WorkerTemperature,
	}

	o := &Orchestrator{
		teamID:     teamID,
		analyzer:   manager.NewAnalyzer(completer, catalog, managerCfg),
		former:     manager.NewTeamFormer(completer, catalog, managerCfg),
		decomposer: manager.NewDecomposer(completer, catalog, managerCfg),
		reviewer:   manager.NewReviewer(completer, catalog, managerCfg),
		executor:   worker.NewExecutor(completer, catalog, workerCfg),
		opts:       options,
		events:     options.events,
	}
	o.cond = sync.NewCond(&o.mu)
	return o
}

// TeamID returns the team identifier for this orchestrator.
func (o *Orchestrator) TeamID() string {
	return o.teamID
}

// Run executes the full pipeline for one goal.
func (o *Orchestrator) Run(ctx context.Context, goalText string) (*RunResult, error) {
	goal := models.NewGoal(o.teamID, goalText)
	o.persistGoal(goal)
	log.Printf("[orchestrator] run started for goal %s (team %s)", goal.ID, o.teamID)

	analysis, err := o.analyzer.Analyze(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("analyze goal: %w", err)
	}
	o.persistAnalysis(analysis)
	o.emit(Event{Type: EventGoalAnalyzed, Message: analysis.CoreObjective})

	specs, tasks, err := o.planTeamAndTasks(ctx, goal, analysis)
	if err != nil {
		return nil, err
	}

	workers := make([]*models.WorkerAgent, len(specs))
	specsByWorker := make(map[string]models.WorkerSpecification, len(specs))
	for i := range specs {
		w := models.NewWorkerAgent(specs[i])
		specs[i].AssignedWorkerID = w.ID
		workers[i] = w
		specsByWorker[w.ID] = specs[i]
		o.persistSpec(specs[i])
	}
	o.emit(Event{Type: EventTeamFormed, Message: fmt.Sprintf("%d workers", len(workers))})

	for _, task := range tasks {
		o.persistTask(task)
	}
	o.emit(Event{Type: EventTasksDecomposed, Message: fmt.Sprintf("%d tasks", len(tasks))})

	result := &RunResult{
		Goal:     goal,
		Analysis: analysis,
		Specs:    specs,
		Workers:  workers,
		Tasks:    tasks,
	}

	o.runTasks(ctx, result, specsByWorker)

	for _, task := range tasks {
		switch task.Status {
		case models.TaskStatusApproved:
			result.Approved++
		case models.TaskStatusRejected:
			result.Rejected++
		}
	}

	if result.Stopped {
		o.emit(Event{Type: EventRunStopped, Message: fmt.Sprintf("%d approved, %d rejected", result.Approved, result.Rejected)})
		log.Printf("[orchestrator] run stopped for goal %s: %d approved, %d rejected", goal.ID, result.Approved, result.Rejected)
	} else {
		o.emit(Event{Type: EventRunCompleted, Message: fmt.Sprintf("%d approved, %d rejected", result.Approved, result.Rejected)})
		log.Printf("[orchestrator] run completed for goal %s: %d approved, %d rejected", goal.ID, result.Approved, result.Rejected)
	}
	return result, nil
}

// planTeamAndTasks forms the team and decomposes the goal concurrently; the
// two calls are independent reads of the same analysis.
func (o *Orchestrator) planTeamAndTasks(ctx context.Context, goal models.Goal, analysis *models.GoalAnalysis) ([]models.WorkerSpecification, []*models.Task, error) {
	var (
		specs     []models.WorkerSpecification
		tasks     []*models.Task
		formErr   error
		decompErr error
		wg        sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		specs, formErr = o.formTeam(ctx, goal, analysis)
	}()
	go func() {
		defer wg.Done()
		tasks, decompErr = o.decompose(ctx, goal, analysis)
	}()
	wg.Wait()

	if formErr != nil {
		return nil, nil, fmt.Errorf("form team: %w", formErr)
	}
	if decompErr != nil {
		return nil, nil, fmt.Errorf("decompose goal: %w", decompErr)
	}
	return specs, tasks, nil
}

// formTeam retries once when the model returns a structurally invalid team.
func (o *Orchestrator) formTeam(ctx context.Context, goal models.Goal, analysis *models.GoalAnalysis) ([]models.WorkerSpecification, error) {
	specs, err := o.former.FormTeam(ctx, goal, analysis)
	if err != nil && invalidTeam(err) {
		log.Printf("[orchestrator] invalid team for goal %s, retrying once: %v", goal.ID, err)
		specs, err = o.former.FormTeam(ctx, goal, analysis)
	}
	return specs, err
}

// decompose retries once when the model returns a structurally invalid task set.
func (o *Orchestrator) decompose(ctx context.Context, goal models.Goal, analysis *models.GoalAnalysis) ([]*models.Task, error) {
	tasks, err := o.decomposer.Decompose(ctx, goal, analysis)
	if err != nil && invalidTaskSet(err) {
		log.Printf("[orchestrator] invalid task set for goal %s, retrying once: %v", goal.ID, err)
		tasks, err = o.decomposer.Decompose(ctx, goal, analysis)
	}
	return tasks, err
}

func invalidTeam(err error) bool {
	var sizeErr *manager.InvalidTeamSizeError
	var teamErr *manager.InvalidTeamError
	return errors.As(err, &sizeErr) || errors.As(err, &teamErr)
}

func invalidTaskSet(err error) bool {
	var setErr *manager.InvalidTaskSetError
	return errors.As(err, &setErr)
}

// runTasks is the dispatch loop: assign pending tasks to idle eligible
// workers, run execute/review cycles concurrently, and wait out the last
// in-flight task before returning.
func (o *Orchestrator) runTasks(ctx context.Context, result *RunResult, specsByWorker map[string]models.WorkerSpecification) {
	// Wake the dispatch loop on cancellation and on stop-signal polls.
	runDone := make(chan struct{})
	defer close(runDone)
	go func() {
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-runDone:
				return
			case <-ctx.Done():
				o.cond.Broadcast()
				return
			case <-ticker.C:
				o.cond.Broadcast()
			}
		}
	}()

	o.mu.Lock()
	defer o.mu.Unlock()

	// Tasks nobody on the team can handle fail closed immediately.
	for _, task := range result.Tasks {
		if task.Status != models.TaskStatusPending {
			continue
		}
		if !anyWorkerCanHandle(result.Workers, task) {
			o.rejectLocked(result, task, "no worker on the team covers the required skills")
		}
	}

	dispatched := make(map[string]bool)
	inflight := 0

	for {
		if ctx.Err() != nil || o.shouldStop() {
			result.Stopped = true
			break
		}

		remaining := false
		launched := false
		for _, task := range result.Tasks {
			if dispatched[task.ID] {
				remaining = true
				continue
			}
			if task.Status != models.TaskStatusPending {
				continue
			}
			remaining = true

			w, err := worker.Select(result.Workers, task)
			if err != nil {
				// Eligible workers exist but are busy; wait for one.
				continue
			}
			if err := worker.Assign(task, w); err != nil {
				log.Printf("[orchestrator] assign task %s: %v", task.ID, err)
				continue
			}
			o.persistTask(task)
			o.emit(Event{Type: EventTaskAssigned, TaskID: task.ID, TaskTitle: task.Title, WorkerID: w.ID})

			dispatched[task.ID] = true
			inflight++
			launched = true
			go func(task *models.Task, w *models.WorkerAgent) {
				o.runTask(ctx, result, task, w, specsByWorker[w.ID])
				o.mu.Lock()
				delete(dispatched, task.ID)
				inflight--
				o.cond.Broadcast()
				o.mu.Unlock()
			}(task, w)
		}

		if !remaining {
			break
		}
		if !launched {
			if inflight == 0 {
				// Pending tasks remain with every worker idle and none
				// selectable. Fail them closed rather than spinning.
				for _, task := range result.Tasks {
					if task.Status == models.TaskStatusPending && !dispatched[task.ID] {
						o.rejectLocked(result, task, "no eligible worker available")
					}
				}
				continue
			}
			o.cond.Wait()
		}
	}

	for inflight > 0 {
		o.cond.Wait()
	}
}

// runTask drives one task through execute/review rounds until it terminates
// or fails back into the pending queue. A stopping run initiates no further
// LLM calls and leaves the task non-terminal. Called without o.mu held.
func (o *Orchestrator) runTask(ctx context.Context, result *RunResult, task *models.Task, w *models.WorkerAgent, spec models.WorkerSpecification) {
	var rev *worker.Revision

	for {
		if o.stopping(ctx) {
			o.mu.Lock()
			worker.Release(task, w)
			o.persistTask(task)
			o.mu.Unlock()
			return
		}

		output, err := o.executor.Execute(ctx, w, spec, task, rev)
		if err != nil {
			o.mu.Lock()
			worker.Release(task, w)
			switch {
			case canceled(err) || o.stopping(ctx):
				// Cancellation is not an execution failure; the task stays
				// in the queue for a later run.
				o.persistTask(task)
			case task.Status == models.TaskStatusPending && task.ExecutionFailures > o.opts.executionRetryCap:
				o.rejectLocked(result, task, fmt.Sprintf("execution failed %d times: %v", task.ExecutionFailures, err))
			default:
				o.persistTask(task)
			}
			o.mu.Unlock()
			return
		}

		o.mu.Lock()
		result.Outputs = append(result.Outputs, output)
		o.persistOutput(output)
		o.persistTask(task)
		o.mu.Unlock()
		o.emit(Event{Type: EventTaskExecuted, TaskID: task.ID, TaskTitle: task.Title, WorkerID: w.ID, Round: output.Round})

		if o.stopping(ctx) {
			// The execution finished but the run is stopping. Hold the task
			// under review instead of judging it with a dead context.
			o.mu.Lock()
			worker.Release(task, w)
			o.mu.Unlock()
			return
		}

		review, err := o.reviewer.Review(ctx, task, output)
		if err != nil {
			o.mu.Lock()
			if canceled(err) || o.stopping(ctx) {
				worker.Release(task, w)
				o.persistTask(task)
				o.mu.Unlock()
				return
			}
			o.rejectLocked(result, task, "review failed: "+err.Error())
			worker.Release(task, w)
			o.mu.Unlock()
			return
		}

		o.mu.Lock()
		result.Reviews = append(result.Reviews, *review)
		o.persistReview(review)
		o.persistTask(task)
		o.mu.Unlock()
		o.emit(Event{Type: EventTaskReviewed, TaskID: task.ID, TaskTitle: task.Title, WorkerID: w.ID, Round: review.Round, Decision: review.Decision})

		switch task.Status {
		case models.TaskStatusApproved:
			o.mu.Lock()
			worker.Release(task, w)
			o.mu.Unlock()
			o.emit(Event{Type: EventTaskApproved, TaskID: task.ID, TaskTitle: task.Title, WorkerID: w.ID})
			return
		case models.TaskStatusRejected:
			o.mu.Lock()
			worker.Release(task, w)
			o.mu.Unlock()
			o.emit(Event{Type: EventTaskRejected, TaskID: task.ID, TaskTitle: task.Title, WorkerID: w.ID, Message: review.Feedback})
			return
		case models.TaskStatusRevising:
			// Same worker, next round, with the reviewer's feedback.
			rev = &worker.Revision{Output: output, Feedback: review.Feedback}
		default:
			log.Printf("[orchestrator] task %s in unexpected state %s after review", task.ID, task.Status)
			return
		}
	}
}

// rejectLocked terminates a task systemically. Caller holds o.mu.
func (o *Orchestrator) rejectLocked(result *RunResult, task *models.Task, reason string) {
	review, err := o.reviewer.RejectSystemic(task, reason)
	if err != nil {
		log.Printf("[orchestrator] systemic reject of task %s failed: %v", task.ID, err)
		return
	}
	result.Reviews = append(result.Reviews, *review)
	o.persistReview(review)
	o.persistTask(task)
	o.emit(Event{Type: EventTaskRejected, TaskID: task.ID, TaskTitle: task.Title, Message: review.Feedback})
}

// anyWorkerCanHandle reports whether any worker, busy or not, covers the task.
func anyWorkerCanHandle(workers []*models.WorkerAgent, task *models.Task) bool {
	for _, w := range workers {
		if w.CanHandle(task.RequiredSkills) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) shouldStop() bool {
	return o.opts.signals != nil && o.opts.signals.ShouldStop()
}

// stopping reports whether the run should initiate no further LLM calls.
func (o *Orchestrator) stopping(ctx context.Context) bool {
	return ctx.Err() != nil || o.shouldStop()
}

// canceled reports whether an error came from run cancellation rather than
// the transport.
func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Persistence helpers. A missing store makes these no-ops; a failing store
// logs and never aborts the run.

func (o *Orchestrator) persistGoal(g models.Goal) {
	if o.opts.store == nil {
		return
	}
	if err := o.opts.store.CreateGoal(g); err != nil {
		log.Printf("[orchestrator] persist goal %s: %v", g.ID, err)
	}
}

func (o *Orchestrator) persistAnalysis(a *models.GoalAnalysis) {
	if o.opts.store == nil {
		return
	}
	if err := o.opts.store.CreateAnalysis(a); err != nil {
		log.Printf("[orchestrator] persist analysis %s: %v", a.ID, err)
	}
}

func (o *Orchestrator) persistSpec(s models.WorkerSpecification) {
	if o.opts.store == nil {
		return
	}
	if err := o.opts.store.CreateWorkerSpec(s); err != nil {
		log.Printf("[orchestrator] persist worker spec %s: %v", s.ID, err)
	}
}

func (o *Orchestrator) persistTask(t *models.Task) {
	if o.opts.store == nil {
		return
	}
	if existing, err := o.opts.store.GetTask(t.ID); err == nil && existing == nil {
		if err := o.opts.store.CreateTask(t); err != nil {
			log.Printf("[orchestrator] persist task %s: %v", t.ID, err)
		}
		return
	}
	if err := o.opts.store.UpdateTask(t); err != nil {
		log.Printf("[orchestrator] persist task %s: %v", t.ID, err)
	}
}

func (o *Orchestrator) persistOutput(out *models.TaskOutput) {
	if o.opts.store == nil {
		return
	}
	if err := o.opts.store.CreateOutput(out); err != nil {
		log.Printf("[orchestrator] persist output %s: %v", out.ID, err)
	}
}

func (o *Orchestrator) persistReview(r *models.TaskReview) {
	if o.opts.store == nil {
		return
	}
	if err := o.opts.store.CreateReview(r); err != nil {
		log.Printf("[orchestrator] persist review %s: %v", r.ID, err)
	}
}
