package models

import (
	"fmt"
	"time"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task awaits worker assignment.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusAssigned indicates a worker holds the task but has not started.
	TaskStatusAssigned TaskStatus = "assigned"
	// TaskStatusInProgress indicates the task is being executed.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusUnderReview indicates output was produced and awaits review.
	TaskStatusUnderReview TaskStatus = "under_review"
	// TaskStatusRevising indicates the reviewer requested changes.
	TaskStatusRevising TaskStatus = "revising"
	// TaskStatusApproved indicates the task passed review. Terminal.
	TaskStatusApproved TaskStatus = "approved"
	// TaskStatusRejected indicates the task was rejected. Terminal.
	TaskStatusRejected TaskStatus = "rejected"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusAssigned, TaskStatusInProgress,
		TaskStatusUnderReview, TaskStatusRevising, TaskStatusApproved, TaskStatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status admits no further transitions.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusApproved || s == TaskStatusRejected
}

// taskTransitions is the allowed state machine:
// Pending -> Assigned -> InProgress -> UnderReview -> {Revising, Approved, Rejected},
// Revising -> InProgress, and InProgress -> Pending on execution failure
// (re-assignment path). Pending -> Rejected covers systemic failures: retry
// exhaustion and tasks no worker can handle.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:     {TaskStatusAssigned, TaskStatusRejected},
	TaskStatusAssigned:    {TaskStatusInProgress},
	TaskStatusInProgress:  {TaskStatusUnderReview, TaskStatusPending, TaskStatusRejected},
	TaskStatusUnderReview: {TaskStatusRevising, TaskStatusApproved, TaskStatusRejected},
	TaskStatusRevising:    {TaskStatusInProgress},
}

// CanTransition reports whether from -> to is an allowed transition.
func CanTransition(from, to TaskStatus) bool {
	for _, next := range taskTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Complexity is the coarse effort estimate attached to a task.
type Complexity string

const (
	// ComplexityLow marks a small, well-understood task.
	ComplexityLow Complexity = "low"
	// ComplexityMedium marks a moderately involved task.
	ComplexityMedium Complexity = "medium"
	// ComplexityHigh marks a large or risky task.
	ComplexityHigh Complexity = "high"
)

// Valid returns true if the complexity is a known value.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		return true
	default:
		return false
	}
}

// Acceptance criteria bounds per task, enforced at decomposition time.
const (
	MinAcceptanceCriteria = 3
	MaxAcceptanceCriteria = 5
)

// Task count bounds per decomposition.
const (
	MinTaskCount = 5
	MaxTaskCount = 20
)

// Task is one concrete unit of work produced by decomposition. Tasks are
// never deleted; they terminate into Approved or Rejected.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// GoalID references the goal this task serves.
	GoalID string `json:"goal_id"`
	// TeamID is the team this task belongs to.
	TeamID string `json:"team_id"`
	// Title is the short description of the task.
	Title string `json:"title" validate:"required"`
	// Description provides detailed information about the task.
	Description string `json:"description" validate:"required"`
	// AcceptanceCriteria lists the checkable completion criteria (3-5).
	AcceptanceCriteria []string `json:"acceptance_criteria" validate:"required,min=3,max=5,dive,required"`
	// RequiredSkills lists skills a worker needs to take this task.
	RequiredSkills []string `json:"required_skills,omitempty"`
	// Complexity is the coarse effort estimate.
	Complexity Complexity `json:"complexity"`
	// Status is the current state machine position.
	Status TaskStatus `json:"status"`
	// Ordinal preserves decomposition order as a priority hint,
	// not an enforced dependency graph.
	Ordinal int `json:"ordinal"`
	// AssignedWorkerID is the worker currently holding the task, if any.
	AssignedWorkerID string `json:"assigned_worker_id,omitempty"`
	// Round is the current review round, starting at 1 on first execution.
	Round int `json:"round"`
	// ExecutionFailures counts gateway-level execution failures, which are
	// bounded separately from review rounds.
	ExecutionFailures int `json:"execution_failures,omitempty"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
	// CompletedAt is when the task reached a terminal state, if it has.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Transition moves the task to the given status, enforcing the state machine.
func (t *Task) Transition(to TaskStatus) error {
	if !CanTransition(t.Status, to) {
		return fmt.Errorf("invalid task transition from %s to %s", t.Status, to)
	}
	t.Status = to
	if to.Terminal() {
		now := time.Now()
		t.CompletedAt = &now
	}
	return nil
}

// TaskOutput is one immutable execution attempt result. Referenced, never
// owned, by the reviews that judge it.
type TaskOutput struct {
	// ID is the unique identifier for this output.
	ID string `json:"id"`
	// TaskID references the executed task.
	TaskID string `json:"task_id"`
	// WorkerID references the worker that produced the output.
	WorkerID string `json:"worker_id"`
	// Content is the worker's produced result.
	Content string `json:"content"`
	// Artifacts lists any named artifacts the worker reported.
	Artifacts []string `json:"artifacts,omitempty"`
	// Round is the review round this output was produced for.
	Round int `json:"round"`
	// ProducedAt is when the output was produced.
	ProducedAt time.Time `json:"produced_at"`
}
