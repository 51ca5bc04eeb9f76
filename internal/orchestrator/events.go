// Package orchestrator coordinates one goal run: analysis, team formation,
// decomposition, and the execute/review loop across the worker pool.
package orchestrator

import (
	"time"

	"github.com/strataga/foreman/pkg/models"
)

// EventType represents the type of orchestrator event.
type EventType string

const (
	// EventGoalAnalyzed indicates goal analysis completed.
	EventGoalAnalyzed EventType = "goal_analyzed"
	// EventTeamFormed indicates the worker team was formed.
	EventTeamFormed EventType = "team_formed"
	// EventTasksDecomposed indicates the goal was broken into tasks.
	EventTasksDecomposed EventType = "tasks_decomposed"
	// EventTaskAssigned indicates a task was assigned to a worker.
	EventTaskAssigned EventType = "task_assigned"
	// EventTaskExecuted indicates a worker produced output for a task.
	EventTaskExecuted EventType = "task_executed"
	// EventTaskReviewed indicates one review round completed.
	EventTaskReviewed EventType = "task_reviewed"
	// EventTaskApproved indicates a task terminated approved.
	EventTaskApproved EventType = "task_approved"
	// EventTaskRejected indicates a task terminated rejected.
	EventTaskRejected EventType = "task_rejected"
	// EventRunCompleted indicates the whole run finished.
	EventRunCompleted EventType = "run_completed"
	// EventRunStopped indicates the run stopped before all tasks terminated.
	EventRunStopped EventType = "run_stopped"
)

// Event represents an event emitted by the orchestrator. Consumers use these
// to render progress; emission never blocks the run.
type Event struct {
	// Type is the kind of event.
	Type EventType
	// TaskID is the ID of the related task, if applicable.
	TaskID string
	// TaskTitle is the title of the related task, if applicable.
	TaskTitle string
	// WorkerID is the ID of the related worker, if applicable.
	WorkerID string
	// Round is the review round, for review events.
	Round int
	// Decision is the review outcome, for review events.
	Decision models.ReviewDecision
	// Message provides additional context about the event.
	Message string
	// Error contains error details for failure events.
	Error error
	// Timestamp is when the event occurred.
	Timestamp time.Time
}

// emit sends an event without blocking: a slow or absent consumer never
// stalls the run loop.
func (o *Orchestrator) emit(e Event) {
	if o.events == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case o.events <- e:
	default:
	}
}
