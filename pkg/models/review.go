package models

import "time"

// MaxRevisionRounds bounds the review/revision loop. A revision request past
// this round is forced to a rejection; the loop can never run unbounded.
const MaxRevisionRounds = 3

// ReviewDecision is the outcome of one review round.
type ReviewDecision string

const (
	// DecisionApprove accepts the output; the task terminates approved.
	DecisionApprove ReviewDecision = "approve"
	// DecisionRequestRevision sends the task back to the same worker
	// with feedback.
	DecisionRequestRevision ReviewDecision = "request_revision"
	// DecisionReject terminates the task as rejected.
	DecisionReject ReviewDecision = "reject"
)

// Valid returns true if the decision is a known value.
func (d ReviewDecision) Valid() bool {
	switch d {
	case DecisionApprove, DecisionRequestRevision, DecisionReject:
		return true
	default:
		return false
	}
}

// TaskReview is one append-only review record for a task. The per-task
// review history is immutable and strictly ordered by round.
type TaskReview struct {
	// ID is the unique identifier for this review.
	ID string `json:"id"`
	// TaskID references the reviewed task.
	TaskID string `json:"task_id"`
	// OutputID references the output that was judged.
	OutputID string `json:"output_id"`
	// Round is the review round, 1-based.
	Round int `json:"round"`
	// Decision is the review outcome.
	Decision ReviewDecision `json:"decision"`
	// Feedback explains the decision. Required for RequestRevision and Reject.
	Feedback string `json:"feedback,omitempty"`
	// Forced marks decisions that were downgraded to Reject by the
	// revision-round bound rather than by the underlying assessment.
	Forced bool `json:"forced,omitempty"`
	// PromptVersion records the review prompt version used.
	PromptVersion string `json:"prompt_version,omitempty"`
	// CreatedAt is when the review was recorded.
	CreatedAt time.Time `json:"created_at"`
}
