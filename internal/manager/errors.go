// Package manager implements the manager side of a Foreman team: goal
// analysis, team formation, task decomposition, and the bounded
// review/revision loop.
package manager

import (
	"errors"
	"fmt"

	"github.com/strataga/foreman/pkg/models"
)

// ErrMissingFeedback is returned when a non-approve review decision carries
// no feedback. Checked before any state mutation.
var ErrMissingFeedback = errors.New("review decision requires feedback")

// InvalidAnalysisError reports a goal analysis that failed validation.
// Field names the offending field when known.
type InvalidAnalysisError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *InvalidAnalysisError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid goal analysis: field %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid goal analysis: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *InvalidAnalysisError) Unwrap() error { return e.Err }

// InvalidTeamSizeError reports a team formation response outside the 3-5
// worker bound. The response is rejected whole, never truncated or padded.
type InvalidTeamSizeError struct {
	Count int
}

// Error implements the error interface.
func (e *InvalidTeamSizeError) Error() string {
	return fmt.Sprintf("invalid team size: %d (must be %d-%d workers)",
		e.Count, models.MinTeamSize, models.MaxTeamSize)
}

// InvalidTeamError reports a structurally invalid worker specification.
type InvalidTeamError struct {
	Specialization string
	Reason         string
}

// Error implements the error interface.
func (e *InvalidTeamError) Error() string {
	return fmt.Sprintf("invalid worker specification %q: %s", e.Specialization, e.Reason)
}

// InvalidTaskSetError reports a decomposition response that violates the
// task-count or acceptance-criteria bounds.
type InvalidTaskSetError struct {
	TaskTitle string
	Reason    string
}

// Error implements the error interface.
func (e *InvalidTaskSetError) Error() string {
	if e.TaskTitle != "" {
		return fmt.Sprintf("invalid task set: task %q: %s", e.TaskTitle, e.Reason)
	}
	return fmt.Sprintf("invalid task set: %s", e.Reason)
}
