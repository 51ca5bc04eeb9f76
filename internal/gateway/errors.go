package gateway

import (
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// ErrorKind classifies gateway failures for retry decisions.
type ErrorKind string

const (
	// KindRateLimited marks HTTP 429-equivalent throttling. Retryable.
	KindRateLimited ErrorKind = "rate_limited"
	// KindTransient marks network failures and 5xx responses. Retryable.
	KindTransient ErrorKind = "transient"
	// KindFatal marks 4xx responses other than rate limiting. Never retried.
	KindFatal ErrorKind = "fatal"
	// KindMalformedResponse marks responses whose content could not be
	// parsed into the expected block. Never retried.
	KindMalformedResponse ErrorKind = "malformed_response"
)

// ErrInvalidPromptStructure is returned when the message sequence does not
// strictly alternate user/assistant roles starting with user.
var ErrInvalidPromptStructure = errors.New("invalid prompt structure")

// Error is a classified gateway failure.
type Error struct {
	// Kind drives retry policy.
	Kind ErrorKind
	// Status is the HTTP status code, when the failure came from the API.
	Status int
	// Attempts is how many attempts were made before surfacing.
	Attempts int
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway %s (status %d, %d attempts): %v", e.Kind, e.Status, e.Attempts, e.Err)
	}
	return fmt.Sprintf("gateway %s (%d attempts): %v", e.Kind, e.Attempts, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether this failure kind participates in the retry loop.
func (e *Error) Retryable() bool {
	return e.Kind == KindRateLimited || e.Kind == KindTransient
}

// classify maps an SDK or transport error to a gateway Error.
func classify(err error) *Error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 429:
			return &Error{Kind: KindRateLimited, Status: apierr.StatusCode, Err: err}
		case apierr.StatusCode >= 500:
			return &Error{Kind: KindTransient, Status: apierr.StatusCode, Err: err}
		default:
			return &Error{Kind: KindFatal, Status: apierr.StatusCode, Err: err}
		}
	}
	// Anything without an HTTP status is a network-level failure.
	return &Error{Kind: KindTransient, Err: err}
}

// IsKind reports whether err is a gateway Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.Kind == kind
}
