package orchestrator

import (
	"github.com/strataga/foreman/internal/state"
)

// defaultExecutionRetryCap bounds re-assignments after transport-level
// execution failures, separately from review rounds.
const defaultExecutionRetryCap = 2

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

// orchestratorOptions holds all optional configuration.
type orchestratorOptions struct {
	store             state.Store
	signals           *SignalManager
	events            chan Event
	executionRetryCap int
}

// WithStore sets the persistence backend. Without one, runs are in-memory only.
func WithStore(s state.Store) Option {
	return func(o *orchestratorOptions) { o.store = s }
}

// WithSignals sets the external stop-signal manager.
func WithSignals(sm *SignalManager) Option {
	return func(o *orchestratorOptions) { o.signals = sm }
}

// WithEvents sets the channel progress events are emitted on. Emission is
// non-blocking; size the channel for the expected consumer lag.
func WithEvents(ch chan Event) Option {
	return func(o *orchestratorOptions) { o.events = ch }
}

// WithExecutionRetryCap sets how many re-assignments a task gets after
// transport-level execution failures before it is rejected.
func WithExecutionRetryCap(n int) Option {
	return func(o *orchestratorOptions) { o.executionRetryCap = n }
}
