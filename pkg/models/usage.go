package models

import "time"

// AgentType distinguishes who initiated an LLM call for cost attribution.
type AgentType string

const (
	// AgentTypeManager marks calls made by the manager (analysis, formation,
	// decomposition, review).
	AgentTypeManager AgentType = "manager"
	// AgentTypeWorker marks calls made by worker executors.
	AgentTypeWorker AgentType = "worker"
)

// TokenUsageRecord is one append-only cost accounting entry, written once
// per gateway invocation and never mutated.
type TokenUsageRecord struct {
	// ID is the unique identifier for this record.
	ID string `json:"id"`
	// TeamID is the team the call was made for.
	TeamID string `json:"team_id"`
	// AgentID identifies the calling agent.
	AgentID string `json:"agent_id"`
	// AgentType is manager or worker.
	AgentType AgentType `json:"agent_type"`
	// Model is the model that served the call.
	Model string `json:"model"`
	// InputTokens is the prompt token count reported by the transport.
	InputTokens int64 `json:"input_tokens"`
	// OutputTokens is the completion token count.
	OutputTokens int64 `json:"output_tokens"`
	// CachedTokens is the cache-read portion of the input tokens.
	CachedTokens int64 `json:"cached_tokens"`
	// Cost is the computed USD cost for this call.
	Cost float64 `json:"cost"`
	// RequestID is the transport request identifier, when available.
	RequestID string `json:"request_id,omitempty"`
	// CreatedAt is when the call completed.
	CreatedAt time.Time `json:"created_at"`
}
