package gateway

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/strataga/foreman/pkg/models"
)

// Role identifies the author of a message in a completion request.
type Role string

const (
	// RoleUser marks a user-authored message.
	RoleUser Role = "user"
	// RoleAssistant marks a model-authored message.
	RoleAssistant Role = "assistant"
)

// Message is one turn in a completion request.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest describes one gateway invocation.
type CompletionRequest struct {
	// Model overrides the client's default model when non-empty.
	Model string
	// System is the system prompt.
	System string
	// Messages must strictly alternate user/assistant starting with user.
	Messages []Message
	// MaxTokens bounds the completion length. Must be positive.
	MaxTokens int64
	// Temperature must lie in [0, 1].
	Temperature float64

	// Attribution for the usage record.
	TeamID    string
	AgentID   string
	AgentType models.AgentType
}

// CompletionResult is the successful outcome of one gateway invocation.
type CompletionResult struct {
	Content   string
	Usage     TokenUsage
	RequestID string
}

// Retry policy constants. RateLimited and Transient failures retry with
// exponential backoff and jitter; Fatal and MalformedResponse never retry.
const (
	maxAttempts       = 3
	backoffBase       = 1 * time.Second
	backoffCap        = 30 * time.Second
	cumulativeWaitCap = 60 * time.Second
	jitterFraction    = 0.25
)

// completer is the transport seam between the Gateway and the Anthropic SDK.
type completer interface {
	createMessage(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

// Gateway performs completions with retry, token accounting, and cost
// recording. Suspension points are exactly the transport calls; validation
// and classification are synchronous.
type Gateway struct {
	transport completer
	recorder  UsageRecorder
	pricing   map[string]ModelPricing

	// sleep is replaced in tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
	// jitter is replaced in tests for deterministic backoff.
	jitter func() float64
}

// New creates a Gateway over the given client. A nil recorder discards
// usage records.
func New(client *Client, recorder UsageRecorder) *Gateway {
	return newGateway(client, recorder)
}

func newGateway(transport completer, recorder UsageRecorder) *Gateway {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Gateway{
		transport: transport,
		recorder:  recorder,
		pricing:   DefaultModelPricing,
		sleep:     sleepCtx,
		jitter:    rand.Float64,
	}
}

// SetPricing overrides the pricing table, e.g. from configuration.
func (g *Gateway) SetPricing(pricing map[string]ModelPricing) {
	if len(pricing) > 0 {
		g.pricing = pricing
	}
}

// Complete performs one completion with the gateway's retry policy.
// On success it appends exactly one TokenUsageRecord; a recording failure
// is logged but never aborts the caller's result.
func (g *Gateway) Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var waited time.Duration
	var lastErr *Error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := g.transport.createMessage(ctx, req)
		if err == nil {
			g.record(ctx, req, result)
			return result, nil
		}

		gerr := asGatewayError(err)
		gerr.Attempts = attempt
		lastErr = gerr

		if !gerr.Retryable() || attempt == maxAttempts {
			return nil, gerr
		}

		wait := g.backoff(attempt)
		if waited+wait > cumulativeWaitCap {
			log.Printf("[gateway] cumulative backoff cap reached after attempt %d, surfacing %s", attempt, gerr.Kind)
			return nil, gerr
		}
		waited += wait

		log.Printf("[gateway] attempt %d failed (%s), retrying in %s", attempt, gerr.Kind, wait.Round(time.Millisecond))
		if err := g.sleep(ctx, wait); err != nil {
			return nil, &Error{Kind: KindTransient, Attempts: attempt, Err: err}
		}
	}

	return nil, lastErr
}

// backoff returns the wait before the next attempt: exponential from 1s,
// doubling per attempt, ±25% jitter, capped at 30s.
func (g *Gateway) backoff(attempt int) time.Duration {
	wait := backoffBase << (attempt - 1)
	if wait > backoffCap {
		wait = backoffCap
	}
	// Jitter in [-25%, +25%].
	factor := 1 + jitterFraction*(2*g.jitter()-1)
	jittered := time.Duration(float64(wait) * factor)
	if jittered > backoffCap {
		jittered = backoffCap
	}
	return jittered
}

// record appends the usage record for a successful call.
func (g *Gateway) record(ctx context.Context, req CompletionRequest, result *CompletionResult) {
	pricing, ok := g.pricing[req.Model]
	if !ok {
		pricing = PricingFor(req.Model)
	}
	cost := ComputeCost(result.Usage, pricing)

	rec := models.TokenUsageRecord{
		ID:           uuid.New().String(),
		TeamID:       req.TeamID,
		AgentID:      req.AgentID,
		AgentType:    req.AgentType,
		Model:        req.Model,
		InputTokens:  result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
		CachedTokens: result.Usage.CachedTokens,
		Cost:         cost.Total(),
		RequestID:    result.RequestID,
		CreatedAt:    time.Now(),
	}

	if err := g.recorder.RecordUsage(ctx, rec); err != nil {
		log.Printf("[gateway] usage recording failed for request %s: %v", result.RequestID, err)
	}
}

// validateRequest enforces the request invariants before any transport call.
func validateRequest(req CompletionRequest) error {
	if req.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", req.MaxTokens)
	}
	if req.Temperature < 0 || req.Temperature > 1 {
		return fmt.Errorf("temperature must be in [0, 1], got %g", req.Temperature)
	}
	if len(req.Messages) == 0 {
		return fmt.Errorf("%w: empty message sequence", ErrInvalidPromptStructure)
	}
	for i, m := range req.Messages {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		if m.Role != want {
			return fmt.Errorf("%w: message %d has role %q, want %q", ErrInvalidPromptStructure, i, m.Role, want)
		}
	}
	return nil
}

// asGatewayError returns err as a gateway Error, classifying it if needed.
func asGatewayError(err error) *Error {
	if gerr, ok := err.(*Error); ok {
		return gerr
	}
	return classify(err)
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
