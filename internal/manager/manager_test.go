package manager

import (
	"context"
	"sync"

	"github.com/strataga/foreman/internal/gateway"
)

// fakeCompleter returns scripted responses in order and records requests.
type fakeCompleter struct {
	mu        sync.Mutex
	responses []fakeCompletion
	requests  []gateway.CompletionRequest
}

type fakeCompletion struct {
	content string
	err     error
}

func (f *fakeCompleter) Complete(_ context.Context, req gateway.CompletionRequest) (*gateway.CompletionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if len(f.responses) == 0 {
		return &gateway.CompletionResult{Content: "{}"}, nil
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	if next.err != nil {
		return nil, next.err
	}
	return &gateway.CompletionResult{Content: next.content}, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func testAgentConfig() AgentConfig {
	return AgentConfig{
		TeamID:      "team-1",
		AgentID:     "manager-1",
		Model:       "claude-sonnet-4-20250514",
		MaxTokens:   4096,
		Temperature: 0.3,
	}
}
