package manager

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/strataga/foreman/internal/gateway"
)

// Completer is the slice of the gateway the manager depends on. Tests
// inject scripted fakes; production wires *gateway.Gateway.
type Completer interface {
	Complete(ctx context.Context, req gateway.CompletionRequest) (*gateway.CompletionResult, error)
}

// validate checks struct tags on parsed LLM responses. Model output is
// never trusted as schema-valid without this pass.
var validate = validator.New()

// extractJSONObject returns the outermost {...} span in a model response.
// Models occasionally wrap JSON in prose or fences despite instructions.
func extractJSONObject(response string) (string, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON object found in response (%d chars)", len(response))
	}
	return response[start : end+1], nil
}

// extractJSONArray returns the outermost [...] span in a model response.
func extractJSONArray(response string) (string, error) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no JSON array found in response (%d chars)", len(response))
	}
	return response[start : end+1], nil
}

// joinList renders a string slice as a comma-separated prompt variable.
func joinList(items []string) string {
	return strings.Join(items, ", ")
}

// bulletList renders a string slice as prompt-friendly bullet lines.
func bulletList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- ")
		b.WriteString(item)
	}
	return b.String()
}
