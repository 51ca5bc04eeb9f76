package gateway

import (
	"math"
	"testing"
)

func TestComputeCost(t *testing.T) {
	pricing := ModelPricing{InputPerMillion: 3.00, OutputPerMillion: 15.00, CachedPerMillion: 0.30}
	usage := TokenUsage{InputTokens: 1_000_000, OutputTokens: 100_000, CachedTokens: 400_000}

	cost := ComputeCost(usage, pricing)

	// 600k uncached at $3/M + 400k cached at $0.30/M.
	wantInput := 0.6*3.00 + 0.4*0.30
	if math.Abs(cost.InputCost-wantInput) > 1e-9 {
		t.Errorf("InputCost = %g, want %g", cost.InputCost, wantInput)
	}

	wantOutput := 0.1 * 15.00
	if math.Abs(cost.OutputCost-wantOutput) > 1e-9 {
		t.Errorf("OutputCost = %g, want %g", cost.OutputCost, wantOutput)
	}

	if math.Abs(cost.Total()-(cost.InputCost+cost.OutputCost)) > 1e-12 {
		t.Error("Total must equal input plus output exactly")
	}

	// Savings: full-price input minus what was actually paid for input.
	wantSavings := 1.0*3.00 - wantInput
	if math.Abs(cost.CacheSavings-wantSavings) > 1e-9 {
		t.Errorf("CacheSavings = %g, want %g", cost.CacheSavings, wantSavings)
	}
}

func TestComputeCostNoCaching(t *testing.T) {
	pricing := ModelPricing{InputPerMillion: 3.00, OutputPerMillion: 15.00, CachedPerMillion: 0.30}
	usage := TokenUsage{InputTokens: 500_000, OutputTokens: 50_000}

	cost := ComputeCost(usage, pricing)
	if cost.CacheSavings != 0 {
		t.Errorf("CacheSavings = %g, want 0 without cached tokens", cost.CacheSavings)
	}
}

func TestCacheSavingsNeverNegative(t *testing.T) {
	tests := []struct {
		name  string
		usage TokenUsage
	}{
		{"all cached", TokenUsage{InputTokens: 1000, CachedTokens: 1000}},
		{"cached exceeds input", TokenUsage{InputTokens: 500, CachedTokens: 1000}},
		{"zero usage", TokenUsage{}},
		{"output only", TokenUsage{OutputTokens: 2000}},
	}

	pricing := PricingFor("claude-sonnet-4-20250514")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost := ComputeCost(tt.usage, pricing)
			if cost.CacheSavings < 0 {
				t.Errorf("CacheSavings = %g, want >= 0", cost.CacheSavings)
			}
			if cost.Total() < 0 {
				t.Errorf("Total = %g, want >= 0", cost.Total())
			}
		})
	}
}

func TestPricingForUnknownModelFallsBack(t *testing.T) {
	p := PricingFor("some-future-model")
	if p.InputPerMillion == 0 || p.OutputPerMillion == 0 {
		t.Error("unknown model should fall back to non-zero rates")
	}
}
