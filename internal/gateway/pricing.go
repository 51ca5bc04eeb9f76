package gateway

// ModelPricing contains per-1M-token USD rates for a model. CachedPerMillion
// is the rate applied to cache-read input tokens.
type ModelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
	CachedPerMillion float64
}

// DefaultModelPricing contains rates for known Claude models.
var DefaultModelPricing = map[string]ModelPricing{
	"claude-opus-4-5-20251101":   {InputPerMillion: 15.00, OutputPerMillion: 75.00, CachedPerMillion: 1.50},
	"claude-sonnet-4-20250514":   {InputPerMillion: 3.00, OutputPerMillion: 15.00, CachedPerMillion: 0.30},
	"claude-3-5-sonnet-20241022": {InputPerMillion: 3.00, OutputPerMillion: 15.00, CachedPerMillion: 0.30},
	"claude-3-5-haiku-20241022":  {InputPerMillion: 0.80, OutputPerMillion: 4.00, CachedPerMillion: 0.08},
}

// TokenUsage is the per-call token accounting reported by the transport.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	CachedTokens int64 `json:"cached_tokens"`
}

// Cost is the USD cost breakdown for one call.
type Cost struct {
	// InputCost covers uncached input tokens at the input rate plus cached
	// tokens at the cached rate.
	InputCost float64
	// OutputCost covers output tokens at the output rate.
	OutputCost float64
	// CacheSavings is the amount saved by cache reads relative to paying
	// the full input rate. Never negative.
	CacheSavings float64
}

// Total returns the exact total cost, input plus output components.
func (c Cost) Total() float64 {
	return c.InputCost + c.OutputCost
}

// ComputeCost prices a call's usage against a model's rates.
func ComputeCost(usage TokenUsage, pricing ModelPricing) Cost {
	uncached := usage.InputTokens - usage.CachedTokens
	if uncached < 0 {
		uncached = 0
	}

	inputCost := perToken(pricing.InputPerMillion)*float64(uncached) +
		perToken(pricing.CachedPerMillion)*float64(usage.CachedTokens)
	outputCost := perToken(pricing.OutputPerMillion) * float64(usage.OutputTokens)

	fullPrice := perToken(pricing.InputPerMillion) * float64(usage.InputTokens)
	savings := fullPrice - inputCost
	if savings < 0 {
		savings = 0
	}

	return Cost{
		InputCost:    inputCost,
		OutputCost:   outputCost,
		CacheSavings: savings,
	}
}

func perToken(perMillion float64) float64 {
	return perMillion / 1_000_000
}

// PricingFor returns the pricing for a model, falling back to Sonnet rates
// for unknown models so cost records are never silently zero.
func PricingFor(model string) ModelPricing {
	if p, ok := DefaultModelPricing[model]; ok {
		return p
	}
	return DefaultModelPricing["claude-sonnet-4-20250514"]
}
