package llm

// modelPricing holds per-model pricing in USD per 1M tokens.
type modelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

var priceTable = map[string]modelPricing{
	"claude-sonnet-4-5-20250929": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-haiku-4-5-20251001":  {InputPerMillion: 0.80, OutputPerMillion: 4.00},
	"gpt-4o":                     {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini":                {InputPerMillion: 0.15, OutputPerMillion: 0.60},
}

// EstimatedCostUSD returns the estimated cost of the completion, or 0
// when the model is not priced (local models included).
func (r *CompletionResponse) EstimatedCostUSD() float64 {
	pricing, ok := priceTable[r.Model]
	if !ok {
		return 0
	}
	return float64(r.InputTokens)/1_000_000.0*pricing.InputPerMillion +
		float64(r.OutputTokens)/1_000_000.0*pricing.OutputPerMillion
}
