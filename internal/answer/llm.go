package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ziadkadry99/intent-agent/internal/config"
	"github.com/ziadkadry99/intent-agent/internal/llm"
)

// Extra debug keys set by LLMGenerator.
const (
	KeyModel        = "model"
	KeyInputTokens  = "input_tokens"
	KeyOutputTokens = "output_tokens"
)

// KeyEstimatedCost holds the completion's estimated USD cost, 0 for
// models without a known price.
const KeyEstimatedCost = "estimated_cost_usd"

// LLMGenerator answers through a chat-completion provider.
type LLMGenerator struct {
	provider  llm.Provider
	model     string
	tier      config.QualityTier
	maxTokens int
}

// NewLLMGenerator creates a generator over provider. A zero maxTokens
// leaves the provider default in place.
func NewLLMGenerator(provider llm.Provider, model string, tier config.QualityTier, maxTokens int) *LLMGenerator {
	return &LLMGenerator{
		provider:  provider,
		model:     model,
		tier:      tier,
		maxTokens: maxTokens,
	}
}

// modelReply is the JSON object the prompt asks for.
type modelReply struct {
	Answer   string `json:"answer"`
	SQLQuery string `json:"sql_query"`
}

func (g *LLMGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	var metric any
	if req.Refinement != "" {
		metric = req.Refinement
	}
	return g.complete(ctx, buildMessages(g.tier, req), debugContext(req.Query, req.Scope, metric))
}

func (g *LLMGenerator) GenerateCrossScope(ctx context.Context, query, scopeMarker string) (*Result, error) {
	return g.complete(ctx, buildCrossScopeMessages(query, scopeMarker), debugContext(query, scopeMarker, nil))
}

func (g *LLMGenerator) complete(ctx context.Context, messages []llm.Message, debug map[string]any) (*Result, error) {
	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   g.maxTokens,
		Temperature: 0.1,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s completion: %w", g.provider.Name(), err)
	}

	reply := parseReply(resp.Content)
	if strings.TrimSpace(reply.Answer) == "" {
		return nil, fmt.Errorf("%s returned an empty answer", g.provider.Name())
	}

	debug[KeyModel] = resp.Model
	debug[KeyInputTokens] = resp.InputTokens
	debug[KeyOutputTokens] = resp.OutputTokens
	debug[KeyEstimatedCost] = resp.EstimatedCostUSD()

	return &Result{
		Answer:       reply.Answer,
		SQLQuery:     reply.SQLQuery,
		DebugContext: debug,
	}, nil
}

// parseReply reads the model's JSON reply. Models that ignore the format
// instruction still produce a usable answer: the raw text becomes the
// answer and the SQL is left empty.
func parseReply(raw string) modelReply {
	raw = strings.TrimSpace(raw)

	// Strip markdown code fences if present.
	if strings.HasPrefix(raw, "```") {
		lines := strings.Split(raw, "\n")
		if len(lines) >= 2 {
			end := len(lines)
			if strings.TrimSpace(lines[end-1]) == "```" {
				end--
			}
			raw = strings.Join(lines[1:end], "\n")
		}
	}

	var reply modelReply
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return modelReply{Answer: raw}
	}
	return reply
}
