package llm

import (
	"fmt"
	"os"
)

// Options configures NewProvider. Empty fields fall back to the
// conventional environment variables.
type Options struct {
	Model   string
	APIKey  string
	BaseURL string
}

// NewProvider creates a new LLM provider based on the given provider type.
// Supported provider types: "openai", "anthropic", "ollama".
func NewProvider(providerType string, opts Options) (Provider, error) {
	switch providerType {
	case "openai":
		apiKey := firstNonEmpty(opts.APIKey, os.Getenv("OPENAI_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, opts.Model, opts.BaseURL), nil

	case "anthropic":
		apiKey := firstNonEmpty(opts.APIKey, os.Getenv("ANTHROPIC_API_KEY"))
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		p := NewAnthropicProvider(apiKey, opts.Model)
		if opts.BaseURL != "" {
			p.url = opts.BaseURL
		}
		return p, nil

	case "ollama":
		host := firstNonEmpty(opts.BaseURL, os.Getenv("OLLAMA_HOST"), "http://localhost:11434")
		return NewOllamaProvider(host, opts.Model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
