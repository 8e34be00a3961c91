package config

// DefaultConfigPath is where init writes and the CLI looks by default.
const DefaultConfigPath = ".intent-agent.yml"

// QualityPreset describes the model and output budget for a given quality tier.
type QualityPreset struct {
	Model     string
	MaxTokens int
}

// qualityPresets maps each provider+quality combination to its model choice.
var qualityPresets = map[ProviderType]map[QualityTier]QualityPreset{
	ProviderTemplate: {
		QualityLite:   {},
		QualityNormal: {},
		QualityMax:    {},
	},
	ProviderAnthropic: {
		QualityLite:   {Model: "claude-haiku-4-5-20251001", MaxTokens: 512},
		QualityNormal: {Model: "claude-sonnet-4-5-20250929", MaxTokens: 1024},
		QualityMax:    {Model: "claude-opus-4-6", MaxTokens: 2048},
	},
	ProviderOpenAI: {
		QualityLite:   {Model: "gpt-4o-mini", MaxTokens: 512},
		QualityNormal: {Model: "gpt-4o", MaxTokens: 1024},
		QualityMax:    {Model: "gpt-4", MaxTokens: 2048},
	},
	ProviderOllama: {
		QualityLite:   {Model: "llama3", MaxTokens: 512},
		QualityNormal: {Model: "llama3", MaxTokens: 1024},
		QualityMax:    {Model: "llama3:70b", MaxTokens: 2048},
	},
}

// DefaultConfig returns a Config with sensible defaults. The template
// backend needs no credentials, so a fresh checkout runs as-is.
func DefaultConfig() *Config {
	return &Config{
		Provider:     ProviderTemplate,
		Quality:      QualityNormal,
		RateLimitRPM: 0,
		DatabasePath: ".intent-agent/intent.db",
		Server: ServerConfig{
			Port:                  8080,
			AllowAllOrigins:       false,
			RequestTimeoutSeconds: 60,
		},
		Resolution: ResolutionConfig{
			StateCodec:           CodecJSON,
			RevalidateCredential: false,
		},
	}
}

// GetPreset returns the quality preset for the given provider and tier.
// Returns the Normal Anthropic preset if the combination is not found.
func GetPreset(provider ProviderType, tier QualityTier) QualityPreset {
	if tiers, ok := qualityPresets[provider]; ok {
		if preset, ok := tiers[tier]; ok {
			return preset
		}
	}
	return qualityPresets[ProviderAnthropic][QualityNormal]
}
