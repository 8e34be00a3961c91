package config

import "github.com/ziadkadry99/intent-agent/internal/rules"

// QualityTier controls the model selection and how much the answer backend is asked to say.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an answer backend.
type ProviderType string

const (
	// ProviderTemplate answers from a fixed template without calling a model.
	ProviderTemplate  ProviderType = "template"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
)

// State codec names accepted in resolution.state_codec.
const (
	CodecJSON   = "json"
	CodecSigned = "signed"
)

// Config is the top-level intent-agent configuration, corresponding to .intent-agent.yml.
type Config struct {
	Provider     ProviderType     `yaml:"provider" koanf:"provider"`
	Model        string           `yaml:"model" koanf:"model"`
	BaseURL      string           `yaml:"base_url,omitempty" koanf:"base_url"`
	Quality      QualityTier      `yaml:"quality" koanf:"quality"`
	RateLimitRPM int              `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	DatabasePath string           `yaml:"database_path" koanf:"database_path"`
	Server       ServerConfig     `yaml:"server" koanf:"server"`
	Resolution   ResolutionConfig `yaml:"resolution" koanf:"resolution"`
	Rules        RulesConfig      `yaml:"rules,omitempty" koanf:"rules"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	// RequestTimeoutSeconds bounds each request, including the backend call.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds" koanf:"request_timeout_seconds"`
}

// ResolutionConfig controls how pending clarifications travel between turns.
type ResolutionConfig struct {
	StateCodec           string `yaml:"state_codec" koanf:"state_codec"`
	SigningKey           string `yaml:"signing_key,omitempty" koanf:"signing_key"`
	RevalidateCredential bool   `yaml:"revalidate_credential" koanf:"revalidate_credential"`
}

// RulesConfig optionally replaces the built-in disambiguation tables.
// An empty list keeps the built-in table.
type RulesConfig struct {
	Scopes      []rules.Rule `yaml:"scopes,omitempty" koanf:"scopes"`
	Refinements []rules.Rule `yaml:"refinements,omitempty" koanf:"refinements"`
}
