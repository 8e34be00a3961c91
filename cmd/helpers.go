package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ziadkadry99/intent-agent/internal/access"
	"github.com/ziadkadry99/intent-agent/internal/answer"
	"github.com/ziadkadry99/intent-agent/internal/auth"
	"github.com/ziadkadry99/intent-agent/internal/config"
	"github.com/ziadkadry99/intent-agent/internal/db"
	"github.com/ziadkadry99/intent-agent/internal/intent"
	"github.com/ziadkadry99/intent-agent/internal/llm"
	"github.com/ziadkadry99/intent-agent/internal/resolution"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `intent-agent init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// apiKeyFor returns the key for provider, from the environment or the
// credentials file.
func apiKeyFor(provider config.ProviderType) string {
	envVar := config.APIKeyEnvVar(provider)
	store, err := auth.DefaultStore()
	if err != nil {
		return ""
	}
	return store.GetAPIKey(string(provider), envVar)
}

// buildGenerator creates the answer backend selected by cfg.Provider.
func buildGenerator(cfg *config.Config) (answer.Generator, error) {
	if cfg.Provider == config.ProviderTemplate {
		return answer.NewTemplateGenerator(), nil
	}

	provider, err := llm.NewProvider(string(cfg.Provider), llm.Options{
		Model:   cfg.Model,
		APIKey:  apiKeyFor(cfg.Provider),
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	provider = llm.NewRateLimitedProvider(provider, cfg.RateLimitRPM)

	preset := config.GetPreset(cfg.Provider, cfg.Quality)
	return answer.NewLLMGenerator(provider, cfg.Model, cfg.Quality, preset.MaxTokens), nil
}

// buildCodec creates the pending-state codec named in the config.
func buildCodec(cfg *config.Config) (resolution.StateCodec, error) {
	switch cfg.Resolution.StateCodec {
	case config.CodecSigned:
		return resolution.NewSignedCodec([]byte(cfg.Resolution.SigningKey))
	default:
		return resolution.JSONCodec{}, nil
	}
}

// buildDisambiguator compiles the configured rule tables. Empty tables
// fall back to the built-in ones.
func buildDisambiguator(cfg *config.Config) (*intent.Disambiguator, error) {
	scopes, refinements := cfg.Rules.Scopes, cfg.Rules.Refinements
	if len(scopes) == 0 {
		scopes = nil
	}
	if len(refinements) == 0 {
		refinements = nil
	}
	return intent.New(scopes, refinements)
}

// buildResolver chains the token store in front of the demo credentials.
func buildResolver(database *db.DB) access.Resolver {
	return access.ChainResolver{access.NewStore(database), access.DemoResolver()}
}

// buildOrchestrator wires the resolution pipeline from cfg.
func buildOrchestrator(cfg *config.Config, resolver access.Resolver, logger *slog.Logger) (*resolution.Orchestrator, error) {
	d, err := buildDisambiguator(cfg)
	if err != nil {
		return nil, err
	}
	gen, err := buildGenerator(cfg)
	if err != nil {
		return nil, err
	}
	codec, err := buildCodec(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating state codec: %w", err)
	}

	return resolution.New(resolver, d, gen,
		resolution.WithLogger(logger),
		resolution.WithCodec(codec),
		resolution.WithCredentialRevalidation(cfg.Resolution.RevalidateCredential),
	), nil
}

// openPipeline opens the database and builds an orchestrator over it.
// The caller closes the returned database.
func openPipeline(cfg *config.Config, logger *slog.Logger) (*db.DB, *resolution.Orchestrator, error) {
	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	orch, err := buildOrchestrator(cfg, buildResolver(database), logger)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return database, orch, nil
}
