package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderTemplate {
		t.Errorf("expected default provider %q, got %q", ProviderTemplate, cfg.Provider)
	}
	if cfg.Quality != QualityNormal {
		t.Errorf("expected default quality %q, got %q", QualityNormal, cfg.Quality)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Resolution.StateCodec != CodecJSON {
		t.Errorf("expected default codec %q, got %q", CodecJSON, cfg.Resolution.StateCodec)
	}
	if cfg.Resolution.RevalidateCredential {
		t.Error("credential re-validation should be off by default")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "test.intent-agent.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.Model = "gpt-4o"
	original.Quality = QualityMax
	original.RateLimitRPM = 30
	original.Server.Port = 9090
	original.Resolution.StateCodec = CodecSigned
	original.Resolution.SigningKey = "0123456789abcdef0123"
	original.Resolution.RevalidateCredential = true

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Quality != original.Quality {
		t.Errorf("quality: got %q, want %q", loaded.Quality, original.Quality)
	}
	if loaded.RateLimitRPM != 30 {
		t.Errorf("rate_limit_rpm: got %d, want 30", loaded.RateLimitRPM)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("server.port: got %d, want 9090", loaded.Server.Port)
	}
	if loaded.Resolution != original.Resolution {
		t.Errorf("resolution: got %+v, want %+v", loaded.Resolution, original.Resolution)
	}
	if len(loaded.Rules.Scopes) != 0 || len(loaded.Rules.Refinements) != 0 {
		t.Errorf("expected no rule overrides, got %+v", loaded.Rules)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderTemplate {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadRuleOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yml")
	data := `
provider: template
rules:
  scopes:
    - result: Food
      triggers: [food, meal]
    - result: Payments
      when: 'query contains "refund" or query contains "payout"'
  refinements:
    - triggers: [gmv]
      options: [gross_gmv, net_gmv]
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Rules.Scopes) != 2 {
		t.Fatalf("expected 2 scope rules, got %d", len(cfg.Rules.Scopes))
	}
	if cfg.Rules.Scopes[0].Result != "Food" || len(cfg.Rules.Scopes[0].Triggers) != 2 {
		t.Errorf("unexpected first scope rule %+v", cfg.Rules.Scopes[0])
	}
	if cfg.Rules.Scopes[1].When == "" {
		t.Error("expected expression on second scope rule")
	}
	if got := cfg.Rules.Refinements[0].Options; len(got) != 2 || got[1] != "net_gmv" {
		t.Errorf("unexpected refinement options %v", got)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("INTENT_PROVIDER", "ollama")
	t.Setenv("INTENT_SERVER__PORT", "7070")
	t.Setenv("INTENT_RESOLUTION__REVALIDATE_CREDENTIAL", "true")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOllama {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOllama)
	}
	if loaded.Server.Port != 7070 {
		t.Errorf("nested env override failed: got %d, want 7070", loaded.Server.Port)
	}
	if !loaded.Resolution.RevalidateCredential {
		t.Error("expected revalidate_credential from env")
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty provider", func(c *Config) { c.Provider = "" }},
		{"invalid provider", func(c *Config) { c.Provider = "invalid" }},
		{"model missing for llm backend", func(c *Config) { c.Provider = ProviderOpenAI; c.Model = "" }},
		{"invalid quality", func(c *Config) { c.Quality = "ultra" }},
		{"negative rate limit", func(c *Config) { c.RateLimitRPM = -1 }},
		{"empty database path", func(c *Config) { c.DatabasePath = "" }},
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"negative timeout", func(c *Config) { c.Server.RequestTimeoutSeconds = -1 }},
		{"unknown codec", func(c *Config) { c.Resolution.StateCodec = "xml" }},
		{"signed codec without key", func(c *Config) { c.Resolution.StateCodec = CodecSigned }},
		{"signed codec short key", func(c *Config) {
			c.Resolution.StateCodec = CodecSigned
			c.Resolution.SigningKey = "short"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateTemplateNeedsNoModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("template provider should not require a model: %v", err)
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset(ProviderAnthropic, QualityLite)
	if p.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("expected haiku model, got %q", p.Model)
	}

	p = GetPreset(ProviderOpenAI, QualityMax)
	if p.Model != "gpt-4" {
		t.Errorf("expected gpt-4, got %q", p.Model)
	}

	// Unknown combination falls back.
	p = GetPreset("unknown", QualityLite)
	if p.Model != "claude-sonnet-4-5-20250929" {
		t.Errorf("expected fallback to sonnet, got %q", p.Model)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderOllama, ""},
		{ProviderTemplate, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestValidatePort(t *testing.T) {
	for _, ok := range []string{"1", "8080", "65535"} {
		if err := validatePort(ok); err != nil {
			t.Errorf("validatePort(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "abc", "0", "65536"} {
		if err := validatePort(bad); err == nil {
			t.Errorf("validatePort(%q) should fail", bad)
		}
	}
}

func TestGenerateSigningKey(t *testing.T) {
	a, err := generateSigningKey()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := generateSigningKey()
	if len(a) != 64 || a == b {
		t.Errorf("unexpected keys %q %q", a, b)
	}
}
