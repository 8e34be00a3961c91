package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to intent-agent! Let's configure the resolver.")
	fmt.Println()

	// 1. Answer backend.
	providerPrompt := promptui.Select{
		Label: "Select answer backend",
		Items: []string{"template", "anthropic", "openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)

	cfg := DefaultConfig()
	cfg.Provider = provider

	// 2. Quality tier, only meaningful for model-backed answers.
	if provider != ProviderTemplate {
		qualityPrompt := promptui.Select{
			Label: "Select quality tier",
			Items: []string{
				"lite   - fast & cheap (haiku / gpt-4o-mini)",
				"normal - balanced (sonnet / gpt-4o)",
				"max    - highest quality (opus / gpt-4)",
			},
			CursorPos: 1,
		}
		qualityIdx, _, err := qualityPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("quality selection: %w", err)
		}
		tiers := []QualityTier{QualityLite, QualityNormal, QualityMax}
		cfg.Quality = tiers[qualityIdx]
		cfg.Model = GetPreset(provider, cfg.Quality).Model
	}

	// 3. HTTP port.
	portPrompt := promptui.Prompt{
		Label:    "HTTP port",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validatePort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 4. How pending clarifications are handed to callers.
	codecPrompt := promptui.Select{
		Label: "Pending state encoding",
		Items: []string{
			"json   - readable, callers can inspect it",
			"signed - HMAC-signed, callers cannot alter it",
		},
	}
	codecIdx, _, err := codecPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("state codec selection: %w", err)
	}
	if codecIdx == 1 {
		key, err := generateSigningKey()
		if err != nil {
			return nil, err
		}
		cfg.Resolution.StateCodec = CodecSigned
		cfg.Resolution.SigningKey = key
	}

	// 5. Credential re-validation on resume.
	revalidatePrompt := promptui.Prompt{
		Label:     "Re-check the caller's token when a clarification is answered",
		IsConfirm: true,
	}
	if _, err := revalidatePrompt.Run(); err == nil {
		cfg.Resolution.RevalidateCredential = true
	} else if err != promptui.ErrAbort {
		return nil, fmt.Errorf("revalidation: %w", err)
	}

	// Check for API key.
	envVar := APIKeyEnvVar(provider)
	if envVar != "" {
		if os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: Set %s in your environment before running intent-agent server.\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

func validatePort(s string) error {
	port, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}

// generateSigningKey returns a random 32-byte key, hex encoded.
func generateSigningKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating signing key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
