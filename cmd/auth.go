package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/intent-agent/internal/auth"
	"github.com/ziadkadry99/intent-agent/internal/config"
	"github.com/ziadkadry99/intent-agent/internal/llm"
)

var skipVerify bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API keys for LLM answer backends",
	Long: `Store and manage API keys for the LLM answer backends.

Keys are stored in ~/.intent-agent/credentials.json and used
as a fallback when environment variables are not set.`,
}

var authAnthropicCmd = &cobra.Command{
	Use:   "anthropic",
	Short: "Store Anthropic API key",
	Long: `Store your Anthropic API key for persistent use.

Get your API key at https://console.anthropic.com/settings/keys`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return storeAPIKey(cmd.Context(), config.ProviderAnthropic, "Anthropic")
	},
}

var authOpenAICmd = &cobra.Command{
	Use:   "openai",
	Short: "Store OpenAI API key",
	Long: `Store your OpenAI API key for persistent use.

Get your API key at https://platform.openai.com/api-keys`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return storeAPIKey(cmd.Context(), config.ProviderOpenAI, "OpenAI")
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which backends have credentials",
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [provider]",
	Short: "Remove stored credentials",
	Long: `Remove stored credentials for a provider.

If no provider is specified, removes all stored credentials.
Valid providers: anthropic, openai`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogout,
}

func init() {
	authAnthropicCmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "store the key without a test request")
	authOpenAICmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "store the key without a test request")

	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authAnthropicCmd)
	authCmd.AddCommand(authOpenAICmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
}

func storeAPIKey(ctx context.Context, provider config.ProviderType, label string) error {
	prompt := promptui.Prompt{
		Label: label + " API key",
		Mask:  '*',
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("API key is required")
			}
			return nil
		},
	}
	input, err := prompt.Run()
	if err != nil {
		return fmt.Errorf("reading API key: %w", err)
	}
	apiKey := strings.TrimSpace(input)

	if !skipVerify {
		fmt.Print("Verifying API key... ")
		if err := verifyAPIKey(ctx, provider, apiKey); err != nil {
			fmt.Println("failed!")
			return fmt.Errorf("key verification failed: %w", err)
		}
		fmt.Println("valid!")
	}

	store, err := auth.DefaultStore()
	if err != nil {
		return err
	}
	if err := store.SetAPIKey(string(provider), apiKey); err != nil {
		return err
	}

	fmt.Printf("%s credentials stored successfully!\n", label)
	return nil
}

// verifyAPIKey sends a one-token completion with the lite model.
func verifyAPIKey(ctx context.Context, provider config.ProviderType, apiKey string) error {
	model := config.GetPreset(provider, config.QualityLite).Model
	p, err := llm.NewProvider(string(provider), llm.Options{Model: model, APIKey: apiKey})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	_, err = p.Complete(ctx, llm.CompletionRequest{
		Model:     model,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
		MaxTokens: 1,
	})
	return err
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	store, err := auth.DefaultStore()
	if err != nil {
		return err
	}
	stored, err := store.Configured()
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	fmt.Printf("Credentials file: %s\n\n", store.Path())
	fmt.Println("Provider     Status")
	fmt.Println("--------     ------")

	for _, p := range []config.ProviderType{config.ProviderAnthropic, config.ProviderOpenAI} {
		switch {
		case os.Getenv(config.APIKeyEnvVar(p)) != "":
			fmt.Printf("%-12s configured (env var)\n", p)
		case slices.Contains(stored, string(p)):
			fmt.Printf("%-12s configured (stored)\n", p)
		default:
			fmt.Printf("%-12s not configured\n", p)
		}
	}

	// No key needed.
	fmt.Printf("%-12s available (local)\n", config.ProviderOllama)
	fmt.Printf("%-12s available (built in)\n", config.ProviderTemplate)
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	store, err := auth.DefaultStore()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		if err := store.Remove(""); err != nil {
			return err
		}
		fmt.Println("All stored credentials removed.")
		return nil
	}

	switch p := config.ProviderType(args[0]); p {
	case config.ProviderAnthropic, config.ProviderOpenAI:
		if err := store.Remove(string(p)); err != nil {
			return err
		}
		fmt.Printf("%s credentials removed.\n", p)
		return nil
	default:
		return fmt.Errorf("unknown provider %q (valid: anthropic, openai)", args[0])
	}
}
