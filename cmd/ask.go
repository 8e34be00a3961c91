package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/intent-agent/internal/resolution"
)

var askToken string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask an analytics question interactively",
	Long: `Resolves a question against the configured answer backend. When the
department or metric is unclear you are asked to pick one from a list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if askToken == "" {
			askToken = os.Getenv("INTENT_TOKEN")
		}
		if askToken == "" {
			return fmt.Errorf("--token (or INTENT_TOKEN) is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger := newLogger()
		database, orch, err := openPipeline(cfg, logger)
		if err != nil {
			return err
		}
		defer database.Close()

		query := strings.Join(args, " ")
		return runConversation(cmd.Context(), orch, query, askToken, promptChoice, os.Stdout)
	},
}

// chooser asks the user to pick one of options.
type chooser func(label string, options []string) (string, error)

func promptChoice(label string, options []string) (string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: options,
	}
	_, choice, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("selection: %w", err)
	}
	return choice, nil
}

// runConversation drives one question to a final answer, asking choose
// for every clarification.
func runConversation(ctx context.Context, o *resolution.Orchestrator, query, token string, choose chooser, out io.Writer) error {
	outcome := o.Start(ctx, query, token)
	for {
		switch v := outcome.(type) {
		case *resolution.Clarification:
			choice, err := choose(v.Message, v.Options)
			if err != nil {
				return err
			}
			outcome = o.ResumeToken(ctx, choice, v.State, token)

		case *resolution.Final:
			fmt.Fprintln(out, v.Answer)
			if verbose && len(v.DebugContext) > 0 {
				data, err := json.MarshalIndent(v.DebugContext, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding debug context: %w", err)
				}
				fmt.Fprintln(out, string(data))
			}
			return nil

		case *resolution.Failure:
			return fmt.Errorf("%s: %s", v.Kind, v.Message)

		default:
			return fmt.Errorf("unexpected outcome %T", outcome)
		}
	}
}

func init() {
	askCmd.Flags().StringVar(&askToken, "token", "", "caller credential (defaults to $INTENT_TOKEN)")
	rootCmd.AddCommand(askCmd)
}
