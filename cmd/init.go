package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/intent-agent/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an intent-agent configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that picks the answer backend, server port and state encoding, then writes the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
