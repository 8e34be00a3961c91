package cmd

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/intent-agent/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing ask_analytics and answer_clarification so an agent can relay clarification questions to its user.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		mcpserver.Version = Version
		logger.Info("intent-agent MCP server started on stdio", "backend", cfg.Provider)

		return mcpserver.NewServer(orch).Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
