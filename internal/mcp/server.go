package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/intent-agent/internal/resolution"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the analytics query tools.
type Server struct {
	orchestrator *resolution.Orchestrator
	mcp          *server.MCPServer
}

// NewServer creates a new MCP server over the given orchestrator.
func NewServer(orchestrator *resolution.Orchestrator) *Server {
	s := &Server{orchestrator: orchestrator}

	s.mcp = server.NewMCPServer(
		"intent-agent",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(askAnalyticsTool, s.handleAskAnalytics)
	s.mcp.AddTool(answerClarificationTool, s.handleAnswerClarification)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
