package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/intent-agent/internal/resolution"
)

// handleAskAnalytics starts a conversation.
func (s *Server) handleAskAnalytics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	token, err := request.RequireString("auth_token")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: auth_token"), nil
	}

	return toolResult(s.orchestrator.Start(ctx, query, token))
}

// handleAnswerClarification resumes a conversation from its pending state.
func (s *Server) handleAnswerClarification(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	answer, err := request.RequireString("answer")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: answer"), nil
	}
	state, err := request.RequireString("pending_state")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: pending_state"), nil
	}
	token := request.GetString("auth_token", "")

	return toolResult(s.orchestrator.ResumeToken(ctx, answer, state, token))
}

// toolResult renders an outcome as the same JSON body the HTTP API returns.
// Failures are flagged as tool errors.
func toolResult(out resolution.Outcome) (*mcp.CallToolResult, error) {
	body, err := json.MarshalIndent(resolution.NewResponse(out), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	if _, failed := out.(*resolution.Failure); failed {
		return mcp.NewToolResultError(string(body)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}
