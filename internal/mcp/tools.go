package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askAnalyticsTool defines the ask_analytics MCP tool.
var askAnalyticsTool = mcp.NewTool("ask_analytics",
	mcp.WithDescription("Ask an analytics question in plain language. Returns either an answer or a clarification "+
		"listing the options to choose from; answer a clarification with answer_clarification."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("The analytics question, e.g. \"show order count\""),
	),
	mcp.WithString("auth_token",
		mcp.Required(),
		mcp.Description("Caller token that decides which departments may be queried"),
	),
)

// answerClarificationTool defines the answer_clarification MCP tool.
var answerClarificationTool = mcp.NewTool("answer_clarification",
	mcp.WithDescription("Answer a clarification returned by ask_analytics. The answer must be exactly one of the offered options."),
	mcp.WithString("answer",
		mcp.Required(),
		mcp.Description("One of the options listed in the clarification"),
	),
	mcp.WithString("pending_state",
		mcp.Required(),
		mcp.Description("The pending_state value from the clarification, passed back unchanged"),
	),
	mcp.WithString("auth_token",
		mcp.Description("Caller token; required when the server re-checks credentials on each turn"),
	),
)
