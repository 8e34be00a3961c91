package answer

import (
	"fmt"

	"github.com/ziadkadry99/intent-agent/internal/config"
	"github.com/ziadkadry99/intent-agent/internal/llm"
)

const systemPrompt = `You are an analytics assistant for a delivery platform. Each department
keeps its data in a table named <department>_table (lower case). You are
given a question whose department and metric have already been settled.
Write the SQL that would answer it and a short answer for a business user.

Respond with JSON only, in the form:
{"answer": "...", "sql_query": "..."}`

const litePromptTemplate = `Department: %s
Metric: %s
Question: %s

Keep the answer to one sentence.`

const normalPromptTemplate = `Department: %s
Metric: %s
Question: %s

Answer in two or three sentences and name the metric you used.`

const maxPromptTemplate = `Department: %s
Metric: %s
Question: %s

Answer in a short paragraph. Name the metric you used, state any
assumptions about time range or filters, and mention one follow-up
question worth asking.`

const crossScopePromptTemplate = `Departments: %s
Question: %s

This question spans several departments. Join the relevant department
tables in the SQL and keep the answer to a few sentences.`

// buildMessages constructs the prompt for a single-department question.
func buildMessages(tier config.QualityTier, req Request) []llm.Message {
	metric := req.Refinement
	if metric == "" {
		metric = "infer from the question"
	}

	var userPrompt string
	switch tier {
	case config.QualityMax:
		userPrompt = fmt.Sprintf(maxPromptTemplate, req.Scope, metric, req.Query)
	case config.QualityLite:
		userPrompt = fmt.Sprintf(litePromptTemplate, req.Scope, metric, req.Query)
	default:
		userPrompt = fmt.Sprintf(normalPromptTemplate, req.Scope, metric, req.Query)
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userPrompt},
	}
}

// buildCrossScopeMessages constructs the prompt for a question spanning departments.
func buildCrossScopeMessages(query, scopeMarker string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(crossScopePromptTemplate, scopeMarker, query)},
	}
}
