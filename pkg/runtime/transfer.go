package runtime

import (
	"context"

	"github.com/agentcore/runtime/pkg/schema"
)

// transferInputSchema is the {reason: string, query?: string} input schema
// spec §4.5 names for every synthesized transfer tool.
var transferInputSchema = schema.NewSimpleJSONSchema(map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"reason": map[string]interface{}{
			"type":        "string",
			"description": "Why the conversation is being transferred.",
		},
		"query": map[string]interface{}{
			"type":        "string",
			"description": "The user's request, carried over to the receiving agent.",
		},
	},
	"required": []string{"reason"},
})

// transferSentinelKey is the field name the transfer tool's synthetic
// result uses to signal a handoff request (spec §4.5 "__transfer: true").
const transferSentinelKey = "__transfer"

// transferResult is the sentinel object a transfer tool's Execute returns.
type transferResult struct {
	Transfer  bool
	AgentName string
	Reason    string
	Query     string
}

func (t transferResult) asMap() map[string]interface{} {
	return map[string]interface{}{
		transferSentinelKey: t.Transfer,
		"agentName":         t.AgentName,
		"reason":            t.Reason,
		"query":             t.Query,
	}
}

// asTransferResult inspects an arbitrary tool result value for the transfer
// sentinel, returning (result, true) if found.
func asTransferResult(v interface{}) (transferResult, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return transferResult{}, false
	}
	if flag, _ := m[transferSentinelKey].(bool); !flag {
		return transferResult{}, false
	}
	agentName, _ := m["agentName"].(string)
	reason, _ := m["reason"].(string)
	query, _ := m["query"].(string)
	return transferResult{Transfer: true, AgentName: agentName, Reason: reason, Query: query}, true
}

// buildTransferTool synthesizes the transfer_to_<slug> tool for a subagent
// (grounded on agent.SubagentRegistry's naming conventions, reworked here
// for isolated-context transfer rather than full-carryover delegation).
func buildTransferTool(sourceAgent *Agent, target *Agent) Tool {
	description := target.TransferDescription
	if description == "" {
		description = "Transfers the conversation to " + target.Name + "."
	}
	name := transferToolName(target.Name)
	return Tool{
		Name:        name,
		Description: description,
		InputSchema: transferInputSchema,
		Execute: func(ctx context.Context, args map[string]interface{}, rc *RunContextWrapper) (interface{}, error) {
			reason, _ := args["reason"].(string)
			query, _ := args["query"].(string)
			return transferResult{
				Transfer:  true,
				AgentName: target.Name,
				Reason:    reason,
				Query:     query,
			}.asMap(), nil
		},
	}
}

// toolsWithTransfers returns agent.Tools augmented with one auto-generated
// transfer tool per subagent (spec §4.5, §4.7). The augmentation is
// computed per turn, never mutating the agent template itself.
func toolsWithTransfers(agent *Agent) []Tool {
	if len(agent.Subagents) == 0 {
		return agent.Tools
	}
	tools := make([]Tool, 0, len(agent.Tools)+len(agent.Subagents))
	tools = append(tools, agent.Tools...)
	for _, sub := range agent.Subagents {
		tools = append(tools, buildTransferTool(agent, sub))
	}
	return tools
}

// subagentByName builds the per-turn name→subagent lookup used to resolve a
// transfer marker in O(1) (spec §4.5).
func subagentByName(agent *Agent) map[string]*Agent {
	m := make(map[string]*Agent, len(agent.Subagents))
	for _, s := range agent.Subagents {
		m[s.Name] = s
	}
	return m
}

// isolatedMessagesForTransfer constructs the fresh message window a
// receiving agent sees after a transfer: a synthesized system line plus one
// user message (spec §4.5 context-isolation rule).
func isolatedMessagesForTransfer(sourceName, targetName, reason, query, fallbackQuery string) []Message {
	effectiveQuery := query
	if effectiveQuery == "" {
		effectiveQuery = fallbackQuery
	}
	systemLine := "[Transfer from " + sourceName + "] You are now " + targetName + ". Reason: " + reason
	return []Message{
		SystemMessage(systemLine),
		UserMessage(effectiveQuery),
	}
}

// lastUserMessageText returns the text content of the last user message in
// messages, used as the fallback "extracted user query" when a transfer
// tool call omits `query` (spec §4.5).
func lastUserMessageText(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].String()
		}
	}
	return ""
}
