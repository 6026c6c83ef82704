package runtime

import (
	"context"

	"github.com/agentcore/runtime/pkg/schema"
)

// ApprovalSeverity classifies how risky a tool invocation is, for policies
// that key off severity (see approval.go).
type ApprovalSeverity string

const (
	SeverityLow      ApprovalSeverity = "low"
	SeverityMedium   ApprovalSeverity = "medium"
	SeverityHigh     ApprovalSeverity = "high"
	SeverityCritical ApprovalSeverity = "critical"
)

// ApprovalMetadata describes why a tool call might require a human decision.
type ApprovalMetadata struct {
	Severity     ApprovalSeverity
	Category     string
	RequiredRole string
	Reason       string
}

// ToolExecuteFunc runs a tool with the given arguments. It receives the
// RunContextWrapper for the call; it MUST NOT retain the wrapper beyond the
// call (see RunContextWrapper doc).
type ToolExecuteFunc func(ctx context.Context, args map[string]interface{}, rc *RunContextWrapper) (interface{}, error)

// EnabledFunc reports whether a tool is currently enabled. It is
// re-evaluated every turn (see Tool.Enabled doc).
type EnabledFunc func(rc *RunContextWrapper) bool

// NeedsApprovalFunc decides whether a specific call requires human approval.
type NeedsApprovalFunc func(rc *RunContextWrapper, args map[string]interface{}, callID string) bool

// Tool is a named capability an Agent can invoke during a turn.
type Tool struct {
	// Name must be unique within an Agent's tool set.
	Name string

	// Description helps the model decide when to use the tool.
	Description string

	// InputSchema validates the tool's arguments, if set. A nil schema
	// skips validation.
	InputSchema schema.Schema

	// Execute runs the tool. Required unless ProviderExecuted is true, in
	// which case the tool is never invoked locally — the model provider
	// executes it and the runtime only observes the result.
	Execute ToolExecuteFunc

	// ProviderExecuted marks a tool that the language-model provider
	// executes itself (e.g. a built-in search tool). The step executor
	// passes such tools through without calling Execute.
	ProviderExecuted bool

	// Enabled gates whether the tool is offered to the model this turn.
	// Nil means always enabled. Set EnabledFunc only when the predicate
	// depends on run-time state; a boolean literal should be captured by
	// returning a constant function, which callers MAY cache (see spec
	// note on dynamic tool enabling — caching is only safe for literals).
	Enabled EnabledFunc

	// NeedsApproval, when non-nil, is evaluated per call; a true result
	// causes the step executor to pause the call as a pending approval
	// instead of executing it.
	NeedsApproval NeedsApprovalFunc

	// ApprovalMetadata is attached to any ApprovalRequest generated for
	// this tool, so policies and operators can reason about risk.
	ApprovalMetadata *ApprovalMetadata
}

// isEnabled reports whether the tool is enabled for the given context.
func (t Tool) isEnabled(rc *RunContextWrapper) bool {
	if t.Enabled == nil {
		return true
	}
	return t.Enabled(rc)
}

// ToolCall is a single call the model asked the runtime to make.
type ToolCall struct {
	ID        string
	ToolName  string
	Arguments map[string]interface{}
}

// ToolCallResult is the outcome of executing (or skipping) a ToolCall.
type ToolCallResult struct {
	ToolCallID string
	ToolName   string
	Result     interface{}
	Error      string
	// NeedsApproval is true when this call was withheld pending approval
	// rather than executed.
	NeedsApproval bool
	Duration      int64 // nanoseconds
}
