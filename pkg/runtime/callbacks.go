package runtime

import (
	"github.com/agentcore/runtime/pkg/ai"
)

// The six structured lifecycle events a run emits, adapted from
// pkg/ai/callback_events.go's OnStart/OnStepStart/OnToolCallStart/
// OnToolCallFinish/OnStepFinish/OnFinish shapes to this package's own
// Message/Tool/StepResult/RunResult types (the teacher's events carry
// provider-specific types.* values that don't describe isolated-transfer
// runs). Dispatch reuses pkg/ai's generic Notify/Listener machinery
// unchanged.

// RunStartEvent fires once before the first model call.
type RunStartEvent struct {
	AgentName string
	Input     string
}

// StepStartEvent fires at the beginning of each turn, before the model call.
type StepStartEvent struct {
	StepNumber int
	AgentName  string
	System     string
	Messages   []Message
	Tools      []Tool
}

// ToolCallStartEvent fires just before a tool's Execute runs.
type ToolCallStartEvent struct {
	ToolCallID string
	ToolName   string
	Args       map[string]interface{}
	StepNumber int
	AgentName  string
}

// ToolCallFinishEvent fires after a tool call resolves, successfully or not.
type ToolCallFinishEvent struct {
	ToolCallID string
	ToolName   string
	Result     interface{}
	Error      string
	DurationMs int64
	StepNumber int
	AgentName  string
}

// StepFinishEvent fires once a turn's StepResult has been recorded.
type StepFinishEvent struct {
	Step StepResult
}

// FinishEvent fires once when the run reaches a terminal RunResult
// (final_output or interruption).
type FinishEvent struct {
	Result *RunResult
}

// RunListeners holds the listener sets a caller supplies via RunOptions.
// Any slice may be nil; ai.Notify treats that as a no-op.
type RunListeners struct {
	OnStart         []ai.Listener[RunStartEvent]
	OnStepStart     []ai.Listener[StepStartEvent]
	OnToolCallStart []ai.Listener[ToolCallStartEvent]
	OnToolCallFinish []ai.Listener[ToolCallFinishEvent]
	OnStepFinish    []ai.Listener[StepFinishEvent]
	OnFinish        []ai.Listener[FinishEvent]
}
