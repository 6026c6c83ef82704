package runtime

import "time"

// RunMetadata summarizes a completed or interrupted run.
type RunMetadata struct {
	TotalTokens      int64
	PromptTokens     int64
	CompletionTokens int64
	FinishReason     string
	TotalToolCalls   int
	HandoffChain     []string
	AgentMetrics     map[string]*AgentMetrics
	Duration         time.Duration

	// OutputParseWarning is set when final_output failed outputSchema
	// validation and the fenced-JSON fallback (or raw text) was used instead
	// (spec §7 OutputParseError).
	OutputParseWarning string
}

// RunResult is the outcome of a run. FinalOutput is empty and FinishReason
// is "interrupted" when the run paused for approval; State is always
// attached so a caller can inspect or resume it.
type RunResult struct {
	FinalOutput interface{}
	Messages    []Message
	Steps       []StepResult
	State       *RunState
	Metadata    RunMetadata

	// WinningAgent and ParticipantAgents are set by the `race` coordination
	// primitive (see coordination.go); zero-valued otherwise.
	WinningAgent      *Agent
	ParticipantAgents []string

	// WorkerResults is set by the `judge` coordination primitive.
	WorkerResults []*RunResult

	// Aggregated and FailedAgents mirror the ParallelResult fields of the
	// same name; Parallel returns a ParallelResult and leaves these
	// zero-valued.
	Aggregated   interface{}
	FailedAgents map[string]error
}

func newRunResult(state *RunState, finalOutput interface{}, finishReason string) *RunResult {
	var toolCalls int
	for _, step := range state.Steps {
		toolCalls += len(step.ToolCalls)
	}
	return &RunResult{
		FinalOutput: finalOutput,
		Messages:    state.Messages,
		Steps:       state.Steps,
		State:       state,
		Metadata: RunMetadata{
			TotalTokens:      state.Usage.TotalTokens,
			PromptTokens:     state.Usage.InputTokens,
			CompletionTokens: state.Usage.OutputTokens,
			FinishReason:     finishReason,
			TotalToolCalls:   toolCalls,
			HandoffChain:     state.HandoffChain,
			AgentMetrics:     state.AgentMetrics,
			Duration:         state.GetDuration(),
		},
	}
}
