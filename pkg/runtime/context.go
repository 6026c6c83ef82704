package runtime

// RunContextWrapper is handed to tools and guardrails for the duration of a
// single call. It exposes the user-supplied context object, the current
// agent, a live reference to the conversation, and live usage totals.
//
// Tools and guardrails MUST NOT retain a RunContextWrapper beyond the call
// that received it: Messages is a live slice owned by RunState and may be
// reallocated (e.g. on transfer, which replaces it wholesale) on the very
// next turn.
type RunContextWrapper struct {
	// Context is the user-supplied dependency object passed into Run.
	Context interface{}

	// Agent is the agent currently executing.
	Agent *Agent

	// Messages is a live reference to the run's conversation. Read-only for
	// tools; only the Runner and Step executor mutate it.
	Messages []Message

	// Usage is a live reference to the run's accumulated token usage.
	// Guardrails that consult a model MUST add their cost here (spec §4.3).
	Usage *Usage
}

func newContextWrapper(state *RunState) *RunContextWrapper {
	return &RunContextWrapper{
		Context:  state.Context,
		Agent:    state.CurrentAgent,
		Messages: state.Messages,
		Usage:    &state.Usage,
	}
}
