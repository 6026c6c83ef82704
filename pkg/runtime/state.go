package runtime

import (
	"time"

	"github.com/google/uuid"
)

// StepResult records the outcome of one turn.
type StepResult struct {
	StepNumber   int
	AgentName    string
	ToolCalls    []ToolCallResult
	Text         string
	FinishReason string
	Timestamp    time.Time
}

// AgentMetrics accumulates per-agent statistics across a run.
type AgentMetrics struct {
	Turns     int
	Tokens    Usage
	ToolCalls int
	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time
}

// NextStepKind discriminates the Step executor's decision for a turn.
type NextStepKind string

const (
	NextStepRunAgain     NextStepKind = "run_again"
	NextStepHandoff      NextStepKind = "handoff"
	NextStepFinalOutput  NextStepKind = "final_output"
	NextStepInterruption NextStepKind = "interruption"
)

// NextStep is the tagged decision returned by the Step executor for the turn
// just processed (spec §3).
type NextStep struct {
	Kind NextStepKind

	// Handoff fields.
	NewAgent *Agent
	Reason   string
	Context  interface{}

	// FinalOutput field.
	Output string

	// Interruption field.
	Interruptions []*ApprovalRequest
}

// ApprovalStatus is the lifecycle state of an ApprovalRequest.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ApprovalRequest represents one tool call withheld pending a human decision.
type ApprovalRequest struct {
	ID              string // == ToolCallID
	ToolName        string
	Args            map[string]interface{}
	CallID          string
	ContextSnapshot interface{}
	Metadata        ApprovalRequestMetadata
	Status          ApprovalStatus
}

// ApprovalRequestMetadata is attached to every ApprovalRequest for operator
// review.
type ApprovalRequestMetadata struct {
	Severity     ApprovalSeverity
	RequiredRole string
	Reason       string
	Timestamp    time.Time
}

// RunState is the authoritative, serializable container of a run's mutable
// data (spec §3). It is owned exclusively by the Runner/Step executor;
// tools and guardrails see it only through RunContextWrapper.
type RunState struct {
	CurrentAgent  *Agent
	OriginalInput string
	Messages      []Message
	Context       interface{}
	MaxTurns      int
	CurrentTurn   int
	StepNumber    int

	Steps []StepResult

	// AgentMetrics maps agent name to accumulated metrics, created on first
	// use.
	AgentMetrics map[string]*AgentMetrics

	Usage Usage

	// HandoffChain is insertion-ordered, duplicates suppressed via a
	// parallel set for O(1) de-duplication.
	HandoffChain     []string
	handoffSeen      map[string]bool
	PendingInterruptions []*ApprovalRequest

	CurrentStep NextStep

	// Tracing handles (see tracing.go); opaque to callers.
	Trace            *Trace
	CurrentAgentSpan *AgentSpan

	startTime time.Time
	endTime   time.Time
}

// NewRunState constructs a RunState for a run of agent against input, with
// the given user-supplied context object and turn budget.
func NewRunState(agent *Agent, input string, context interface{}, maxTurns int) *RunState {
	s := &RunState{
		CurrentAgent:  agent,
		OriginalInput: input,
		Context:       context,
		MaxTurns:      maxTurns,
		AgentMetrics:  make(map[string]*AgentMetrics),
		handoffSeen:   make(map[string]bool),
		startTime:     time.Now(),
	}
	if input != "" {
		s.Messages = []Message{UserMessage(input)}
	}
	s.trackHandoffLocked(agent.Name)
	return s
}

// IncrementTurn advances the turn counter.
func (s *RunState) IncrementTurn() {
	s.CurrentTurn++
}

// IsMaxTurnsExceeded reports whether the run has used its full turn budget.
func (s *RunState) IsMaxTurnsExceeded() bool {
	return s.CurrentTurn >= s.MaxTurns
}

// RecordStep appends step to Steps and increments the step counter.
func (s *RunState) RecordStep(step StepResult) {
	s.StepNumber++
	step.StepNumber = s.StepNumber
	s.Steps = append(s.Steps, step)
}

// UpdateAgentMetrics accumulates token and tool-call deltas for the named
// agent, creating its metrics record on first use.
func (s *RunState) UpdateAgentMetrics(name string, tokensDelta Usage, toolCallsDelta int) {
	m, ok := s.AgentMetrics[name]
	if !ok {
		m = &AgentMetrics{StartTime: time.Now()}
		s.AgentMetrics[name] = m
	}
	m.Turns++
	m.Tokens.Add(tokensDelta)
	m.ToolCalls += toolCallsDelta
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
}

// TrackHandoff appends name to HandoffChain iff it is not already present.
func (s *RunState) TrackHandoff(name string) {
	s.trackHandoffLocked(name)
}

func (s *RunState) trackHandoffLocked(name string) {
	if s.handoffSeen[name] {
		return
	}
	s.handoffSeen[name] = true
	s.HandoffChain = append(s.HandoffChain, name)
}

// AddInterruption appends req to PendingInterruptions.
func (s *RunState) AddInterruption(req *ApprovalRequest) {
	s.PendingInterruptions = append(s.PendingInterruptions, req)
}

// HasInterruptions reports whether any approval is pending.
func (s *RunState) HasInterruptions() bool {
	return len(s.PendingInterruptions) > 0
}

// ClearInterruptions empties PendingInterruptions.
func (s *RunState) ClearInterruptions() {
	s.PendingInterruptions = nil
}

// GetDuration returns elapsed wall-clock time since the RunState was
// constructed (or until Finish was called, if the run has ended).
func (s *RunState) GetDuration() time.Duration {
	if !s.endTime.IsZero() {
		return s.endTime.Sub(s.startTime)
	}
	return time.Since(s.startTime)
}

// Finish marks the run as complete for GetDuration purposes.
func (s *RunState) Finish() {
	s.endTime = time.Now()
}

// ToJSON returns a JSON-serializable summary of the run state: agent name,
// input, turn counters, usage, handoff chain and duration. It leaves out
// the messages, the context and the pending interruptions, and nothing in
// this package rebuilds a RunState from it; ResumeAfterApproval resumes
// from the *RunState itself.
func (s *RunState) ToJSON() map[string]interface{} {
	agentName := ""
	if s.CurrentAgent != nil {
		agentName = s.CurrentAgent.Name
	}
	return map[string]interface{}{
		"currentAgent":  agentName,
		"originalInput": s.OriginalInput,
		"maxTurns":      s.MaxTurns,
		"currentTurn":   s.CurrentTurn,
		"stepNumber":    s.StepNumber,
		"usage":         s.Usage.ToJSON(),
		"handoffChain":  s.HandoffChain,
		"duration":      s.GetDuration().String(),
	}
}

// newApprovalID generates a fresh identifier for a synthesized tool call.
// No caller in this package uses it: the step executor gives each
// ApprovalRequest the model-provided tool-call ID.
func newApprovalID() string {
	return uuid.NewString()
}
