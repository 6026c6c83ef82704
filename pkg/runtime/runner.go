package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/agentcore/runtime/pkg/ai"
	"github.com/agentcore/runtime/pkg/jsonparser"
	"github.com/agentcore/runtime/pkg/provider"
	"github.com/agentcore/runtime/pkg/provider/types"
)

// defaultMaxTurns is the Runner default when neither RunOptions nor the
// Agent itself set a turn budget (spec §4.7).
const defaultMaxTurns = 50

var (
	defaultModelMu sync.RWMutex
	defaultModel   provider.LanguageModel
)

// SetDefaultModel installs the process-wide fallback model used for any
// agent whose own Model field is nil (spec §5 "write-last-wins").
func SetDefaultModel(model provider.LanguageModel) {
	defaultModelMu.Lock()
	defer defaultModelMu.Unlock()
	defaultModel = model
}

func resolveModel(agent *Agent) (provider.LanguageModel, error) {
	if agent.Model != nil {
		return agent.Model, nil
	}
	defaultModelMu.RLock()
	defer defaultModelMu.RUnlock()
	if defaultModel == nil {
		return nil, &ConfigError{Message: "no model set on agent " + agent.Name + " and no default model configured"}
	}
	return defaultModel, nil
}

// RunOptions configures a single call to Run.
type RunOptions struct {
	// Context is the user-supplied dependency object threaded through
	// RunContextWrapper.Context for the duration of the run.
	Context interface{}

	// MaxTurns overrides the turn budget. Zero means "use agent.MaxSteps,
	// else defaultMaxTurns".
	MaxTurns int

	// Session, if set, supplies history before the first turn and receives
	// the final message log on successful finalization.
	Session Session

	TraceName     string
	TraceMetadata map[string]interface{}

	Listeners RunListeners
}

func ensureOptions(opts *RunOptions, agent *Agent) *RunOptions {
	var cp RunOptions
	if opts != nil {
		cp = *opts
	}
	if cp.MaxTurns <= 0 {
		if agent != nil && agent.MaxSteps > 0 {
			cp.MaxTurns = agent.MaxSteps
		} else {
			cp.MaxTurns = defaultMaxTurns
		}
	}
	return &cp
}

// Run executes agent against input to completion, a pending approval, or a
// fatal error (spec §4.7).
func Run(ctx context.Context, agent *Agent, input string, opts *RunOptions) (*RunResult, error) {
	if agent == nil {
		return nil, &ConfigError{Message: "agent must not be nil"}
	}
	if err := agent.Validate(); err != nil {
		return nil, err
	}
	opts = ensureOptions(opts, agent)

	state := NewRunState(agent, input, opts.Context, opts.MaxTurns)

	preSessionLen := 0
	if opts.Session != nil {
		history, err := opts.Session.GetHistory(ctx)
		if err != nil {
			return nil, err
		}
		if len(history) > 0 {
			state.Messages = append(append([]Message(nil), history...), state.Messages...)
			preSessionLen = len(history)
		}
	}

	ai.Notify(ctx, RunStartEvent{AgentName: agent.Name, Input: input}, opts.Listeners.OnStart...)

	traceName := opts.TraceName
	if traceName == "" {
		traceName = "run." + agent.Name
	}

	return withTrace(ctx, traceName, opts.TraceMetadata, func(ctx context.Context) (*RunResult, error) {
		rc := newContextWrapper(state)
		if err := runGuardrails(ctx, agent.Guardrails, GuardrailInput, state.OriginalInput, rc); err != nil {
			return nil, err
		}
		return runTurns(ctx, state, opts)
	})
}

// runTurns is the turn cycle of spec §4.7, factored out so ResumeAfterApproval
// can re-enter it after resolving pending approvals without repeating input
// guardrails or the initial trace setup.
func runTurns(ctx context.Context, state *RunState, opts *RunOptions) (*RunResult, error) {
	for {
		select {
		case <-ctx.Done():
			finalizeSpans(state, "aborted")
			return nil, &Aborted{Reason: ctx.Err().Error()}
		default:
		}

		state.IncrementTurn()
		if state.IsMaxTurnsExceeded() {
			finalizeSpans(state, "error")
			return nil, &MaxTurnsExceeded{AgentName: state.CurrentAgent.Name, MaxTurns: state.MaxTurns}
		}

		agent := state.CurrentAgent

		if state.CurrentAgentSpan == nil || state.CurrentAgentSpan.AgentName != agent.Name {
			if state.CurrentAgentSpan != nil {
				state.CurrentAgentSpan.End()
			}
			var span *AgentSpan
			ctx, span = createContextualSpan(ctx, "agent."+agent.Name, attribute.String("ai.agent.name", agent.Name))
			state.CurrentAgentSpan = span
		}

		rc := newContextWrapper(state)

		system := resolveInstructions(ctx, agent, rc)

		tools := filterEnabledTools(toolsWithTransfers(agent), rc)
		if agent.UseTOON {
			tools = wrapToolsWithTOON(tools)
		}

		cfg := PrepareCallConfig{
			StepNumber:       state.StepNumber + 1,
			System:           system,
			Messages:         state.Messages,
			Tools:            tools,
			ModelSettings:    agent.ModelSettings,
			AccumulatedUsage: state.Usage,
		}
		if agent.PrepareCall != nil {
			cfg = agent.PrepareCall(ctx, cfg)
		}

		ai.Notify(ctx, StepStartEvent{
			StepNumber: cfg.StepNumber,
			AgentName:  agent.Name,
			System:     cfg.System,
			Messages:   cfg.Messages,
			Tools:      cfg.Tools,
		}, opts.Listeners.OnStepStart...)

		model, err := resolveModel(agent)
		if err != nil {
			finalizeSpans(state, "error")
			return nil, err
		}

		genCtx, genSpan := createContextualGeneration(ctx, "generation."+agent.Name, model.ModelID())
		genResult, err := model.DoGenerate(genCtx, &provider.GenerateOptions{
			Prompt: types.Prompt{
				System:   cfg.System,
				Messages: toProviderMessages(cfg.Messages),
			},
			Tools:            toProviderTools(cfg.Tools),
			Temperature:      cfg.ModelSettings.Temperature,
			TopP:             cfg.ModelSettings.TopP,
			MaxTokens:        cfg.ModelSettings.MaxTokens,
			PresencePenalty:  cfg.ModelSettings.PresencePenalty,
			FrequencyPenalty: cfg.ModelSettings.FrequencyPenalty,
		})
		if err != nil {
			genSpan.recordError(err)
			genSpan.End()
			finalizeSpans(state, "error")
			return nil, err
		}

		turnUsage := Usage{
			InputTokens:  genResult.Usage.GetInputTokens(),
			OutputTokens: genResult.Usage.GetOutputTokens(),
			TotalTokens:  genResult.Usage.GetTotalTokens(),
		}
		endGeneration(genSpan, turnUsage)

		turn := modelTurn{
			Text:         genResult.Text,
			FinishReason: string(genResult.FinishReason),
			ToolCalls:    fromProviderToolCalls(genResult.ToolCalls),
		}

		for _, tc := range turn.ToolCalls {
			ai.Notify(ctx, ToolCallStartEvent{
				ToolCallID: tc.ID, ToolName: tc.ToolName, Args: tc.Arguments,
				StepNumber: cfg.StepNumber, AgentName: agent.Name,
			}, opts.Listeners.OnToolCallStart...)
		}

		step, err := executeStep(ctx, state, rc, turn)
		if err != nil {
			finalizeSpans(state, "error")
			return nil, err
		}

		for _, r := range step.StepResult.ToolCalls {
			ai.Notify(ctx, ToolCallFinishEvent{
				ToolCallID: r.ToolCallID, ToolName: r.ToolName, Result: r.Result, Error: r.Error,
				DurationMs: r.Duration / 1e6, StepNumber: cfg.StepNumber, AgentName: agent.Name,
			}, opts.Listeners.OnToolCallFinish...)
		}

		state.RecordStep(step.StepResult)
		state.Usage.Add(turnUsage)
		state.UpdateAgentMetrics(agent.Name, turnUsage, len(step.StepResult.ToolCalls))

		ai.Notify(ctx, StepFinishEvent{Step: step.StepResult}, opts.Listeners.OnStepFinish...)

		switch step.NextStep.Kind {
		case NextStepInterruption:
			state.CurrentAgentSpan.Finish("interrupted", map[string]interface{}{"interrupted": true})
			state.CurrentAgentSpan = nil
			state.Finish()
			rr := newRunResult(state, nil, "interrupted")
			ai.Notify(ctx, FinishEvent{Result: rr}, opts.Listeners.OnFinish...)
			return rr, nil

		case NextStepHandoff:
			target := step.NextStep.NewAgent
			state.TrackHandoff(target.Name)
			fallbackQuery := lastUserMessageText(state.Messages)
			queryStr, _ := step.NextStep.Context.(string)
			state.Messages = isolatedMessagesForTransfer(agent.Name, target.Name, step.NextStep.Reason, queryStr, fallbackQuery)
			state.CurrentAgent = target
			// The isolated slice replaces, not extends, state.Messages, so
			// none of it is session history anymore - all of it is new.
			preSessionLen = 0
			continue

		case NextStepFinalOutput:
			output := step.NextStep.Output
			if err := runGuardrails(ctx, agent.Guardrails, GuardrailOutput, output, rc); err != nil {
				finalizeSpans(state, "error")
				return nil, err
			}
			finalOutput, warning := parseFinalOutput(agent, output)
			state.CurrentAgentSpan.Finish("success", map[string]interface{}{"output": output})
			state.CurrentAgentSpan = nil
			state.Finish()
			if opts.Session != nil {
				if err := opts.Session.AddMessages(ctx, state.Messages[preSessionLen:]); err != nil {
					return nil, err
				}
			}
			rr := newRunResult(state, finalOutput, "stop")
			rr.Metadata.OutputParseWarning = warning
			ai.Notify(ctx, FinishEvent{Result: rr}, opts.Listeners.OnFinish...)
			return rr, nil

		default: // run_again
			continue
		}
	}
}

func finalizeSpans(state *RunState, level string) {
	if state.CurrentAgentSpan != nil {
		state.CurrentAgentSpan.Finish(level, nil)
		state.CurrentAgentSpan = nil
	}
	state.Finish()
}

func resolveInstructions(ctx context.Context, agent *Agent, rc *RunContextWrapper) string {
	if agent.InstructionsFn != nil {
		return agent.InstructionsFn(ctx, rc)
	}
	return agent.Instructions
}

func filterEnabledTools(tools []Tool, rc *RunContextWrapper) []Tool {
	out := make([]Tool, 0, len(tools))
	for _, t := range tools {
		if t.isEnabled(rc) {
			out = append(out, t)
		}
	}
	return out
}

// wrapToolsWithTOON wraps each tool's Execute so a non-trivial (map or
// slice) result is flattened into a compact textual form before the model
// sees it (spec §4.7 "useTOON"). This is a minimal compact encoder, not an
// implementation of the TOON format itself, which the core deliberately
// does not ship (see Agent.UseTOON).
func wrapToolsWithTOON(tools []Tool) []Tool {
	out := make([]Tool, len(tools))
	for i, t := range tools {
		t := t
		if t.Execute != nil {
			inner := t.Execute
			t.Execute = func(ctx context.Context, args map[string]interface{}, rc *RunContextWrapper) (interface{}, error) {
				result, err := inner(ctx, args, rc)
				if err != nil {
					return result, err
				}
				return compactEncode(result), nil
			}
		}
		out[i] = t
	}
	return out
}

func compactEncode(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, val[k]))
		}
		return strings.Join(parts, "; ")
	case []interface{}:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = fmt.Sprintf("%v", e)
		}
		return strings.Join(parts, ", ")
	default:
		return v
	}
}

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// stripFence extracts the first fenced code block's contents, or returns
// text unchanged if none is present.
func stripFence(text string) string {
	if m := fencedBlockPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

// parseFinalOutput validates/parses a final turn's text against the agent's
// OutputSchema, falling back to fenced-JSON extraction and finally raw text
// with a warning (spec §7 OutputParseError, §9 "JSON parsing fallback").
func parseFinalOutput(agent *Agent, output string) (interface{}, string) {
	if agent.OutputSchema == nil {
		return output, ""
	}

	attempt := func(text string) (interface{}, error) {
		var decoded interface{}
		if err := json.Unmarshal([]byte(text), &decoded); err != nil {
			return nil, err
		}
		if err := agent.OutputSchema.Validator().Validate(decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	}

	if v, err := attempt(output); err == nil {
		return v, ""
	}

	fenced := stripFence(output)
	if v, err := attempt(fenced); err == nil {
		return v, ""
	}

	repaired := jsonparser.FixJSON(fenced)
	if v, err := attempt(repaired); err == nil {
		return v, ""
	}

	return output, fmt.Sprintf("agent %q output failed schema validation; returned raw text", agent.Name)
}

func toProviderRole(r Role) types.MessageRole {
	switch r {
	case RoleSystem:
		return types.RoleSystem
	case RoleAssistant:
		return types.RoleAssistant
	case RoleTool:
		return types.RoleTool
	default:
		return types.RoleUser
	}
}

func toProviderMessages(msgs []Message) []types.Message {
	out := make([]types.Message, len(msgs))
	for i, m := range msgs {
		var content []types.ContentPart
		if m.Role == RoleTool {
			content = []types.ContentPart{types.ToolResultContent{
				ToolCallID: m.ToolCallID,
				ToolName:   m.Name,
				Result:     m.Content,
			}}
		} else {
			content = []types.ContentPart{types.TextContent{Text: m.String()}}
		}
		out[i] = types.Message{Role: toProviderRole(m.Role), Content: content, Name: m.Name}
	}
	return out
}

func toProviderTools(tools []Tool) []types.Tool {
	out := make([]types.Tool, len(tools))
	for i, t := range tools {
		var params interface{} = map[string]interface{}{}
		if t.InputSchema != nil {
			params = t.InputSchema.Validator().JSONSchema()
		}
		out[i] = types.Tool{
			Name:             t.Name,
			Description:      t.Description,
			Parameters:       params,
			ProviderExecuted: t.ProviderExecuted,
		}
	}
	return out
}

func fromProviderToolCalls(calls []types.ToolCall) []ToolCall {
	out := make([]ToolCall, len(calls))
	for i, c := range calls {
		out[i] = ToolCall{ID: c.ID, ToolName: c.ToolName, Arguments: c.Arguments}
	}
	return out
}

// NeedsApproval reports whether result paused with pending interruptions.
func NeedsApproval(result *RunResult) bool {
	return result != nil && result.State != nil && result.State.HasInterruptions()
}

// GetPendingApprovals returns the pending ApprovalRequests on result's state,
// or nil if there are none.
func GetPendingApprovals(result *RunResult) []*ApprovalRequest {
	if result == nil || result.State == nil {
		return nil
	}
	return result.State.PendingInterruptions
}

// ResumeAfterApproval applies decisions to state's pending interruptions in
// order, executes approved tool calls exactly once, synthesizes rejection
// results for the rest, clears the interruption list, and continues the
// run's turn loop (spec §4.7 step 7 "interruption", §8 "Approval resume").
func ResumeAfterApproval(ctx context.Context, state *RunState, decisions []ApprovalDecision, opts *RunOptions) (*RunResult, error) {
	if state == nil {
		return nil, &ConfigError{Message: "resumeAfterApproval: state must not be nil"}
	}
	requests := state.PendingInterruptions
	if len(decisions) != len(requests) {
		return nil, &ConfigError{Message: "resumeAfterApproval: decisions count must match pending interruptions"}
	}
	agent := state.CurrentAgent
	opts = ensureOptions(opts, agent)

	rc := newContextWrapper(state)
	toolsByName := make(map[string]Tool, len(agent.Tools))
	for _, t := range toolsWithTransfers(agent) {
		toolsByName[t.Name] = t
	}

	resumeMessages := make([]Message, 0, len(requests))
	for i, req := range requests {
		dec := decisions[i]
		if !dec.Approve {
			req.Status = ApprovalRejected
			reason := dec.Reason
			if reason == "" {
				reason = "rejected by operator"
			}
			resumeMessages = append(resumeMessages, ToolMessage(req.CallID, req.ToolName, "error: "+reason))
			continue
		}

		req.Status = ApprovalApproved
		args := req.Args
		if dec.ModifiedArgs != nil {
			args = dec.ModifiedArgs
		}

		tool, found := toolsByName[req.ToolName]
		var content string
		if !found {
			content = "error: unknown tool"
		} else {
			result := runTool(ctx, tool, ToolCall{ID: req.CallID, ToolName: req.ToolName, Arguments: args}, rc)
			ai.Notify(ctx, ToolCallFinishEvent{
				ToolCallID: result.ToolCallID, ToolName: result.ToolName, Result: result.Result,
				Error: result.Error, DurationMs: result.Duration / 1e6, AgentName: agent.Name,
			}, opts.Listeners.OnToolCallFinish...)
			if result.Error != "" {
				content = result.Error
			} else {
				content = stringifyToolResult(result.Result)
			}
		}
		resumeMessages = append(resumeMessages, ToolMessage(req.CallID, req.ToolName, content))
	}

	state.Messages = append(state.Messages, resumeMessages...)
	state.ClearInterruptions()
	state.CurrentAgentSpan = nil

	traceName := opts.TraceName
	if traceName == "" {
		traceName = "resume." + agent.Name
	}
	return withTrace(ctx, traceName, opts.TraceMetadata, func(ctx context.Context) (*RunResult, error) {
		return runTurns(ctx, state, opts)
	})
}

// RunWithApprovalCallback runs agent to completion, invoking callback every
// time the run pauses for approval and resuming with its decisions, until
// the run finalizes or fails.
func RunWithApprovalCallback(ctx context.Context, agent *Agent, input string, callback func(context.Context, []*ApprovalRequest) []ApprovalDecision, opts *RunOptions) (*RunResult, error) {
	result, err := Run(ctx, agent, input, opts)
	for err == nil && NeedsApproval(result) {
		decisions := callback(ctx, GetPendingApprovals(result))
		result, err = ResumeAfterApproval(ctx, result.State, decisions, opts)
	}
	return result, err
}

// StreamEvent is one element of a RunStream's fullStream.
type StreamEvent struct {
	Type string // "text-delta" | "step-finish" | "finish"
	Text string
	Step *StepResult
}

// StreamResult mirrors spec §6's runStream output shape. The core's turn
// loop is not incremental (each turn is one complete DoGenerate call), so
// TextStream replays the finalized output as chunks after the run completes
// rather than delivering true token-level deltas mid-turn; FullStream
// additionally reports each step boundary. Completed resolves once, after
// the run finishes or fails.
type StreamResult struct {
	TextStream <-chan string
	FullStream <-chan StreamEvent
	Completed  <-chan struct{}

	Result error
	result *RunResult
}

// RunStream runs agent against input, delivering the outcome over channels
// instead of (only) a return value.
func RunStream(ctx context.Context, agent *Agent, input string, opts *RunOptions) *StreamResult {
	textCh := make(chan string, 1)
	fullCh := make(chan StreamEvent, 8)
	doneCh := make(chan struct{})
	sr := &StreamResult{TextStream: textCh, FullStream: fullCh, Completed: doneCh}

	go func() {
		defer close(doneCh)
		defer close(textCh)
		defer close(fullCh)

		result, err := Run(ctx, agent, input, opts)
		sr.result = result
		sr.Result = err
		if err != nil {
			return
		}
		for _, step := range result.Steps {
			s := step
			fullCh <- StreamEvent{Type: "step-finish", Step: &s}
		}
		if text, ok := result.FinalOutput.(string); ok && text != "" {
			textCh <- text
			fullCh <- StreamEvent{Type: "text-delta", Text: text}
		}
		fullCh <- StreamEvent{Type: "finish"}
	}()

	return sr
}
