package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// modelTurn is the Step executor's input: the classified output of one
// model call (grounded on toolloop.go's executeStep, generalized from the
// teacher's provider-specific types.GenerateResult into a plain struct the
// Runner builds after calling the language model).
type modelTurn struct {
	Text         string
	FinishReason string
	ToolCalls    []ToolCall
}

// singleStepResult is the Step executor's output (spec §4.6).
type singleStepResult struct {
	NewMessages []Message
	NextStep    NextStep
	StepResult  StepResult
}

// classifiedCall tags one tool call with its executor path.
type classifiedCall struct {
	call       ToolCall
	index      int
	isTransfer bool
	tool       Tool // zero value if disabled/not-found
	found      bool
}

// executeStep runs the Step executor procedure described in spec §4.6 for
// one turn: classify, filter-enabled, approval-check, parallel-execute,
// append messages, record step, select NextStep.
func executeStep(ctx context.Context, state *RunState, rc *RunContextWrapper, turn modelTurn) (singleStepResult, error) {
	agent := state.CurrentAgent
	allTools := toolsWithTransfers(agent)
	toolsByName := make(map[string]Tool, len(allTools))
	for _, t := range allTools {
		toolsByName[t.Name] = t
	}
	subagents := subagentByName(agent)

	// 1. Classify.
	classified := make([]classifiedCall, len(turn.ToolCalls))
	for i, call := range turn.ToolCalls {
		tool, found := toolsByName[call.ToolName]
		isTransfer := found && isTransferToolName(call.ToolName, subagents)
		classified[i] = classifiedCall{call: call, index: i, isTransfer: isTransfer, tool: tool, found: found}
	}

	// 2 & 3. Filter by enabled, check approval, partition into
	// execute-now vs. pending-approval vs. synthetic-disabled.
	results := make([]ToolCallResult, len(classified))
	var pendingApprovals []*ApprovalRequest
	var toExecute []int

	for _, c := range classified {
		if c.isTransfer {
			continue // handled separately below, never executed as a tool
		}
		if !c.found {
			results[c.index] = ToolCallResult{
				ToolCallID: c.call.ID,
				ToolName:   c.call.ToolName,
				Error:      "unknown tool",
			}
			continue
		}
		if !c.tool.isEnabled(rc) {
			results[c.index] = ToolCallResult{
				ToolCallID: c.call.ID,
				ToolName:   c.call.ToolName,
				Error:      "tool disabled",
			}
			continue
		}
		if c.tool.NeedsApproval != nil && c.tool.NeedsApproval(rc, c.call.Arguments, c.call.ID) {
			req := &ApprovalRequest{
				ID:       c.call.ID,
				ToolName: c.call.ToolName,
				Args:     c.call.Arguments,
				CallID:   c.call.ID,
				Status:   ApprovalPending,
				Metadata: ApprovalRequestMetadata{Timestamp: time.Now()},
			}
			if c.tool.ApprovalMetadata != nil {
				req.Metadata.Severity = c.tool.ApprovalMetadata.Severity
				req.Metadata.RequiredRole = c.tool.ApprovalMetadata.RequiredRole
				req.Metadata.Reason = c.tool.ApprovalMetadata.Reason
			}
			pendingApprovals = append(pendingApprovals, req)
			results[c.index] = ToolCallResult{
				ToolCallID:    c.call.ID,
				ToolName:      c.call.ToolName,
				NeedsApproval: true,
			}
			continue
		}
		toExecute = append(toExecute, c.index)
	}

	// 4. Parallel execute all non-pending tools.
	if len(toExecute) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for _, idx := range toExecute {
			idx := idx
			c := classified[idx]
			g.Go(func() error {
				results[idx] = runTool(gctx, c.tool, c.call, rc)
				return nil // errors are recorded on the result, never propagated
			})
		}
		_ = g.Wait()
	}

	// 5. Append messages: assistant text first, then tool messages in
	// tool-call order for every resolved (non-pending) call. Errored calls
	// are appended too (content carries the error) so the agent observes
	// failures next turn, per spec §7's ToolExecutionError recovery model.
	var newMessages []Message
	if turn.Text != "" {
		newMessages = append(newMessages, AssistantMessage(turn.Text))
	}
	for _, c := range classified {
		if c.isTransfer {
			continue
		}
		r := results[c.index]
		if r.NeedsApproval {
			continue
		}
		content := r.Error
		if content == "" {
			content = stringifyToolResult(r.Result)
		}
		newMessages = append(newMessages, ToolMessage(r.ToolCallID, r.ToolName, content))
	}

	state.Messages = append(state.Messages, newMessages...)

	for _, req := range pendingApprovals {
		state.AddInterruption(req)
	}

	stepResult := StepResult{
		AgentName:    agent.Name,
		ToolCalls:    results,
		Text:         turn.Text,
		FinishReason: turn.FinishReason,
		Timestamp:    time.Now(),
	}

	nextStep := selectNextStep(agent, rc, state, classified, results, turn, subagents)

	return singleStepResult{
		NewMessages: newMessages,
		NextStep:    nextStep,
		StepResult:  stepResult,
	}, nil
}

// runTool executes a single tool call, wrapping it in a contextual span and
// recording duration. Thrown errors do not propagate (spec §4.6 step 4).
func runTool(ctx context.Context, tool Tool, call ToolCall, rc *RunContextWrapper) ToolCallResult {
	start := time.Now()
	ctx, span := startToolSpan(ctx, tool.Name, call.ID)
	defer span.End()

	if tool.ProviderExecuted {
		// Provider-executed tools are never invoked locally; the model
		// provider already produced the result out of band. There is
		// nothing to run here, but the call still needs a placeholder
		// result so message ordering (step 5) stays correct.
		return ToolCallResult{ToolCallID: call.ID, ToolName: call.ToolName, Duration: time.Since(start).Nanoseconds()}
	}

	if tool.Execute == nil {
		return ToolCallResult{ToolCallID: call.ID, ToolName: call.ToolName, Error: "tool has no Execute function", Duration: time.Since(start).Nanoseconds()}
	}

	if tool.InputSchema != nil {
		if err := tool.InputSchema.Validator().Validate(call.Arguments); err != nil {
			span.recordError(err)
			return ToolCallResult{ToolCallID: call.ID, ToolName: call.ToolName, Error: err.Error(), Duration: time.Since(start).Nanoseconds()}
		}
	}

	result, err := tool.Execute(ctx, call.Arguments, rc)
	duration := time.Since(start).Nanoseconds()
	if err != nil {
		span.recordError(err)
		return ToolCallResult{ToolCallID: call.ID, ToolName: call.ToolName, Error: err.Error(), Duration: duration}
	}
	return ToolCallResult{ToolCallID: call.ID, ToolName: call.ToolName, Result: result, Duration: duration}
}

func stringifyToolResult(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func isTransferToolName(name string, subagents map[string]*Agent) bool {
	for subName := range subagents {
		if name == transferToolName(subName) {
			return true
		}
	}
	return false
}

// selectNextStep implements the precedence ladder of spec §4.6 step 7.
func selectNextStep(agent *Agent, rc *RunContextWrapper, state *RunState, classified []classifiedCall, results []ToolCallResult, turn modelTurn, subagents map[string]*Agent) NextStep {
	if len(state.PendingInterruptions) > 0 {
		return NextStep{Kind: NextStepInterruption, Interruptions: state.PendingInterruptions}
	}

	// Handoff: first transfer call, by index, whose result resolves to a
	// known subagent.
	for _, c := range classified {
		if !c.isTransfer {
			continue
		}
		transfer, ok := resolveTransferCall(c, agent, rc)
		if !ok {
			continue // no transfer sentinel: skipped, nothing is logged
		}
		target, known := subagents[transfer.AgentName]
		if !known {
			continue
		}
		return NextStep{Kind: NextStepHandoff, NewAgent: target, Reason: transfer.Reason, Context: transfer.Query}
	}

	var executableCount int
	for _, c := range classified {
		if !c.isTransfer {
			executableCount++
		}
	}

	if agent.ShouldFinish != nil && turn.Text != "" {
		if agent.ShouldFinish(rc, results) {
			return NextStep{Kind: NextStepFinalOutput, Output: turn.Text}
		}
	}

	if executableCount == 0 && turn.Text != "" && isStopLikeFinish(turn.FinishReason) {
		return NextStep{Kind: NextStepFinalOutput, Output: turn.Text}
	}

	return NextStep{Kind: NextStepRunAgain}
}

func isStopLikeFinish(reason string) bool {
	switch reason {
	case "stop", "length", "content-filter", "content_filter":
		return true
	default:
		return false
	}
}

// resolveTransferCall re-invokes the transfer tool's pure sentinel-producing
// logic for a classified transfer call. Transfer tools have no side effects
// beyond producing the sentinel, so calling Execute directly (rather than
// going through runTool's span/error machinery) is safe and synchronous.
func resolveTransferCall(c classifiedCall, agent *Agent, rc *RunContextWrapper) (transferResult, bool) {
	if !c.found || c.tool.Execute == nil {
		return transferResult{}, false
	}
	v, err := c.tool.Execute(context.Background(), c.call.Arguments, rc)
	if err != nil {
		return transferResult{}, false
	}
	return asTransferResult(v)
}
