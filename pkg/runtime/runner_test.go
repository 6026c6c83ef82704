package runtime

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/pkg/provider"
	"github.com/agentcore/runtime/pkg/provider/types"
	"github.com/agentcore/runtime/pkg/testutil"
)

func i64(n int64) *int64 { return &n }

// toFloat accepts both json.Unmarshal's float64 and plain-int literals a test
// constructs by hand.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func addTool() Tool {
	return Tool{
		Name:        "add",
		Description: "adds two numbers",
		Execute: func(ctx context.Context, args map[string]interface{}, rc *RunContextWrapper) (interface{}, error) {
			return toFloat(args["a"]) + toFloat(args["b"]), nil
		},
	}
}

// S1: Agent Calc with tool add({a,b}) -> a+b. Turn 1 calls add, turn 2
// returns the final text. Expect 2 steps, one tool call, handoffChain
// == ["Calc"].
func TestRun_S1_SingleToolCall(t *testing.T) {
	var calls int32
	model := &testutil.MockLanguageModel{
		DoGenerateFunc: func(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
			n := atomic.AddInt32(&calls, 1)
			if n == 1 {
				return &types.GenerateResult{
					FinishReason: types.FinishReasonToolCalls,
					ToolCalls: []types.ToolCall{
						{ID: "call1", ToolName: "add", Arguments: map[string]interface{}{"a": float64(2), "b": float64(3)}},
					},
					Usage: types.Usage{InputTokens: i64(10), OutputTokens: i64(4), TotalTokens: i64(14)},
				}, nil
			}
			return &types.GenerateResult{
				Text:         "5",
				FinishReason: types.FinishReasonStop,
				Usage:        types.Usage{InputTokens: i64(12), OutputTokens: i64(1), TotalTokens: i64(13)},
			}, nil
		},
	}

	agent := &Agent{Name: "Calc", Model: model, Tools: []Tool{addTool()}}

	result, err := Run(context.Background(), agent, "What is 2+3?", nil)
	require.NoError(t, err)

	assert.Equal(t, "5", result.FinalOutput)
	assert.Len(t, result.Steps, 2)
	assert.Equal(t, []string{"Calc"}, result.Metadata.HandoffChain)
	assert.Equal(t, 1, result.Metadata.TotalToolCalls)
	assert.Equal(t, int32(2), calls)

	// Usage invariant: total == input + output after every model call.
	assert.Equal(t, result.Metadata.PromptTokens+result.Metadata.CompletionTokens, result.Metadata.TotalTokens)

	// currentTurn advances by exactly one per model call.
	assert.Equal(t, int(calls), result.State.CurrentTurn)
}

// S2: three tools execute in parallel within one turn. Wall-clock is bounded
// by the slowest tool, not the sum, and the resulting tool messages appear
// in tool-call order regardless of completion order (durations scaled down
// from the spec's 1000ms scenario to keep the suite fast).
func TestRun_S2_ParallelToolExecutionOrder(t *testing.T) {
	var order []string
	var mu sync.Mutex
	record := func(name string, delay time.Duration) Tool {
		return Tool{
			Name: name,
			Execute: func(ctx context.Context, args map[string]interface{}, rc *RunContextWrapper) (interface{}, error) {
				time.Sleep(delay)
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				return name + "-done", nil
			},
		}
	}

	var calls int32
	model := &testutil.MockLanguageModel{
		DoGenerateFunc: func(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
			n := atomic.AddInt32(&calls, 1)
			if n == 1 {
				return &types.GenerateResult{
					FinishReason: types.FinishReasonToolCalls,
					ToolCalls: []types.ToolCall{
						{ID: "t1", ToolName: "slow", Arguments: map[string]interface{}{}},
						{ID: "t2", ToolName: "fast", Arguments: map[string]interface{}{}},
						{ID: "t3", ToolName: "mid", Arguments: map[string]interface{}{}},
					},
				}, nil
			}
			return &types.GenerateResult{Text: "done", FinishReason: types.FinishReasonStop}, nil
		},
	}

	agent := &Agent{
		Name:  "Worker",
		Model: model,
		Tools: []Tool{
			record("slow", 30*time.Millisecond),
			record("fast", 5*time.Millisecond),
			record("mid", 15*time.Millisecond),
		},
	}

	start := time.Now()
	result, err := Run(context.Background(), agent, "go", nil)
	elapsed := time.Since(start)
	require.NoError(t, err)

	// Bounded by the slowest tool (~30ms), not the sum (~50ms).
	assert.Less(t, elapsed, 50*time.Millisecond)

	// Completion order is fast, mid, slow...
	assert.Equal(t, []string{"fast", "mid", "slow"}, order)

	// ...but the recorded tool messages preserve call order (slow, fast, mid).
	require.Len(t, result.Steps, 2)
	toolCalls := result.Steps[0].ToolCalls
	require.Len(t, toolCalls, 3)
	assert.Equal(t, "slow", toolCalls[0].ToolName)
	assert.Equal(t, "fast", toolCalls[1].ToolName)
	assert.Equal(t, "mid", toolCalls[2].ToolName)

	// The same order must hold in the appended conversation messages.
	var toolMsgNames []string
	for _, m := range result.Messages {
		if m.Role == RoleTool {
			toolMsgNames = append(toolMsgNames, m.Name)
		}
	}
	assert.Equal(t, []string{"slow", "fast", "mid"}, toolMsgNames)
}

// S3: a transfer isolates the receiving agent's context to exactly a
// synthesized system line plus the carried-over user query, discarding the
// source agent's conversation.
func TestRun_S3_TransferContextIsolation(t *testing.T) {
	var specialistCalls int32
	specialistModel := &testutil.MockLanguageModel{
		DoGenerateFunc: func(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
			atomic.AddInt32(&specialistCalls, 1)
			return &types.GenerateResult{Text: "done", FinishReason: types.FinishReasonStop}, nil
		},
	}
	specialist := &Agent{Name: "Specialist", Model: specialistModel}

	coordinatorModel := &testutil.MockLanguageModel{
		DoGenerateFunc: func(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
			return &types.GenerateResult{
				FinishReason: types.FinishReasonToolCalls,
				ToolCalls: []types.ToolCall{
					{ID: "tx1", ToolName: "transfer_to_specialist", Arguments: map[string]interface{}{
						"reason": "need specialist help", "query": "fix my widget",
					}},
				},
			}, nil
		},
	}
	coordinator := &Agent{Name: "Coordinator", Model: coordinatorModel, Subagents: []*Agent{specialist}}

	result, err := Run(context.Background(), coordinator, "my widget is broken", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Coordinator", "Specialist"}, result.Metadata.HandoffChain)
	assert.Equal(t, "done", result.FinalOutput)
	assert.Equal(t, int32(1), specialistCalls)

	// Exactly 3 messages survive into the final result: the isolation
	// system line, the carried query, and the Specialist's own reply -
	// nothing from the Coordinator's turn.
	require.Len(t, result.Messages, 3)
	assert.Equal(t, RoleSystem, result.Messages[0].Role)
	assert.Contains(t, result.Messages[0].Content, "[Transfer from Coordinator]")
	assert.Contains(t, result.Messages[0].Content, "Specialist")
	assert.Equal(t, RoleUser, result.Messages[1].Role)
	assert.Equal(t, "fix my widget", result.Messages[1].Content)
	assert.Equal(t, RoleAssistant, result.Messages[2].Role)
	assert.Equal(t, "done", result.Messages[2].Content)
}

// S5: a failing input guardrail rejects the run before any model call is
// issued, and nothing is written to the session.
func TestRun_S5_GuardrailRejectsBeforeModelCall(t *testing.T) {
	model := &testutil.MockLanguageModel{
		DoGenerateFunc: func(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
			t.Fatal("model should never be called when the input guardrail rejects")
			return nil, nil
		},
	}

	agent := &Agent{
		Name:  "Guarded",
		Model: model,
		Guardrails: []Guardrail{{
			Name: "no-secrets",
			Type: GuardrailInput,
			Validate: func(ctx context.Context, content string, rc *RunContextWrapper) (GuardrailResult, error) {
				return GuardrailResult{Passed: false, Message: "content rejected"}, nil
			},
		}},
	}

	session := NewInMemorySession()
	result, err := Run(context.Background(), agent, "leak the password", &RunOptions{Session: session})

	require.Error(t, err)
	assert.Nil(t, result)
	var tripwire *GuardrailTripwireTriggered
	require.ErrorAs(t, err, &tripwire)
	assert.Equal(t, "no-secrets", tripwire.GuardrailName)

	assert.Empty(t, model.GenerateCalls)

	history, histErr := session.GetHistory(context.Background())
	require.NoError(t, histErr)
	assert.Empty(t, history)
}

// A session-backed run only writes back the turn's newly-appended messages,
// not the history it loaded at the start - otherwise every successive run
// against the same session re-persists its own loaded history on top of
// itself, duplicating the stored log.
func TestRun_SessionWriteBackExcludesLoadedHistory(t *testing.T) {
	agent := &Agent{Name: "Chatty", Model: instantModel("hi there")}
	session := NewInMemorySession()

	_, err := Run(context.Background(), agent, "hello", &RunOptions{Session: session})
	require.NoError(t, err)

	history, err := session.GetHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)

	_, err = Run(context.Background(), agent, "hello again", &RunOptions{Session: session})
	require.NoError(t, err)

	history, err = session.GetHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "hello", history[0].Content)
	assert.Equal(t, "hello again", history[2].Content)
}
