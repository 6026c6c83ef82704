package runtime

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/runtime/pkg/provider"
	"github.com/agentcore/runtime/pkg/provider/types"
	"github.com/agentcore/runtime/pkg/testutil"
)

// S4: a tool flagged for dynamic approval pauses the run as an interruption;
// resuming with {approve: true} executes it exactly once and the run
// finalizes normally, leaving no pending approvals behind.
func TestRun_S4_DynamicApprovalResume(t *testing.T) {
	var invocations int32
	sensitiveTool := Tool{
		Name: "delete_account",
		NeedsApproval: func(rc *RunContextWrapper, args map[string]interface{}, callID string) bool {
			return true
		},
		ApprovalMetadata: &ApprovalMetadata{Severity: SeverityHigh, Reason: "irreversible action"},
		Execute: func(ctx context.Context, args map[string]interface{}, rc *RunContextWrapper) (interface{}, error) {
			atomic.AddInt32(&invocations, 1)
			return "account deleted", nil
		},
	}

	var calls int32
	model := &testutil.MockLanguageModel{
		DoGenerateFunc: func(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
			n := atomic.AddInt32(&calls, 1)
			if n == 1 {
				return &types.GenerateResult{
					FinishReason: types.FinishReasonToolCalls,
					ToolCalls: []types.ToolCall{
						{ID: "call1", ToolName: "delete_account", Arguments: map[string]interface{}{}},
					},
				}, nil
			}
			return &types.GenerateResult{Text: "confirmed", FinishReason: types.FinishReasonStop}, nil
		},
	}

	agent := &Agent{Name: "Ops", Model: model, Tools: []Tool{sensitiveTool}}

	result, err := Run(context.Background(), agent, "delete my account", nil)
	require.NoError(t, err)
	require.True(t, NeedsApproval(result))

	pending := GetPendingApprovals(result)
	require.Len(t, pending, 1)
	assert.Equal(t, "delete_account", pending[0].ToolName)
	assert.Equal(t, ApprovalPending, pending[0].Status)
	assert.Equal(t, int32(0), invocations, "tool must not run before approval")

	resumed, err := ResumeAfterApproval(context.Background(), result.State, []ApprovalDecision{{Approve: true}}, nil)
	require.NoError(t, err)

	assert.Equal(t, "confirmed", resumed.FinalOutput)
	assert.False(t, NeedsApproval(resumed))
	assert.Empty(t, resumed.State.PendingInterruptions)
	assert.Equal(t, int32(1), invocations, "approved tool must execute exactly once")
}

// A rejected approval synthesizes an error tool result instead of invoking
// the tool, and the run still finalizes.
func TestRun_ApprovalRejected(t *testing.T) {
	var invocations int32
	tool := Tool{
		Name: "risky",
		NeedsApproval: func(rc *RunContextWrapper, args map[string]interface{}, callID string) bool {
			return true
		},
		Execute: func(ctx context.Context, args map[string]interface{}, rc *RunContextWrapper) (interface{}, error) {
			atomic.AddInt32(&invocations, 1)
			return "did risky thing", nil
		},
	}

	var calls int32
	model := &testutil.MockLanguageModel{
		DoGenerateFunc: func(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
			n := atomic.AddInt32(&calls, 1)
			if n == 1 {
				return &types.GenerateResult{
					FinishReason: types.FinishReasonToolCalls,
					ToolCalls:    []types.ToolCall{{ID: "call1", ToolName: "risky", Arguments: map[string]interface{}{}}},
				}, nil
			}
			return &types.GenerateResult{Text: "acknowledged rejection", FinishReason: types.FinishReasonStop}, nil
		},
	}

	agent := &Agent{Name: "Ops", Model: model, Tools: []Tool{tool}}
	result, err := Run(context.Background(), agent, "do something risky", nil)
	require.NoError(t, err)
	require.True(t, NeedsApproval(result))
	pending := GetPendingApprovals(result)
	require.Len(t, pending, 1)

	resumed, err := ResumeAfterApproval(context.Background(), result.State, []ApprovalDecision{{Approve: false, Reason: "too risky"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, "acknowledged rejection", resumed.FinalOutput)
	assert.Equal(t, int32(0), invocations)
	assert.Equal(t, ApprovalRejected, pending[0].Status)
}

// decisions/requests length mismatch is a ConfigError, not a panic.
func TestResumeAfterApproval_MismatchedDecisionsIsConfigError(t *testing.T) {
	model := &testutil.MockLanguageModel{
		DoGenerateFunc: func(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
			return &types.GenerateResult{
				FinishReason: types.FinishReasonToolCalls,
				ToolCalls: []types.ToolCall{
					{ID: "call1", ToolName: "risky", Arguments: map[string]interface{}{}},
				},
			}, nil
		},
	}
	tool := Tool{
		Name:          "risky",
		NeedsApproval: func(rc *RunContextWrapper, args map[string]interface{}, callID string) bool { return true },
		Execute: func(ctx context.Context, args map[string]interface{}, rc *RunContextWrapper) (interface{}, error) {
			return nil, nil
		},
	}
	agent := &Agent{Name: "Ops", Model: model, Tools: []Tool{tool}}
	result, err := Run(context.Background(), agent, "go", nil)
	require.NoError(t, err)

	_, err = ResumeAfterApproval(context.Background(), result.State, nil, nil)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
