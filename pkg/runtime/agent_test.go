package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentValidate_RejectsEmptyName(t *testing.T) {
	a := &Agent{}
	err := a.Validate()
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestAgentValidate_RejectsDuplicateToolNames(t *testing.T) {
	a := &Agent{Name: "A", Tools: []Tool{{Name: "dup"}, {Name: "dup"}}}
	err := a.Validate()
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestAgentValidate_RejectsToolNameCollidingWithTransferTool(t *testing.T) {
	sub := &Agent{Name: "Billing Bot"}
	a := &Agent{
		Name:      "Router",
		Subagents: []*Agent{sub},
		Tools:     []Tool{{Name: "transfer_to_billing_bot"}},
	}
	err := a.Validate()
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestAgentValidate_AcceptsWellFormedAgent(t *testing.T) {
	sub := &Agent{Name: "Specialist"}
	a := &Agent{Name: "Coordinator", Subagents: []*Agent{sub}, Tools: []Tool{{Name: "lookup"}}}
	assert.NoError(t, a.Validate())
}

// Clone must not let mutations on the clone's slices leak back to the source
// agent (transfer never mutates its source, per spec ownership rules).
func TestAgentClone_SlicesAreIndependentOfSource(t *testing.T) {
	original := &Agent{Name: "Base", Tools: []Tool{{Name: "t1"}}}
	clone := original.Clone(func(a *Agent) {
		a.Name = "Variant"
		a.Tools = append(a.Tools, Tool{Name: "t2"})
	})

	assert.Equal(t, "Base", original.Name)
	assert.Len(t, original.Tools, 1)
	assert.Equal(t, "Variant", clone.Name)
	assert.Len(t, clone.Tools, 2)
}

// AsTool runs the agent as a nested sub-task and surfaces FinalOutput as the
// tool's result, the opposite of Transfer (no context isolation, no handoff).
func TestAgentAsTool_DelegatesAndReturnsFinalOutput(t *testing.T) {
	child := &Agent{Name: "Child", Model: instantModel("child says hi")}
	tool := child.AsTool("", "")

	assert.Equal(t, "run_child", tool.Name)
	assert.Contains(t, tool.Description, "Child")

	result, err := tool.Execute(context.Background(), map[string]interface{}{"query": "hello"}, &RunContextWrapper{})
	require.NoError(t, err)
	assert.Equal(t, "child says hi", result)
}
