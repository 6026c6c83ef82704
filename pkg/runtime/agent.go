package runtime

import (
	"context"
	"strings"

	"github.com/agentcore/runtime/pkg/provider"
	"github.com/agentcore/runtime/pkg/schema"
)

// GuardrailResult is returned by a Guardrail's Validate function.
type GuardrailResult struct {
	Passed   bool
	Message  string
	Metadata map[string]interface{}
}

// GuardrailType discriminates when a guardrail runs.
type GuardrailType string

const (
	GuardrailInput  GuardrailType = "input"
	GuardrailOutput GuardrailType = "output"
)

// GuardrailValidateFunc inspects content and decides whether the run may
// proceed.
type GuardrailValidateFunc func(ctx context.Context, content string, rc *RunContextWrapper) (GuardrailResult, error)

// Guardrail is an input or output validator that can veto a run.
type Guardrail struct {
	Name     string
	Type     GuardrailType
	Validate GuardrailValidateFunc
}

// ModelSettings holds generation parameters forwarded to the language model.
type ModelSettings struct {
	Temperature      *float64
	TopP             *float64
	MaxTokens        *int
	PresencePenalty  *float64
	FrequencyPenalty *float64
}

// InstructionsFunc resolves an agent's system instructions dynamically, given
// the current run context. Invoked once per turn (see Runner.resolveInstructions).
type InstructionsFunc func(ctx context.Context, rc *RunContextWrapper) string

// ShouldFinishFunc lets an agent declare a turn as final even when the model
// would otherwise continue (e.g. a heuristic over accumulated tool results).
type ShouldFinishFunc func(rc *RunContextWrapper, toolResults []ToolCallResult) bool

// PrepareCallConfig is the mutable per-turn call configuration an Agent's
// PrepareCall hook may adjust before the model is invoked.
type PrepareCallConfig struct {
	StepNumber       int
	System           string
	Messages         []Message
	Tools            []Tool
	ModelSettings    ModelSettings
	AccumulatedUsage Usage
	CustomData       interface{}
}

// PrepareCallFunc adjusts the per-turn call configuration dynamically.
type PrepareCallFunc func(ctx context.Context, cfg PrepareCallConfig) PrepareCallConfig

// Skill is a named, pre-registered handler bundle carried on Agent.Skills,
// adapted from the teacher's agent/skill.go registry. The runtime stores
// and copies skills with the agent but does not generate tools from them,
// so the model sees a skill only if a caller wraps it in a Tool.
type Skill struct {
	Name        string
	Description string
	Handler     func(ctx context.Context, input string) (string, error)
}

// Agent is a reusable, stateless template of instructions, tools, subagents,
// and settings. Agents hold no per-run state (see spec ownership rules);
// RunState is the exclusive owner of mutable run data.
type Agent struct {
	// Name must be unique within a run.
	Name string

	// Instructions is either a plain string or resolved per turn via
	// InstructionsFn. If InstructionsFn is set it takes precedence.
	Instructions   string
	InstructionsFn InstructionsFunc

	// Model is this agent's language model. If nil, the process-wide
	// default model set via SetDefaultModel is used.
	Model provider.LanguageModel

	// Tools is this agent's tool set, keyed implicitly by Tool.Name (names
	// must be unique; validated by Validate()).
	Tools []Tool

	// Subagents are ordered transfer targets; a transfer_to_<slug> tool is
	// auto-installed for each one that the agent offers the model.
	Subagents []*Agent

	// TransferDescription, if set, is used in the auto-generated transfer
	// tool's description instead of a generic default.
	TransferDescription string

	Guardrails []Guardrail

	// OutputSchema validates/parses the finalized string output, if set.
	OutputSchema schema.Schema

	ModelSettings ModelSettings

	// MaxSteps caps the number of turns this agent may run before
	// MaxTurnsExceeded is raised. Zero means "use Runner default" (50).
	MaxSteps int

	ShouldFinish ShouldFinishFunc

	PrepareCall PrepareCallFunc

	Skills []Skill

	// UseTOON, when true, wraps non-trivial tool results in a compact
	// textual encoding before the model sees them (see spec §4.7). The
	// encoder itself is an external concern; UseTOON only flags intent
	// here since no TOON encoder ships with the core (spec §1 Non-goals).
	UseTOON bool
}

// Clone returns a copy of the agent with overrides applied via the given
// function. Transfer never mutates the source agent (spec ownership rule);
// Clone is the sanctioned way to derive variants.
func (a *Agent) Clone(overrides func(*Agent)) *Agent {
	clone := *a
	clone.Tools = append([]Tool(nil), a.Tools...)
	clone.Subagents = append([]*Agent(nil), a.Subagents...)
	clone.Guardrails = append([]Guardrail(nil), a.Guardrails...)
	clone.Skills = append([]Skill(nil), a.Skills...)
	if overrides != nil {
		overrides(&clone)
	}
	return &clone
}

// Validate checks the structural invariants spec §3 requires of an Agent:
// unique tool names, unique subagent names, and a non-empty Name.
func (a *Agent) Validate() error {
	if a.Name == "" {
		return &ConfigError{Message: "agent must have a non-empty name"}
	}
	seen := make(map[string]bool, len(a.Tools))
	for _, t := range a.Tools {
		if seen[t.Name] {
			return &ConfigError{Message: "duplicate tool name: " + t.Name}
		}
		seen[t.Name] = true
	}
	subSeen := make(map[string]bool, len(a.Subagents))
	for _, s := range a.Subagents {
		if subSeen[s.Name] {
			return &ConfigError{Message: "duplicate subagent name: " + s.Name}
		}
		subSeen[s.Name] = true
		if seen[transferToolName(s.Name)] {
			return &ConfigError{Message: "tool name collides with reserved transfer tool: " + transferToolName(s.Name)}
		}
	}
	return nil
}

// transferToolName computes the reserved transfer_to_<slug> tool name for a
// subagent (see spec §4.5).
func transferToolName(subagentName string) string {
	return "transfer_to_" + slugify(subagentName)
}

// slugify lowercases a name and replaces whitespace with underscores, per
// spec §4.5's `slug` definition.
func slugify(name string) string {
	lower := strings.ToLower(name)
	return strings.Join(strings.Fields(lower), "_")
}

// AsTool synthesizes a Tool that runs this agent as a nested sub-task: the
// parent's turn continues and the child's finalOutput is observed as the
// tool's result (see spec §6, §9 "subagent-as-tool" duality leg — the
// opposite of Transfer, which hands off control with context isolation).
func (a *Agent) AsTool(toolName, toolDescription string) Tool {
	if toolName == "" {
		toolName = "run_" + slugify(a.Name)
	}
	if toolDescription == "" {
		toolDescription = "Delegates to the " + a.Name + " agent and returns its final output."
	}
	return Tool{
		Name:        toolName,
		Description: toolDescription,
		Execute: func(ctx context.Context, args map[string]interface{}, rc *RunContextWrapper) (interface{}, error) {
			query, _ := args["query"].(string)
			result, err := Run(ctx, a, query, nil)
			if err != nil {
				return nil, err
			}
			return result.FinalOutput, nil
		},
	}
}
