package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentcore/runtime/pkg/provider"
	"github.com/agentcore/runtime/pkg/provider/types"
)

const defaultExamplesPrefix = "Input Examples:"

// AddToolInputExamplesOptions configures AddToolInputExamplesMiddleware.
type AddToolInputExamplesOptions struct {
	// Prefix precedes the rendered example block. Defaults to
	// defaultExamplesPrefix.
	Prefix string

	// Format renders one example; nil falls back to jsonExample.
	Format func(example types.ToolInputExample, index int) string

	// Remove clears a tool's InputExamples once they have been folded into
	// its description, so the provider never sees both forms at once.
	// True when no options are passed (nil); a non-nil options value uses
	// this field as set, so its zero value keeps the examples.
	Remove bool
}

// jsonExample is the default example formatter: the input argument, JSON
// encoded. Marshaling failure (only possible for a non-serializable Go
// value a caller put in InputExamples themselves) falls back to %v.
func jsonExample(example types.ToolInputExample, _ int) string {
	if data, err := json.Marshal(example.Input); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", example.Input)
}

func resolveExampleOptions(options *AddToolInputExamplesOptions) AddToolInputExamplesOptions {
	resolved := AddToolInputExamplesOptions{Prefix: defaultExamplesPrefix, Format: jsonExample, Remove: true}
	if options == nil {
		return resolved
	}
	resolved.Remove = options.Remove
	if options.Prefix != "" {
		resolved.Prefix = options.Prefix
	}
	if options.Format != nil {
		resolved.Format = options.Format
	}
	return resolved
}

// renderExamplesBlock builds the "<prefix>\n<example>\n<example>..." text
// appended to a tool's description.
func renderExamplesBlock(opts AddToolInputExamplesOptions, examples []types.ToolInputExample) string {
	lines := make([]string, len(examples))
	for i, ex := range examples {
		lines[i] = opts.Format(ex, i)
	}
	return opts.Prefix + "\n" + strings.Join(lines, "\n")
}

func appendExamplesToDescription(description string, block string) string {
	if description == "" {
		return block
	}
	return description + "\n\n" + block
}

// AddToolInputExamplesMiddleware folds each tool's InputExamples into its
// description text, for model providers whose tool-calling wire format has
// no native examples field. Tools without examples pass through untouched.
func AddToolInputExamplesMiddleware(options *AddToolInputExamplesOptions) *LanguageModelMiddleware {
	opts := resolveExampleOptions(options)

	return &LanguageModelMiddleware{
		SpecificationVersion: "v3",
		TransformParams: func(ctx context.Context, callType string, params *provider.GenerateOptions, model provider.LanguageModel) (*provider.GenerateOptions, error) {
			if len(params.Tools) == 0 {
				return params, nil
			}

			tools := make([]types.Tool, len(params.Tools))
			copy(tools, params.Tools)

			for i, tool := range tools {
				if len(tool.InputExamples) == 0 {
					continue
				}
				block := renderExamplesBlock(opts, tool.InputExamples)
				tools[i].Description = appendExamplesToDescription(tool.Description, block)
				if opts.Remove {
					tools[i].InputExamples = nil
				}
			}

			updated := *params
			updated.Tools = tools
			return &updated, nil
		},
	}
}
