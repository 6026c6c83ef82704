package main

import (
	"context"

	"github.com/agentcore/runtime/pkg/middleware"
	"github.com/agentcore/runtime/pkg/provider"
	"github.com/agentcore/runtime/pkg/provider/types"
	"github.com/agentcore/runtime/pkg/runtime"
	"github.com/agentcore/runtime/pkg/testutil"
)

// demoAgents builds the fixed agent registry this server drives. Concrete
// language-model providers are out of scope (spec §1 Non-goals), so these
// agents run against testutil.MockLanguageModel - the only LanguageModel
// implementation this module ships - standing in for a real provider. A
// deployment wires its own provider.LanguageModel in place of the mock.
func demoAgents() map[string]*runtime.Agent {
	weather := runtime.Tool{
		Name:        "get_weather",
		Description: "Get the current weather for a location",
		Execute: func(ctx context.Context, args map[string]interface{}, rc *runtime.RunContextWrapper) (interface{}, error) {
			location, _ := args["location"].(string)
			return map[string]interface{}{
				"location":    location,
				"temperature": 72,
				"condition":   "sunny",
			}, nil
		},
	}

	var assistantModel provider.LanguageModel = &testutil.MockLanguageModel{
		DoGenerateFunc: func(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
			return &types.GenerateResult{
				Text:         "This is a demo response; wire a real provider.LanguageModel to get live answers.",
				FinishReason: types.FinishReasonStop,
			}, nil
		},
	}

	demoTemperature := 0.2

	// Pins a low default temperature for reproducible demo output, then
	// appends any tool.InputExamples into the tool's description text for
	// providers that don't understand inputExamples natively.
	assistantModel = middleware.WrapLanguageModel(assistantModel, []*middleware.LanguageModelMiddleware{
		middleware.DefaultSettingsMiddleware(&provider.GenerateOptions{Temperature: &demoTemperature}),
		middleware.AddToolInputExamplesMiddleware(nil),
	}, nil, nil)

	assistant := &runtime.Agent{
		Name:         "assistant",
		Instructions: "You are a helpful assistant with access to tools. Use them when needed.",
		Model:        assistantModel,
		Tools:        []runtime.Tool{weather},
	}

	var reasonerModel provider.LanguageModel = &testutil.MockLanguageModel{
		DoGenerateFunc: func(ctx context.Context, opts *provider.GenerateOptions) (*types.GenerateResult, error) {
			return &types.GenerateResult{
				Text:         "<think>the user wants a demo, so keep it short</think>Here you go.",
				FinishReason: types.FinishReasonStop,
			}, nil
		},
	}

	// Splits <think>...</think> out of the raw text into a separate
	// ReasoningContent part, for providers (or, here, a mock standing in for
	// one) that inline reasoning in the same text stream as the answer.
	reasonerModel = middleware.WrapLanguageModel(reasonerModel,
		[]*middleware.LanguageModelMiddleware{middleware.ExtractReasoningMiddleware(&middleware.ExtractReasoningOptions{
			TagName: "think",
		})}, nil, nil)

	reasoner := &runtime.Agent{
		Name:         "reasoner",
		Instructions: "You think before you answer and expose that thinking separately from your final answer.",
		Model:        reasonerModel,
	}

	return map[string]*runtime.Agent{
		assistant.Name: assistant,
		reasoner.Name:  reasoner,
	}
}
