package middleware

import (
	"context"

	"github.com/agentcore/runtime/pkg/provider"
)

// DefaultSettingsMiddleware applies settings to every call that doesn't
// already specify them itself; a per-call GenerateOptions field always
// wins over its default.
func DefaultSettingsMiddleware(settings *provider.GenerateOptions) *LanguageModelMiddleware {
	return &LanguageModelMiddleware{
		SpecificationVersion: "v3",
		TransformParams: func(ctx context.Context, callType string, params *provider.GenerateOptions, model provider.LanguageModel) (*provider.GenerateOptions, error) {
			return layerDefaults(settings, params), nil
		},
	}
}

// layerDefaults builds a GenerateOptions starting from defaults and
// overlaying every non-zero field from overrides on top.
func layerDefaults(defaults, overrides *provider.GenerateOptions) *provider.GenerateOptions {
	if defaults == nil {
		return overrides
	}
	if overrides == nil {
		return defaults
	}

	result := *defaults
	applyOverrides(&result, overrides)
	return &result
}

// applyOverrides copies each set field of overrides onto result, merging
// (rather than replacing) the Headers map so neither side's entries are
// silently dropped.
func applyOverrides(result *provider.GenerateOptions, overrides *provider.GenerateOptions) {
	if overrides.Prompt.Messages != nil {
		result.Prompt.Messages = overrides.Prompt.Messages
	}
	if overrides.MaxTokens != nil {
		result.MaxTokens = overrides.MaxTokens
	}
	if overrides.Temperature != nil {
		result.Temperature = overrides.Temperature
	}
	if overrides.TopP != nil {
		result.TopP = overrides.TopP
	}
	if overrides.TopK != nil {
		result.TopK = overrides.TopK
	}
	if overrides.PresencePenalty != nil {
		result.PresencePenalty = overrides.PresencePenalty
	}
	if overrides.FrequencyPenalty != nil {
		result.FrequencyPenalty = overrides.FrequencyPenalty
	}
	if overrides.StopSequences != nil {
		result.StopSequences = overrides.StopSequences
	}
	if overrides.Seed != nil {
		result.Seed = overrides.Seed
	}
	if overrides.Tools != nil {
		result.Tools = overrides.Tools
	}
	if overrides.ToolChoice.Type != "" {
		result.ToolChoice = overrides.ToolChoice
	}
	if overrides.ResponseFormat != nil {
		result.ResponseFormat = overrides.ResponseFormat
	}
	if overrides.MaxSteps != nil {
		result.MaxSteps = overrides.MaxSteps
	}
	if len(overrides.Headers) > 0 {
		merged := make(map[string]string, len(result.Headers)+len(overrides.Headers))
		for k, v := range result.Headers {
			merged[k] = v
		}
		for k, v := range overrides.Headers {
			merged[k] = v
		}
		result.Headers = merged
	}
}
