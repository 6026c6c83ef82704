package types

// Usage reports token consumption for one generate/stream call, with
// optional cache and reasoning-token breakdowns for providers that expose
// them.
type Usage struct {
	InputTokens  *int64              `json:"inputTokens,omitempty"`
	InputDetails *InputTokenDetails  `json:"inputTokenDetails,omitempty"`
	OutputTokens *int64              `json:"outputTokens,omitempty"`
	OutputDetails *OutputTokenDetails `json:"outputTokenDetails,omitempty"`
	TotalTokens  *int64              `json:"totalTokens,omitempty"`

	// Raw carries whatever usage fields the provider's own wire format
	// exposes beyond this struct, keyed however that provider names them.
	Raw map[string]interface{} `json:"raw,omitempty"`
}

// InputTokenDetails breaks input tokens down by prompt-cache behavior.
type InputTokenDetails struct {
	NoCacheTokens    *int64 `json:"noCacheTokens,omitempty"`
	CacheReadTokens  *int64 `json:"cacheReadTokens,omitempty"`
	CacheWriteTokens *int64 `json:"cacheWriteTokens,omitempty"`
}

// OutputTokenDetails breaks output tokens down into visible text versus
// internal reasoning tokens (reasoning models like o1/o3 bill both).
type OutputTokenDetails struct {
	TextTokens      *int64 `json:"textTokens,omitempty"`
	ReasoningTokens *int64 `json:"reasoningTokens,omitempty"`
}

// Add combines u with other into a new Usage, summing every counter field
// and merging Raw (entries from other win on key collision).
func (u Usage) Add(other Usage) Usage {
	result := Usage{
		InputTokens:  addInt64Ptr(u.InputTokens, other.InputTokens),
		OutputTokens: addInt64Ptr(u.OutputTokens, other.OutputTokens),
		TotalTokens:  addInt64Ptr(u.TotalTokens, other.TotalTokens),
	}

	if u.InputDetails != nil || other.InputDetails != nil {
		a, b := u.InputDetails, other.InputDetails
		result.InputDetails = &InputTokenDetails{
			NoCacheTokens:    addInt64Ptr(inputField(a, func(d *InputTokenDetails) *int64 { return d.NoCacheTokens }), inputField(b, func(d *InputTokenDetails) *int64 { return d.NoCacheTokens })),
			CacheReadTokens:  addInt64Ptr(inputField(a, func(d *InputTokenDetails) *int64 { return d.CacheReadTokens }), inputField(b, func(d *InputTokenDetails) *int64 { return d.CacheReadTokens })),
			CacheWriteTokens: addInt64Ptr(inputField(a, func(d *InputTokenDetails) *int64 { return d.CacheWriteTokens }), inputField(b, func(d *InputTokenDetails) *int64 { return d.CacheWriteTokens })),
		}
	}

	if u.OutputDetails != nil || other.OutputDetails != nil {
		a, b := u.OutputDetails, other.OutputDetails
		result.OutputDetails = &OutputTokenDetails{
			TextTokens:      addInt64Ptr(outputField(a, func(d *OutputTokenDetails) *int64 { return d.TextTokens }), outputField(b, func(d *OutputTokenDetails) *int64 { return d.TextTokens })),
			ReasoningTokens: addInt64Ptr(outputField(a, func(d *OutputTokenDetails) *int64 { return d.ReasoningTokens }), outputField(b, func(d *OutputTokenDetails) *int64 { return d.ReasoningTokens })),
		}
	}

	if len(u.Raw) > 0 || len(other.Raw) > 0 {
		result.Raw = make(map[string]interface{}, len(u.Raw)+len(other.Raw))
		for k, v := range u.Raw {
			result.Raw[k] = v
		}
		for k, v := range other.Raw {
			result.Raw[k] = v
		}
	}

	return result
}

// addInt64Ptr sums two optional counters, treating a nil operand as 0; the
// result is nil only when both operands are nil (counter genuinely absent).
func addInt64Ptr(a, b *int64) *int64 {
	if a == nil && b == nil {
		return nil
	}
	var aVal, bVal int64
	if a != nil {
		aVal = *a
	}
	if b != nil {
		bVal = *b
	}
	sum := aVal + bVal
	return &sum
}

func inputField(d *InputTokenDetails, get func(*InputTokenDetails) *int64) *int64 {
	if d == nil {
		return nil
	}
	return get(d)
}

func outputField(d *OutputTokenDetails, get func(*OutputTokenDetails) *int64) *int64 {
	if d == nil {
		return nil
	}
	return get(d)
}

func (u Usage) GetInputTokens() int64 {
	if u.InputTokens == nil {
		return 0
	}
	return *u.InputTokens
}

func (u Usage) GetOutputTokens() int64 {
	if u.OutputTokens == nil {
		return 0
	}
	return *u.OutputTokens
}

func (u Usage) GetTotalTokens() int64 {
	if u.TotalTokens == nil {
		return 0
	}
	return *u.TotalTokens
}

type EmbeddingUsage struct {
	InputTokens int `json:"inputTokens"`
	TotalTokens int `json:"totalTokens"`
}

type ImageUsage struct {
	ImageCount int `json:"imageCount"`
}

type SpeechUsage struct {
	CharacterCount int `json:"characterCount"`
}

type TranscriptionUsage struct {
	DurationSeconds float64 `json:"durationSeconds"`
}

type VideoUsage struct {
	DurationSeconds float64 `json:"durationSeconds"`
}

// Warning is a non-fatal notice a provider attaches to a response, e.g. an
// unsupported parameter it silently dropped.
type Warning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// FinishReason is why the model stopped generating on a given call.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonContentFilter FinishReason = "content-filter"
	FinishReasonToolCalls     FinishReason = "tool-calls"
	FinishReasonError         FinishReason = "error"
	FinishReasonOther         FinishReason = "other"
)

// ResponseMetadata carries identifying and provider-specific metadata about
// a generate/stream response, separate from its content and Usage.
type ResponseMetadata struct {
	ModelID          string                 `json:"modelId,omitempty"`
	ProviderMetadata map[string]interface{} `json:"providerMetadata,omitempty"`
}
