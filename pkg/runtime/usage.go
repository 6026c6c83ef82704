package runtime

// Usage accumulates token counts for a run. Operations are plain integer
// adds: the scheduling model is single-threaded cooperative (see spec §5),
// so no locking is needed, unlike provider/types.Usage's pointer-based
// optional fields which exist to distinguish "zero" from "unreported" across
// providers.
type Usage struct {
	InputTokens  int64 `json:"inputTokens"`
	OutputTokens int64 `json:"outputTokens"`
	TotalTokens  int64 `json:"totalTokens"`
}

// Add merges other into u in place and returns u for chaining.
func (u *Usage) Add(other Usage) *Usage {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
	return u
}

// ToJSON returns a JSON-serializable snapshot of the usage.
func (u Usage) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"inputTokens":  u.InputTokens,
		"outputTokens": u.OutputTokens,
		"totalTokens":  u.TotalTokens,
	}
}
