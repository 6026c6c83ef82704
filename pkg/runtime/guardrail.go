package runtime

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// guardrailOutcome pairs a guardrail's position with its result, so the
// first-by-position failure can be determined after all guardrails finish
// evaluating (spec §4.3: "evaluation of the remaining guardrails SHOULD
// still complete... but the first failure determines the raised error").
type guardrailOutcome struct {
	index    int
	result   GuardrailResult
	err      error
	guardrail Guardrail
}

// runGuardrails evaluates every guardrail of the given phase concurrently
// (grounded on pkg/ai/notify.go's fan-out pattern, generalized from "notify
// listeners" to "evaluate validators and collect results") and returns the
// first rejection/error by guardrail position, or nil if all passed.
func runGuardrails(ctx context.Context, guardrails []Guardrail, phase GuardrailType, content string, rc *RunContextWrapper) error {
	var matched []Guardrail
	for _, g := range guardrails {
		if g.Type == phase {
			matched = append(matched, g)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	outcomes := make([]guardrailOutcome, len(matched))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for i, guardrail := range matched {
		i, guardrail := i, guardrail
		g.Go(func() error {
			result, err := guardrail.Validate(gctx, content, rc)
			mu.Lock()
			outcomes[i] = guardrailOutcome{index: i, result: result, err: err, guardrail: guardrail}
			mu.Unlock()
			return nil // never abort the group; we collect all outcomes ourselves
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if o.err != nil {
			return &GuardrailTripwireTriggered{
				GuardrailName: o.guardrail.Name,
				Phase:         phase,
				Message:       o.err.Error(),
			}
		}
		if !o.result.Passed {
			return &GuardrailTripwireTriggered{
				GuardrailName: o.guardrail.Name,
				Phase:         phase,
				Message:       o.result.Message,
			}
		}
	}
	return nil
}
