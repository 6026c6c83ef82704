package runtime

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentcore/runtime/pkg/telemetry"
)

// telemetrySettings is the process-wide telemetry configuration; nil means
// disabled (GetTracer returns a no-op tracer in that case, matching the
// teacher's pkg/telemetry convention).
var telemetrySettings = telemetry.DefaultSettings()

// SetTelemetrySettings configures tracing for all subsequent runs.
func SetTelemetrySettings(settings *telemetry.Settings) {
	telemetrySettings = settings
}

func tracer() trace.Tracer {
	return telemetry.GetTracer(telemetrySettings)
}

// Trace is the opaque root of a run's span tree (spec §6 tracing backend
// contract: createTrace/span/generation). A disabled backend still produces
// Trace/AgentSpan values; their End()/RecordError calls are simply no-ops
// courtesy of the underlying no-op tracer.
type Trace struct {
	Name     string
	Metadata map[string]interface{}
	ctx      context.Context
	rootSpan trace.Span
}

// AgentSpan wraps an OpenTelemetry span opened for one agent's portion of a
// run, tracking the agent name so the Runner can recognize when to close and
// reopen it on agent change (spec §4.7 step 2).
type AgentSpan struct {
	AgentName string
	span      trace.Span
}

// recordError records err on the span and sets an error status (grounded on
// telemetry.RecordErrorOnSpan).
func (s *AgentSpan) recordError(err error) {
	if s == nil || s.span == nil || err == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// End closes the span.
func (s *AgentSpan) End() {
	if s == nil || s.span == nil {
		return
	}
	s.span.End()
}

// Finish closes the span, recording output/level attributes first (used at
// run-level exit points where the level/output carry meaning, e.g.
// interrupted or aborted runs).
func (s *AgentSpan) Finish(level string, output map[string]interface{}) {
	if s == nil || s.span == nil {
		return
	}
	if level != "" {
		s.span.SetAttributes(attribute.String("ai.span.level", level))
	}
	for k, v := range output {
		if str, ok := v.(string); ok {
			s.span.SetAttributes(attribute.String("ai.span.output."+k, str))
		}
	}
	s.span.End()
}

type traceCtxKey struct{}
type spanCtxKey struct{}

// withTrace establishes a new trace root for the duration of fn and returns
// fn's result (spec §4.9).
func withTrace(ctx context.Context, name string, metadata map[string]interface{}, fn func(context.Context) (*RunResult, error)) (*RunResult, error) {
	ctx, span := tracer().Start(ctx, name)
	tr := &Trace{Name: name, Metadata: metadata, ctx: ctx, rootSpan: span}
	ctx = context.WithValue(ctx, traceCtxKey{}, tr)

	result, err := fn(ctx)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	return result, err
}

// getCurrentTrace returns the ambient trace, or nil if none is open.
func getCurrentTrace(ctx context.Context) *Trace {
	tr, _ := ctx.Value(traceCtxKey{}).(*Trace)
	return tr
}

// getCurrentSpan returns the ambient agent span, or nil if none is open.
func getCurrentSpan(ctx context.Context) *AgentSpan {
	sp, _ := ctx.Value(spanCtxKey{}).(*AgentSpan)
	return sp
}

// setCurrentSpan returns a derived context carrying span as the ambient
// current span.
func setCurrentSpan(ctx context.Context, span *AgentSpan) context.Context {
	return context.WithValue(ctx, spanCtxKey{}, span)
}

// createContextualSpan opens a new span nested under the current span or
// trace, whichever is present (spec §4.9). Spans MUST be closed in LIFO
// order within a run; callers are responsible for calling End on the
// returned span before closing any enclosing span.
func createContextualSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *AgentSpan) {
	childCtx, span := tracer().Start(ctx, name, trace.WithAttributes(attrs...))
	as := &AgentSpan{AgentName: name, span: span}
	return setCurrentSpan(childCtx, as), as
}

// createContextualGeneration opens a span specialized for a model call,
// ending with token-usage attributes (spec §4.9).
func createContextualGeneration(ctx context.Context, name, modelID string) (context.Context, *AgentSpan) {
	return createContextualSpan(ctx, name, attribute.String("ai.model.id", modelID))
}

// endGeneration closes a generation span with the final usage totals.
func endGeneration(span *AgentSpan, usage Usage) {
	if span == nil || span.span == nil {
		return
	}
	span.span.SetAttributes(
		attribute.Int64("ai.usage.inputTokens", usage.InputTokens),
		attribute.Int64("ai.usage.outputTokens", usage.OutputTokens),
		attribute.Int64("ai.usage.totalTokens", usage.TotalTokens),
	)
	span.span.End()
}

// startToolSpan opens a span for a single tool execution (spec §4.6 step 4).
func startToolSpan(ctx context.Context, toolName, callID string) (context.Context, *AgentSpan) {
	return createContextualSpan(ctx, "tool."+toolName, attribute.String("ai.tool.callId", callID))
}
