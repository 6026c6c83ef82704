package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// sensitiveHeaders lists request header names GetBaseAttributes refuses to
// echo into span attributes, regardless of case the caller used. Keys are
// lower case; lookups lower-case the header name first.
var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"x-api-key":     true,
	"api-key":       true,
}

// SpanOptions configures one RecordSpan call.
type SpanOptions struct {
	Name       string
	Attributes []attribute.KeyValue

	// EndWhenDone ends the span on a successful return; an erroring fn
	// always ends its span regardless of this flag.
	EndWhenDone bool
}

// RecordSpan runs fn inside a child span named opts.Name, recording any
// returned error on the span (and ending it) before propagating the error
// to the caller.
func RecordSpan[T any](
	ctx context.Context,
	tracer trace.Tracer,
	opts SpanOptions,
	fn func(context.Context, trace.Span) (T, error),
) (T, error) {
	ctx, span := tracer.Start(ctx, opts.Name, trace.WithAttributes(opts.Attributes...))

	result, err := fn(ctx, span)
	if err != nil {
		RecordErrorOnSpan(span, err)
		span.End()
		var zero T
		return zero, err
	}

	if opts.EndWhenDone {
		span.End()
	}
	return result, nil
}

// RecordErrorOnSpan marks span as failed with err, a no-op when err is nil.
func RecordErrorOnSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetBaseAttributes builds the standard ai.model.* / ai.telemetry.* /
// ai.request.headers.* attribute set attached to every model-call span.
// Headers in sensitiveHeaders are dropped rather than echoed.
func GetBaseAttributes(provider, modelID string, settings *Settings, headers map[string]string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("ai.model.provider", provider),
		attribute.String("ai.model.id", modelID),
	}

	if settings != nil {
		if settings.FunctionID != "" {
			attrs = append(attrs, attribute.String("ai.telemetry.functionId", settings.FunctionID))
		}
		for key, value := range settings.Metadata {
			attrs = append(attrs, attribute.KeyValue{Key: attribute.Key("ai.telemetry.metadata." + key), Value: value})
		}
	}

	for key, value := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			continue
		}
		attrs = append(attrs, attribute.String("ai.request.headers."+key, value))
	}

	return attrs
}

// AddSettingsAttributes sets span attributes for each entry of settings
// under prefix, dispatching by the value's concrete Go type; entries of an
// unsupported type are silently skipped.
func AddSettingsAttributes(span trace.Span, prefix string, settings map[string]interface{}) {
	for key, value := range settings {
		attrKey := prefix + "." + key
		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(attrKey, v))
		case int:
			span.SetAttributes(attribute.Int(attrKey, v))
		case int64:
			span.SetAttributes(attribute.Int64(attrKey, v))
		case float64:
			span.SetAttributes(attribute.Float64(attrKey, v))
		case bool:
			span.SetAttributes(attribute.Bool(attrKey, v))
		}
	}
}
