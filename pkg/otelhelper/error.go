package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks the span as failed and attaches attrs to an error event.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("error_occurred", trace.WithAttributes(
		attrs...,
	))
}

// SetDegraded records a failure the caller recovered from without failing the span.
func SetDegraded(span trace.Span, reason string, attrs ...attribute.KeyValue) {
	span.AddEvent("degraded", trace.WithAttributes(
		append(attrs, attribute.String("reason", reason))...,
	))
}
