package apm

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span narrows the OTEL span surface to what the services use.
type Span interface {
	SetAttributes(values ...attribute.KeyValue)
	SetAttribute(value attribute.KeyValue)
	AddEvent(name string, options ...trace.EventOption)
	NoticeError(err error)
	SpanContext() trace.SpanContext
	IsRecording() bool
	End(options ...trace.SpanEndOption)
}

type otelSpan struct {
	span trace.Span
}

// NewSpan wraps a raw OTEL span.
func NewSpan(span trace.Span) Span {
	return &otelSpan{span: span}
}

func (s *otelSpan) SetAttributes(values ...attribute.KeyValue) {
	s.span.SetAttributes(values...)
}

func (s *otelSpan) SetAttribute(value attribute.KeyValue) {
	s.span.SetAttributes(value)
}

func (s *otelSpan) AddEvent(name string, options ...trace.EventOption) {
	s.span.AddEvent(name, options...)
}

// NoticeError records err on the span and marks the span failed.
func (s *otelSpan) NoticeError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

func (s *otelSpan) SpanContext() trace.SpanContext {
	return s.span.SpanContext()
}

func (s *otelSpan) IsRecording() bool {
	return s.span.IsRecording()
}

func (s *otelSpan) End(options ...trace.SpanEndOption) {
	s.span.End(options...)
}
