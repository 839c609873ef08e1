package apm

// noopTraceProvider satisfies TraceProvider when tracing is disabled. Spans
// still get created through the global OTEL no-op tracer; nothing is exported.
type noopTraceProvider struct{}

// NewEmptyTraceProvider returns a provider that exports nothing.
func NewEmptyTraceProvider() TraceProvider {
	return noopTraceProvider{}
}

func (noopTraceProvider) Stop() error {
	return nil
}
