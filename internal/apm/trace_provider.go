// Package apm wires OpenTelemetry tracing behind a small provider-agnostic API.
package apm

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/babylon-finance/price-resolver/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// Provider names a span export backend.
type Provider string

const (
	NewRelicProvider  Provider = "NEWRELIC_PROVIDER"
	ZipkinProvider    Provider = "ZIPKIN_PROVIDER"
	HoneycombProvider Provider = "HONEYCOMB_PROVIDER"
	ConsoleProvider   Provider = "CONSOLE_PROVIDER"
	EmptyProvider     Provider = "EMPTY_PROVIDER"
)

// TraceProvider owns an exporter pipeline; Stop flushes and shuts it down.
type TraceProvider interface {
	Stop() error
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type TracerOptions struct {
	exporter     sdktrace.SpanExporter
	providerName string
	useEmpty     bool
}

type TracerOption func(*TracerOptions)

// WithProvider selects the export backend. Unknown providers fall back to a
// no-op pipeline rather than failing startup.
func WithProvider(provider Provider, log logger.LoggerInterface) TracerOption {
	switch provider {
	case ZipkinProvider:
		return useZipkin()
	case ConsoleProvider:
		return useConsole()
	case NewRelicProvider:
		return useNewRelic()
	case HoneycombProvider:
		return useHoneycomb(log)
	default:
		log.Warn(context.Background(), "unknown trace provider, tracing disabled", "provider", string(provider))
		return useEmpty()
	}
}

func useEmpty() TracerOption {
	return func(o *TracerOptions) {
		o.useEmpty = true
		o.providerName = string(EmptyProvider)
	}
}

func useConsole() TracerOption {
	return func(o *TracerOptions) {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			panic(err)
		}

		o.exporter = exp
		o.providerName = string(ConsoleProvider)
	}
}

func useZipkin() TracerOption {
	return func(o *TracerOptions) {
		exp, err := zipkin.New(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
		if err != nil {
			panic(err)
		}

		o.exporter = exp
		o.providerName = string(ZipkinProvider)
	}
}

func useNewRelic() TracerOption {
	return func(o *TracerOptions) {
		apiKey := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS_KEY")
		endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

		exp, err := otlptracegrpc.New(
			context.Background(),
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithHeaders(map[string]string{"api-key": apiKey}),
		)
		if err != nil {
			panic(err)
		}

		o.exporter = exp
		o.providerName = string(NewRelicProvider)
	}
}

func useHoneycomb(log logger.LoggerInterface) TracerOption {
	return func(o *TracerOptions) {
		endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
		protocol := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")

		// the team key arrives as a single "header=value" pair
		header := strings.SplitN(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"), "=", 2)
		if len(header) != 2 {
			log.Error(context.Background(), "OTEL_EXPORTER_OTLP_HEADERS must be key=value")
			panic("invalid OTEL_EXPORTER_OTLP_HEADERS")
		}
		headers := map[string]string{header[0]: header[1]}

		var exp sdktrace.SpanExporter
		var err error
		if protocol == "http/protobuf" {
			exp, err = otlptracehttp.New(
				context.Background(),
				otlptracehttp.WithEndpointURL(endpoint),
				otlptracehttp.WithHeaders(headers),
			)
		} else {
			exp, err = otlptracegrpc.New(
				context.Background(),
				otlptracegrpc.WithEndpointURL(endpoint),
				otlptracegrpc.WithHeaders(headers),
			)
		}
		if err != nil {
			log.Error(context.Background(), "honeycomb exporter init failed", "error", err)
			panic(err)
		}

		o.exporter = exp
		o.providerName = string(HoneycombProvider)
	}
}

// NewTraceProvider builds the global trace pipeline. The service name comes
// from OTEL_SERVICE_NAME.
func NewTraceProvider(log logger.LoggerInterface, options ...TracerOption) TraceProvider {
	if len(options) == 0 {
		options = []TracerOption{useEmpty()}
	}

	opts := &TracerOptions{}
	for _, opt := range options {
		opt(opts)
	}

	if opts.useEmpty {
		return NewEmptyTraceProvider()
	}

	rsrc, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(os.Getenv("OTEL_SERVICE_NAME")),
			attribute.String("otel.provider", opts.providerName),
		))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(opts.exporter),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	return &traceProvider{tp}
}

func (p *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return p.tp.Shutdown(ctx)
}
