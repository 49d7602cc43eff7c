// Package observability sets up OpenTelemetry tracing for the server. Spans
// come from otelgin (HTTP), the GORM plugin (SQL) and the services layer; all
// of them are exported over OTLP/gRPC when tracing is enabled.
package observability

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/credentials"

	"github.com/tbourn/food-chat-backend/internal/config"
)

// Shutdown flushes pending spans and stops the exporter.
type Shutdown func(context.Context) error

// Test seams.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, attrs ...attribute.KeyValue) (*resource.Resource, error) {
		return resource.New(ctx, resource.WithAttributes(attrs...))
	}
)

func noop(context.Context) error { return nil }

// Setup configures the global tracer provider and propagator from cfg and
// returns its Shutdown. With tracing disabled it returns a no-op. Globals are
// left untouched on error.
func Setup(ctx context.Context, cfg config.Config, version string) (Shutdown, error) {
	oc := cfg.OTEL
	if !oc.Enabled {
		return noop, nil
	}
	if strings.TrimSpace(oc.Endpoint) == "" {
		return nil, errors.New("observability: OTLP endpoint is empty")
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(oc.Endpoint)}
	if oc.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(opts...))
	if err != nil {
		return nil, err
	}

	res, err := newServiceResourceFn(ctx, resourceAttrs(cfg, version)...)
	if err != nil {
		_ = exp.Shutdown(ctx)
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(oc.SampleRatio)))),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// resourceAttrs describes this process: service identity plus the selected
// store and model provider, so traces can be filtered per deployment shape.
func resourceAttrs(cfg config.Config, version string) []attribute.KeyValue {
	name := cfg.OTEL.ServiceName
	if name == "" {
		name = "food-chat-backend"
	}
	return []attribute.KeyValue{
		semconv.ServiceName(name),
		semconv.ServiceVersion(version),
		attribute.String("foodchat.store.driver", cfg.Store.Driver),
		attribute.String("foodchat.llm.provider", cfg.LLM.Provider),
	}
}

func clampRatio(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}
