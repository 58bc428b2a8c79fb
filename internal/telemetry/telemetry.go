// Package telemetry sets up request tracing. Spans from the HTTP transport
// are written as JSON lines to a trace file.
package telemetry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "taskmgr"

// Tracer owns a TracerProvider and the file its spans go to.
type Tracer struct {
	tp   *sdktrace.TracerProvider
	file *os.File
}

// NewFile starts a provider that exports every span to path.
func NewFile(path string) (*Tracer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}

	exp, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("trace exporter init: %w", err)
	}

	res := resource.NewSchemaless(semconv.ServiceName(serviceName))
	// Commands are short-lived, so spans are exported as they end.
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
	)
	return &Tracer{tp: tp, file: f}, nil
}

// Provider returns the provider to hand to instrumented transports.
func (t *Tracer) Provider() trace.TracerProvider {
	return t.tp
}

// Close flushes pending spans and closes the trace file.
func (t *Tracer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := t.tp.Shutdown(ctx)
	if cerr := t.file.Close(); err == nil {
		err = cerr
	}
	return err
}
