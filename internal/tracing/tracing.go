// Package tracing configures OpenTelemetry tracing for runs.
//
// Tracing is off unless an exporter is chosen. The "stdout" exporter
// pretty-prints spans to standard output; "file:<path>" appends one JSON
// span per line to path.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultServiceName identifies gauntlet in exported spans.
const DefaultServiceName = "gauntlet"

// Exporter names.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterFile   = "file"
)

// Config configures the tracing subsystem.
type Config struct {
	// Exporter selects the export backend: "none", "stdout" or "file".
	Exporter string

	// FilePath is the output file for the "file" exporter.
	FilePath string

	// ServiceName identifies this process in traces.
	// Default: "gauntlet"
	ServiceName string

	// Writer overrides standard output for the "stdout" exporter.
	Writer io.Writer
}

// ParseFlag reads the --trace flag form: "", "none", "stdout" or
// "file:<path>".
func ParseFlag(s string) (Config, error) {
	switch {
	case s == "" || s == ExporterNone:
		return Config{Exporter: ExporterNone}, nil
	case s == ExporterStdout:
		return Config{Exporter: ExporterStdout}, nil
	case strings.HasPrefix(s, ExporterFile+":"):
		path := strings.TrimPrefix(s, ExporterFile+":")
		if path == "" {
			return Config{}, fmt.Errorf("trace %q: file path required", s)
		}
		return Config{Exporter: ExporterFile, FilePath: path}, nil
	default:
		return Config{}, fmt.Errorf("unsupported trace exporter %q (want none, stdout or file:<path>)", s)
	}
}

// Provider manages the OpenTelemetry tracer provider.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	closer   io.Closer
}

// NewProvider creates and configures the trace provider. With the "none"
// exporter a no-op tracer is returned.
func NewProvider(cfg Config) (*Provider, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	var (
		exporter sdktrace.SpanExporter
		closer   io.Closer
		err      error
	)
	switch cfg.Exporter {
	case "", ExporterNone:
		return &Provider{tracer: noop.NewTracerProvider().Tracer(serviceName)}, nil
	case ExporterStdout:
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create stdout exporter: %w", err)
		}
	case ExporterFile:
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("file path required for file exporter")
		}
		path := filepath.Clean(cfg.FilePath)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create trace directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("create file exporter: %w", err)
		}
		closer = f
	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.Exporter)
	}

	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(provider)

	return &Provider{
		provider: provider,
		tracer:   provider.Tracer(serviceName),
		closer:   closer,
	}, nil
}

// Tracer returns the configured tracer. It is safe to use when tracing is
// disabled.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Enabled reports whether spans are exported.
func (p *Provider) Enabled() bool {
	return p.provider != nil
}

// Shutdown flushes pending spans and releases the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	err := p.provider.Shutdown(ctx)
	if p.closer != nil {
		err = errors.Join(err, p.closer.Close())
	}
	return err
}
