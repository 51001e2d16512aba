// Package observability wires process-wide structured logging.
//
// Instrument installs the default slog logger. Without further
// configuration, records go to stderr as text or JSON. Setting
// OTEL_LOGS_EXPORTER routes them into an OpenTelemetry log pipeline
// instead:
//
//	OTEL_LOGS_EXPORTER=otlp     OTLP export; OTEL_EXPORTER_OTLP_PROTOCOL
//	                            selects grpc or http/protobuf (default)
//	OTEL_LOGS_EXPORTER=console  human-readable export to stdout
//
// The exporter pipeline batches records and drops everything below the
// configured level. Flush drains it; main defers a Flush call so buffered
// records survive process exit.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// scopeName identifies this application as the instrumentation scope of
// exported log records.
const scopeName = "github.com/manwonyori/cafe24-auth"

// shutdown drains the exporter pipeline. Nil when logs go to stderr only.
var shutdown func(context.Context) error

// Instrument installs the process-wide logger at the given level. format is
// "text" or "json" and applies to stderr output; exporter pipelines use the
// OTLP encoding regardless.
func Instrument(level slog.Level, format string) error {
	exporter := os.Getenv("OTEL_LOGS_EXPORTER")
	switch exporter {
	case "", "none":
		handler, err := newStderrHandler(level, format)
		if err != nil {
			return err
		}
		slog.SetDefault(slog.New(handler))
		return nil
	case "otlp", "console":
		provider, err := newLoggerProvider(context.Background(), exporter, level)
		if err != nil {
			return fmt.Errorf("building log exporter pipeline: %w", err)
		}
		shutdown = provider.Shutdown
		global.SetLoggerProvider(provider)
		slog.SetDefault(otelslog.NewLogger(scopeName))
		return nil
	default:
		return fmt.Errorf("unsupported OTEL_LOGS_EXPORTER %q", exporter)
	}
}

// Flush drains buffered log records and shuts the exporter pipeline down.
// Safe to call when no pipeline was built.
func Flush(ctx context.Context) error {
	if shutdown == nil {
		return nil
	}
	return shutdown(ctx)
}

func newStderrHandler(level slog.Level, format string) (slog.Handler, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "json":
		return slog.NewJSONHandler(os.Stderr, opts), nil
	case "", "text":
		return slog.NewTextHandler(os.Stderr, opts), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
}

func newLoggerProvider(ctx context.Context, exporter string, level slog.Level) (*sdklog.LoggerProvider, error) {
	exp, err := newExporter(ctx, exporter)
	if err != nil {
		return nil, err
	}

	// Batch for throughput, then filter below the configured level so the
	// exporter never sees records the operator asked to drop.
	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exp), minSeverity(level))
	return sdklog.NewLoggerProvider(sdklog.WithProcessor(processor)), nil
}

func newExporter(ctx context.Context, kind string) (sdklog.Exporter, error) {
	if kind == "console" {
		return stdoutlog.New()
	}

	// OTLP endpoint and headers come from the standard OTEL_EXPORTER_OTLP_*
	// environment variables handled inside the exporters.
	switch protocol := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"); protocol {
	case "grpc":
		return otlploggrpc.New(ctx)
	case "", "http/protobuf":
		return otlploghttp.New(ctx)
	default:
		return nil, fmt.Errorf("unsupported OTEL_EXPORTER_OTLP_PROTOCOL %q", protocol)
	}
}

// minSeverity translates a slog level into the minimum OpenTelemetry
// severity the pipeline lets through.
func minSeverity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
