package instrument

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/levelup/internal/pkg/config"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Instrumentation hands out tracers and meters. The hub, usecases, stores and HTTP
// middleware each take one named after their component.
type Instrumentation interface {
	Tracer(name string) trace.Tracer
	Meter(name string) metric.Meter
	Shutdown(ctx context.Context) error
}

type Config struct {
	Enabled          bool
	ServiceName      string
	ServiceVersion   string
	Environment      string
	OTLPEndpoint     string
	OTLPSecure       bool
	TraceSampleRatio float64
	MetricsInterval  time.Duration
	// MaskFields are log attribute keys whose values are replaced with "***".
	MaskFields []string
	LogLevel   slog.Level
}

// ConfigFrom reads the instrument.* keys. An unknown log_level falls back to info.
func ConfigFrom(cfg config.Config) *Config {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.GetString("instrument.log_level"))); err != nil {
		level = slog.LevelInfo
	}

	return &Config{
		Enabled:          cfg.GetBool("instrument.enabled"),
		ServiceName:      cfg.GetString("instrument.service_name"),
		ServiceVersion:   cfg.GetString("instrument.service_version"),
		Environment:      cfg.GetString("instrument.env"),
		OTLPEndpoint:     cfg.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       cfg.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: min(max(cfg.GetFloat64("instrument.trace_sample_ratio"), 0), 1),
		MetricsInterval:  cfg.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       cfg.GetArray("instrument.log_mask_fields"),
		LogLevel:         level,
	}
}

func (c *Config) logOptions() LogOptions {
	return LogOptions{ServiceName: c.ServiceName, Level: c.LogLevel, MaskFields: c.MaskFields}
}

type otelInstrumentation struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider
}

// New installs the JSON logger and, when enabled, OTLP exporters for traces, metrics
// and logs. Disabled instrumentation still logs to stdout and returns a noop instance.
func New(ctx context.Context, cfg *Config) (Instrumentation, error) {
	if cfg == nil {
		return NewNoop(), nil
	}
	if !cfg.Enabled {
		SetupLogging(cfg.logOptions(), nil)
		return NewNoop(), nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("env", cfg.Environment),
	))
	if err != nil {
		return nil, err
	}

	exp, err := newExporters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	o := &otelInstrumentation{
		tracerProvider: sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.TraceSampleRatio))),
			sdktrace.WithBatcher(exp.trace),
		),
		meterProvider: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp.metric, sdkmetric.WithInterval(cfg.MetricsInterval))),
		),
		loggerProvider: sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(exp.log)),
		),
	}
	SetupLogging(cfg.logOptions(), o.loggerProvider)

	return o, nil
}

type exporters struct {
	trace  *otlptrace.Exporter
	metric *otlpmetricgrpc.Exporter
	log    *otlploggrpc.Exporter
}

// newExporters dials the collector for each signal. When one fails the ones
// already created are shut down.
func newExporters(ctx context.Context, cfg *Config) (exporters, error) {
	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if !cfg.OTLPSecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		logOpts = append(logOpts, otlploggrpc.WithInsecure())
	}

	var exp exporters
	var err error
	if exp.trace, err = otlptracegrpc.New(ctx, traceOpts...); err != nil {
		return exporters{}, err
	}
	if exp.log, err = otlploggrpc.New(ctx, logOpts...); err != nil {
		return exporters{}, errors.Join(err, exp.trace.Shutdown(ctx))
	}
	if exp.metric, err = otlpmetricgrpc.New(ctx, metricOpts...); err != nil {
		return exporters{}, errors.Join(err, exp.trace.Shutdown(ctx), exp.log.Shutdown(ctx))
	}
	return exp, nil
}

func (o *otelInstrumentation) Tracer(name string) trace.Tracer {
	return o.tracerProvider.Tracer(name)
}

func (o *otelInstrumentation) Meter(name string) metric.Meter {
	return o.meterProvider.Meter(name)
}

// Shutdown flushes pending spans, metrics and log records.
func (o *otelInstrumentation) Shutdown(ctx context.Context) error {
	return errors.Join(
		o.tracerProvider.Shutdown(ctx),
		o.meterProvider.Shutdown(ctx),
		o.loggerProvider.Shutdown(ctx),
	)
}

// NewNoop is returned when instrumentation is disabled and is used by tests.
func NewNoop() Instrumentation {
	return noopInstrumentation{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}
}

type noopInstrumentation struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

func (n noopInstrumentation) Tracer(name string) trace.Tracer { return n.tracerProvider.Tracer(name) }

func (n noopInstrumentation) Meter(name string) metric.Meter { return n.meterProvider.Meter(name) }

func (noopInstrumentation) Shutdown(context.Context) error { return nil }
