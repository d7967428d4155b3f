package observability

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	deorbit "github.com/TenessyD/MGA802-projet-final"
)

const tracerName = "github.com/TenessyD/MGA802-projet-final"

// TracingConfig governs how tracing is initialised.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string // stdout or otlp
	Endpoint    string // OTLP gRPC collector, localhost:4317 when empty
	SampleRatio float64
	Writer      io.Writer // stdout exporter destination, os.Stdout when nil
}

// TracingConfigFromEnv reads the tracing configuration from the DEORBIT_TRACING_* environment
// variables (ENABLED, SERVICE, EXPORTER, ENDPOINT and SAMPLE_RATIO, clamped to [0, 1]).
func TracingConfigFromEnv() TracingConfig {
	v := viper.New()
	v.SetEnvPrefix(deorbit.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service", "deorbit")
	v.SetDefault("tracing.exporter", "stdout")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.sample_ratio", 1.0)
	return TracingConfig{
		Enabled:     v.GetBool("tracing.enabled"),
		ServiceName: v.GetString("tracing.service"),
		Exporter:    strings.ToLower(v.GetString("tracing.exporter")),
		Endpoint:    v.GetString("tracing.endpoint"),
		SampleRatio: math.Min(math.Max(v.GetFloat64("tracing.sample_ratio"), 0), 1),
	}
}

// InitTracing installs the global tracer provider of the runs and returns the function flushing
// its spans. A disabled configuration installs a no-op provider.
func InitTracing(ctx context.Context, cfg TracingConfig, logger kitlog.Logger) (shutdown func(context.Context) error, err error) {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	logger = kitlog.With(logger, "subsys", "tracing")
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		logger.Log("level", "debug", "status", "disabled")
		return func(context.Context) error { return nil }, nil
	}

	newExporter, ok := spanExporters[strings.ToLower(cfg.Exporter)]
	if !ok {
		return nil, fmt.Errorf("unsupported tracing exporter: %s", cfg.Exporter)
	}
	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s exporter: %w", cfg.Exporter, err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
	)
	otel.SetTracerProvider(tp)
	logger.Log("level", "info", "status", "enabled", "exporter", cfg.Exporter, "service", cfg.ServiceName, "ratio", cfg.SampleRatio)
	return tp.Shutdown, nil
}

// spanExporters maps the exporter names to their constructors.
var spanExporters = map[string]func(context.Context, TracingConfig) (sdktrace.SpanExporter, error){
	"": stdoutExporter, "stdout": stdoutExporter,
	"otlp": otlpExporter, "otlpgrpc": otlpExporter,
}

func stdoutExporter(_ context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithoutTimestamps())
}

func otlpExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "localhost:4317"
	}
	return otlptrace.New(ctx, otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	))
}

// ShutdownWithTimeout invokes the provided shutdown function with a bounded timeout.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, logger kitlog.Logger) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil && logger != nil {
		logger.Log("level", "warning", "subsys", "tracing", "status", "shutdown failed", "err", err)
	}
}

// StartRun starts the span of a decay run of the provided scenario.
func StartRun(ctx context.Context, s *deorbit.Scenario) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "deorbit.Run", trace.WithAttributes(
		attribute.String("deorbit.approach", s.Approach.String()),
		attribute.Float64("deorbit.altitude_m", s.Orbit.Altitude),
		attribute.Float64("deorbit.inclination_deg", s.Orbit.Inclination),
		attribute.Float64("deorbit.step_s", s.Orbit.Step),
		attribute.Bool("deorbit.tether", s.Tether != nil),
	))
}

// EndRun records the outcome of a decay run on its span and ends it.
func EndRun(span trace.Span, result *deorbit.Result, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Outcome(err))
		return
	}
	span.SetAttributes(
		attribute.Float64("deorbit.days", result.Days),
		attribute.Int64("deorbit.steps", int64(result.Steps)),
	)
	span.SetStatus(codes.Ok, "")
}
