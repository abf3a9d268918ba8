package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"ridership/internal/config"
)

// MeterName is the instrumentation scope of every tracer and meter.
const MeterName = "ridership"

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prom.Registry
	PrometheusHTTP http.Handler
	Metrics        *PipelineMetrics
	Logger         *slog.Logger
}

// InitializeOTel sets up tracing and metrics. Metrics are always collected
// into a private Prometheus registry; tracing is only exported when the
// configured exporter is "stdout".
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*OTelProviders, error) {
	return initializeOTel(cfg, logger, os.Stdout)
}

func initializeOTel(cfg config.TelemetryConfig, logger *slog.Logger, traceOut io.Writer) (*OTelProviders, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = config.AppName
	}

	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(config.AppVersion),
		attribute.String("service.instance.id", generateInstanceID()),
	)

	providers := &OTelProviders{Logger: logger}

	if err := initializeTracing(ctx, cfg, res, providers, traceOut); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(ctx, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialization complete",
		slog.String("service", cfg.ServiceName),
		slog.String("trace_exporter", cfg.TraceExporter))

	return providers, nil
}

func initializeTracing(ctx context.Context, cfg config.TelemetryConfig, res *resource.Resource, providers *OTelProviders, out io.Writer) error {
	switch cfg.TraceExporter {
	case "", "none":
		providers.Tracer = otel.Tracer(MeterName)
		return nil
	case "stdout":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(config.AppVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

func initializeMetrics(ctx context.Context, res *resource.Resource, providers *OTelProviders) error {
	registry := prom.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.Registry = registry
	providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(config.AppVersion))
	otel.SetMeterProvider(mp)

	metrics, err := NewPipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	providers.Metrics = metrics

	providers.Logger.DebugContext(ctx, "Metrics initialized", slog.String("exporter", "prometheus"))
	return nil
}

// WriteMetricsFile dumps the current registry in the Prometheus text format.
// The file is replaced atomically, as node_exporter's textfile collector expects.
func (p *OTelProviders) WriteMetricsFile(path string) error {
	if p.Registry == nil {
		return fmt.Errorf("metrics registry not initialized")
	}
	return prom.WriteToTextfile(path, p.Registry)
}

// PipelineMetrics holds the instruments recorded by the pipeline
type PipelineMetrics struct {
	StationsProcessed metric.Int64Counter
	StepDuration      metric.Float64Histogram
	FitR2             metric.Float64Gauge
	FitMSE            metric.Float64Gauge
	GamesScraped      metric.Int64Counter
	ScrapeRetries     metric.Int64Counter
	RowsExtracted     metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	stationsProcessed, err := meter.Int64Counter(
		"ridership.stations.processed",
		metric.WithDescription("Stations processed, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"ridership.step.duration",
		metric.WithDescription("Station step execution duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	fitR2, err := meter.Float64Gauge(
		"ridership.fit.r2",
		metric.WithDescription("Coefficient of determination of the last fit per station"),
	)
	if err != nil {
		return nil, err
	}

	fitMSE, err := meter.Float64Gauge(
		"ridership.fit.mse",
		metric.WithDescription("Mean squared error of the counterfactual prediction per station"),
	)
	if err != nil {
		return nil, err
	}

	gamesScraped, err := meter.Int64Counter(
		"ridership.scraper.games",
		metric.WithDescription("Box scores scraped, by venue"),
	)
	if err != nil {
		return nil, err
	}

	scrapeRetries, err := meter.Int64Counter(
		"ridership.scraper.retries",
		metric.WithDescription("Requests retried after a rate limit response"),
	)
	if err != nil {
		return nil, err
	}

	rowsExtracted, err := meter.Int64Counter(
		"ridership.warehouse.rows",
		metric.WithDescription("Ridership rows extracted from the warehouse"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		StationsProcessed: stationsProcessed,
		StepDuration:      stepDuration,
		FitR2:             fitR2,
		FitMSE:            fitMSE,
		GamesScraped:      gamesScraped,
		ScrapeRetries:     scrapeRetries,
		RowsExtracted:     rowsExtracted,
	}, nil
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.DebugContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts trace ID from context for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// RecordStepMetrics records one station step execution
func RecordStepMetrics(ctx context.Context, metrics *PipelineMetrics, station, step string, duration time.Duration, success bool) {
	if metrics == nil {
		return
	}

	status := "success"
	if !success {
		status = "failure"
	}
	metrics.StepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("station", station),
		attribute.String("step", step),
		attribute.String("status", status),
	))
}

// RecordStationOutcome counts a finished station job
func RecordStationOutcome(ctx context.Context, metrics *PipelineMetrics, station, status string) {
	if metrics == nil {
		return
	}
	metrics.StationsProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("station", station),
		attribute.String("status", status),
	))
}

// RecordFit publishes the fit quality of a station
func RecordFit(ctx context.Context, metrics *PipelineMetrics, station string, r2, r2Event, mse float64) {
	if metrics == nil {
		return
	}
	metrics.FitR2.Record(ctx, r2, metric.WithAttributes(
		attribute.String("station", station),
		attribute.String("view", "counterfactual"),
	))
	metrics.FitR2.Record(ctx, r2Event, metric.WithAttributes(
		attribute.String("station", station),
		attribute.String("view", "event"),
	))
	metrics.FitMSE.Record(ctx, mse, metric.WithAttributes(attribute.String("station", station)))
}
