package observability

import (
	"github.com/smallbiznis/tailorbook/internal/observability/logger"
	"github.com/smallbiznis/tailorbook/internal/observability/metrics"
	"github.com/smallbiznis/tailorbook/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module wires the logger, the tracer provider and both metric pipelines
// (OTel instruments and Prometheus HTTP collectors).
var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.LoggerConfig,
		Config.TracingConfig,
		Config.MetricsConfig,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	// The tracer provider has no consumers that ask for it by type; this
	// forces it to be built so the global provider is installed.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

func (c Config) LoggerConfig() logger.Config {
	return logger.Config{
		ServiceName:         c.ServiceName,
		Environment:         c.Environment,
		Version:             c.Version,
		Level:               c.LogLevel,
		Format:              c.LogFormat,
		Debug:               c.Debug(),
		IncludeCaller:       true,
		IncludeStackOnError: c.Debug(),
	}
}

func (c Config) TracingConfig() tracing.Config {
	return tracing.Config{
		Enabled:          c.OtelEnabled,
		ServiceName:      c.ServiceName,
		ServiceVersion:   c.Version,
		Environment:      c.Environment,
		ExporterEndpoint: c.OtelExporterEndpoint,
		ExporterProtocol: c.OtelExporterProtocol,
		SamplingRatio:    c.OtelSamplingRatio,
	}
}

func (c Config) MetricsConfig() metrics.Config {
	return metrics.Config{
		Enabled:          c.OtelEnabled,
		ExporterEndpoint: c.OtelExporterEndpoint,
		ExporterProtocol: c.OtelExporterProtocol,
		ServiceName:      c.ServiceName,
		Environment:      c.Environment,
	}
}
