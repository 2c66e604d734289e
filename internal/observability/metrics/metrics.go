package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const exportInterval = 10 * time.Second

type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

const (
	recordOperations  = "tailorbook_record_operations_total"
	serialAllocations = "tailorbook_serial_allocations_total"
	receiptsRendered  = "tailorbook_receipts_rendered_total"
)

var domainCounters = []struct {
	name, description string
}{
	{recordOperations, "Record store operations by kind, operation and outcome."},
	{serialAllocations, "Identities handed out by kind and allocator source."},
	{receiptsRendered, "Bill receipts rendered to PDF by outcome."},
}

// Metrics holds the domain counters. A nil *Metrics discards everything.
type Metrics struct {
	counters map[string]metric.Int64Counter
}

// NewProvider registers the global meter provider, exporting over OTLP when
// enabled and falling back to a no-op provider otherwise.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, fmt.Errorf("metrics exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
	)
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.StopHook(provider.Shutdown))
	}
	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}
	return provider, nil
}

func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "tailorbook"
	}
	meter := provider.Meter(name)

	m := &Metrics{counters: make(map[string]metric.Int64Counter, len(domainCounters))}
	for _, c := range domainCounters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", c.name, err)
		}
		m.counters[c.name] = counter
	}
	return m, nil
}

func (m *Metrics) RecordOperation(ctx context.Context, kind, operation, outcome string) {
	m.add(ctx, recordOperations,
		attribute.String("kind", kind),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
}

func (m *Metrics) RecordSerialAllocation(ctx context.Context, kind, source string) {
	m.add(ctx, serialAllocations,
		attribute.String("kind", kind),
		attribute.String("source", source),
	)
}

func (m *Metrics) RecordReceipt(ctx context.Context, outcome string) {
	m.add(ctx, receiptsRendered, attribute.String("outcome", outcome))
}

func (m *Metrics) add(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	if m == nil {
		return
	}
	counter, ok := m.counters[name]
	if !ok {
		return
	}
	for i, attr := range attrs {
		attrs[i] = attribute.String(string(attr.Key), strings.TrimSpace(attr.Value.AsString()))
	}
	counter.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attrs...)...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc", "grpc/protobuf":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	case "http", "http/protobuf":
		var opts []otlpmetrichttp.Option
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]bool{
	"kind":        true,
	"operation":   true,
	"outcome":     true,
	"source":      true,
	"route":       true,
	"method":      true,
	"status_code": true,
}

// FilterAttributes drops labels outside the low-cardinality allow list.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := attrs[:0:0]
	for _, attr := range attrs {
		if allowedLabelKeys[attr.Key] {
			out = append(out, attr)
		}
	}
	return out
}
