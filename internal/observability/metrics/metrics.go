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

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	postings           metric.Int64Counter
	assignments        metric.Int64Counter
	chainVerifications metric.Int64Counter
	periodTransitions  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "microbooks"
	}
	meter := provider.Meter(name)

	postings, err := meter.Int64Counter("microbooks_ledger_postings_total")
	if err != nil {
		return nil, err
	}
	assignments, err := meter.Int64Counter("microbooks_assignments_total")
	if err != nil {
		return nil, err
	}
	chainVerifications, err := meter.Int64Counter("microbooks_chain_verifications_total")
	if err != nil {
		return nil, err
	}
	periodTransitions, err := meter.Int64Counter("microbooks_period_transitions_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		postings:           postings,
		assignments:        assignments,
		chainVerifications: chainVerifications,
		periodTransitions:  periodTransitions,
	}, nil
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch protocol {
	case "http":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported metrics exporter protocol %q", protocol)
	}
}

func (m *Metrics) RecordPosting(ctx context.Context, transactionType string) {
	if m == nil || m.postings == nil {
		return
	}
	m.postings.Add(ctx, 1, metric.WithAttributes(attribute.String("transaction_type", transactionType)))
}

func (m *Metrics) RecordAssignment(ctx context.Context, bulk bool) {
	if m == nil || m.assignments == nil {
		return
	}
	m.assignments.Add(ctx, 1, metric.WithAttributes(attribute.Bool("bulk", bulk)))
}

func (m *Metrics) RecordChainVerification(ctx context.Context, ok bool) {
	if m == nil || m.chainVerifications == nil {
		return
	}
	m.chainVerifications.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ok", ok)))
}

func (m *Metrics) RecordPeriodTransition(ctx context.Context, status string) {
	if m == nil || m.periodTransitions == nil {
		return
	}
	m.periodTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
