package observability

import (
	"github.com/microbooks/microbooks/internal/config"
	"github.com/microbooks/microbooks/internal/observability/metrics"
	"go.uber.org/fx"
)

func newMetricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{
		Enabled:          cfg.MetricsEnabled,
		ExporterEndpoint: cfg.MetricsEndpoint,
		ExporterProtocol: cfg.MetricsExporter,
		ServiceName:      cfg.AppName,
	}
}

var Module = fx.Module("observability",
	fx.Provide(
		newMetricsConfig,
		metrics.NewProvider,
		metrics.New,
	),
)
