package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// MetricsSnapshot collects metrics into a private Prometheus registry and
// writes them in text exposition format when closed. It suits batch runs
// scraped by a node exporter textfile collector.
type MetricsSnapshot struct {
	path     string
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider
}

// NewMetricsSnapshot prepares a snapshot that is written to path on Close.
// res may be nil.
func NewMetricsSnapshot(path string, res *resource.Resource) (*MetricsSnapshot, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithReader(exporter)}
	if res != nil {
		opts = append(opts, sdkmetric.WithResource(res))
	}

	return &MetricsSnapshot{
		path:     path,
		registry: registry,
		provider: sdkmetric.NewMeterProvider(opts...),
	}, nil
}

// Provider returns the meter provider feeding the snapshot.
func (s *MetricsSnapshot) Provider() metric.MeterProvider { return s.provider }

// Gather returns the current metric families.
func (s *MetricsSnapshot) Gather() ([]string, error) {
	families, err := s.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}

	return names, nil
}

// Close writes the snapshot and shuts the provider down.
func (s *MetricsSnapshot) Close(ctx context.Context) error {
	writeErr := prometheus.WriteToTextfile(s.path, s.registry)
	if writeErr != nil {
		writeErr = fmt.Errorf("write metrics file %s: %w", s.path, writeErr)
	}

	return errors.Join(writeErr, s.provider.Shutdown(ctx))
}
