// Package otel provides OpenTelemetry integration for storage-engine metrics.
//
// This package implements the hashengine.MetricsCollector interface using
// OpenTelemetry, enabling operation-latency histograms and migration-progress
// counters on any OTEL-compatible backend (Prometheus, Jaeger, DataDog).
//
// # Usage
//
//	import (
//	    "github.com/avifenesh/storage-engine"
//	    hashengineotel "github.com/avifenesh/storage-engine/otel"
//	    "go.opentelemetry.io/otel/exporters/prometheus"
//	    "go.opentelemetry.io/otel/sdk/metric"
//	)
//
//	exporter, _ := prometheus.New()
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	collector, _ := hashengineotel.NewOTelMetricsCollector(provider)
//
//	cfg := hashengine.DefaultEngineConfig()
//	cfg.MetricsCollector = collector
//	eng, _ := hashengine.NewEngine(cfg)
//
// # Metrics Exposed
//
//   - hashengine_get_latency_ns: histogram of Get latencies
//   - hashengine_set_latency_ns: histogram of Put latencies
//   - hashengine_delete_latency_ns: histogram of Delete latencies
//   - hashengine_get_hits_total / hashengine_get_misses_total: counters
//   - hashengine_migration_steps_total: counter of slots migrated
//   - hashengine_resizes_total: counter of migration epochs started
//
// Copyright (c) 2026 storage-engine contributors
// SPDX-License-Identifier: MPL-2.0
package otel

import (
	"context"
	"errors"

	hashengine "github.com/avifenesh/storage-engine"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetricsCollector implements hashengine.MetricsCollector using
// OpenTelemetry. Safe for concurrent use; the underlying OTEL instruments
// are lock-free.
type OTelMetricsCollector struct {
	getLatency    metric.Int64Histogram
	setLatency    metric.Int64Histogram
	deleteLatency metric.Int64Histogram
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	migrations    metric.Int64Counter
	resizes       metric.Int64Counter
}

// Options configures OTelMetricsCollector.
type Options struct {
	// MeterName is the name of the OpenTelemetry meter.
	// Default: "github.com/avifenesh/storage-engine"
	MeterName string
}

// Option is a functional option for configuring OTelMetricsCollector.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful for distinguishing
// metrics from multiple Engine instances.
func WithMeterName(name string) Option {
	return func(o *Options) {
		o.MeterName = name
	}
}

// NewOTelMetricsCollector creates an OpenTelemetry-backed MetricsCollector.
// provider must not be nil.
func NewOTelMetricsCollector(provider metric.MeterProvider, opts ...Option) (*OTelMetricsCollector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/avifenesh/storage-engine"}
	for _, opt := range opts {
		opt(&options)
	}

	meter := provider.Meter(options.MeterName)
	collector := &OTelMetricsCollector{}

	var err error
	collector.getLatency, err = meter.Int64Histogram(
		"hashengine_get_latency_ns",
		metric.WithDescription("Latency of Get operations in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.setLatency, err = meter.Int64Histogram(
		"hashengine_set_latency_ns",
		metric.WithDescription("Latency of Put operations in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.deleteLatency, err = meter.Int64Histogram(
		"hashengine_delete_latency_ns",
		metric.WithDescription("Latency of Delete operations in nanoseconds"),
		metric.WithUnit("ns"),
	)
	if err != nil {
		return nil, err
	}

	collector.hits, err = meter.Int64Counter(
		"hashengine_get_hits_total",
		metric.WithDescription("Total number of Get hits"),
	)
	if err != nil {
		return nil, err
	}

	collector.misses, err = meter.Int64Counter(
		"hashengine_get_misses_total",
		metric.WithDescription("Total number of Get misses"),
	)
	if err != nil {
		return nil, err
	}

	collector.migrations, err = meter.Int64Counter(
		"hashengine_migration_steps_total",
		metric.WithDescription("Total number of old-array slots migrated"),
	)
	if err != nil {
		return nil, err
	}

	collector.resizes, err = meter.Int64Counter(
		"hashengine_resizes_total",
		metric.WithDescription("Total number of migration epochs started"),
	)
	if err != nil {
		return nil, err
	}

	return collector, nil
}

// RecordGet records a Get operation's latency and hit/miss outcome.
func (c *OTelMetricsCollector) RecordGet(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.getLatency.Record(ctx, latencyNs)
	if hit {
		c.hits.Add(ctx, 1)
	} else {
		c.misses.Add(ctx, 1)
	}
}

// RecordSet records a Put operation's latency.
func (c *OTelMetricsCollector) RecordSet(latencyNs int64) {
	c.setLatency.Record(context.Background(), latencyNs)
}

// RecordDelete records a Delete operation's latency.
func (c *OTelMetricsCollector) RecordDelete(latencyNs int64) {
	c.deleteLatency.Record(context.Background(), latencyNs)
}

// RecordMigrationStep increments the migrated-slots counter.
func (c *OTelMetricsCollector) RecordMigrationStep() {
	c.migrations.Add(context.Background(), 1)
}

// RecordResize increments the migration-epochs counter.
func (c *OTelMetricsCollector) RecordResize(newBucketCount uint32) {
	c.resizes.Add(context.Background(), 1)
}

var _ hashengine.MetricsCollector = (*OTelMetricsCollector)(nil)
