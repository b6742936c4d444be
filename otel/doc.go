// Package otel provides OpenTelemetry integration for storage-engine
// metrics.
//
// # Overview
//
// This package implements the hashengine.MetricsCollector interface using
// OpenTelemetry, enabling automatic percentile calculation (via
// histograms) and multi-backend export (Prometheus, Jaeger, DataDog) for
// a running Engine's Get/Put/Delete latencies and migration progress.
//
// It is a separate module so the core hashengine package carries no OTEL
// dependency; applications that don't need metrics don't pay for them.
//
// # Quick Start
//
//	exporter, err := prometheus.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	defer provider.Shutdown(context.Background())
//
//	collector, err := hashengineotel.NewOTelMetricsCollector(provider)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	cfg := hashengine.DefaultEngineConfig()
//	cfg.MetricsCollector = collector
//	eng, err := hashengine.NewEngine(cfg)
//
// # Metrics Exposed
//
// Histograms (with automatic percentiles):
//   - hashengine_get_latency_ns
//   - hashengine_set_latency_ns
//   - hashengine_delete_latency_ns
//
// Counters:
//   - hashengine_get_hits_total / hashengine_get_misses_total
//   - hashengine_migration_steps_total
//   - hashengine_resizes_total
//
// # Prometheus Queries
//
//	histogram_quantile(0.99, rate(hashengine_get_latency_ns_bucket[5m]))
//	rate(hashengine_get_hits_total[5m]) /
//	  (rate(hashengine_get_hits_total[5m]) + rate(hashengine_get_misses_total[5m]))
//	rate(hashengine_migration_steps_total[1m])
package otel
