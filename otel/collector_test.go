package otel

import (
	"context"
	"testing"
	"time"

	hashengine "github.com/avifenesh/storage-engine"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestOTelMetricsCollector_Interface(t *testing.T) {
	var _ hashengine.MetricsCollector = (*OTelMetricsCollector)(nil)
}

func TestNewOTelMetricsCollector(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Errorf("Failed to shutdown provider: %v", err)
		}
	}()

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}
	if collector == nil {
		t.Fatal("NewOTelMetricsCollector() returned nil")
	}
}

func TestNewOTelMetricsCollector_NilProvider(t *testing.T) {
	collector, err := NewOTelMetricsCollector(nil)
	if err == nil {
		t.Fatal("NewOTelMetricsCollector(nil) should return error")
	}
	if collector != nil {
		t.Fatal("NewOTelMetricsCollector(nil) should return nil collector")
	}
}

func TestOTelMetricsCollector_RecordGet(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordGet(1000, true)
	collector.RecordGet(2000, false)
	collector.RecordGet(1500, true)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("No scope metrics recorded")
	}

	var foundLatency, foundHits, foundMisses bool

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "hashengine_get_latency_ns":
				foundLatency = true
				hist, ok := m.Data.(metricdata.Histogram[int64])
				if !ok {
					t.Errorf("Expected Histogram[int64], got %T", m.Data)
					continue
				}
				if len(hist.DataPoints) == 0 {
					t.Error("No histogram data points")
					continue
				}
				totalCount := uint64(0)
				for _, dp := range hist.DataPoints {
					totalCount += dp.Count
				}
				if totalCount != 3 {
					t.Errorf("Expected 3 operations, got %d", totalCount)
				}

			case "hashengine_get_hits_total":
				foundHits = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Errorf("Expected Sum[int64], got %T", m.Data)
					continue
				}
				if len(sum.DataPoints) == 0 {
					t.Error("No sum data points")
					continue
				}
				if sum.DataPoints[0].Value != 2 {
					t.Errorf("Expected 2 hits, got %d", sum.DataPoints[0].Value)
				}

			case "hashengine_get_misses_total":
				foundMisses = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					t.Errorf("Expected Sum[int64], got %T", m.Data)
					continue
				}
				if len(sum.DataPoints) == 0 {
					t.Error("No sum data points")
					continue
				}
				if sum.DataPoints[0].Value != 1 {
					t.Errorf("Expected 1 miss, got %d", sum.DataPoints[0].Value)
				}
			}
		}
	}

	if !foundLatency {
		t.Error("hashengine_get_latency_ns metric not found")
	}
	if !foundHits {
		t.Error("hashengine_get_hits_total metric not found")
	}
	if !foundMisses {
		t.Error("hashengine_get_misses_total metric not found")
	}
}

func TestOTelMetricsCollector_RecordSet(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordSet(500)
	collector.RecordSet(1000)
	collector.RecordSet(750)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	var foundLatency bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "hashengine_set_latency_ns" {
				foundLatency = true
				hist, ok := m.Data.(metricdata.Histogram[int64])
				if !ok {
					t.Errorf("Expected Histogram[int64], got %T", m.Data)
					continue
				}
				if len(hist.DataPoints) == 0 {
					t.Error("No histogram data points")
					continue
				}
				totalCount := uint64(0)
				for _, dp := range hist.DataPoints {
					totalCount += dp.Count
				}
				if totalCount != 3 {
					t.Errorf("Expected 3 operations, got %d", totalCount)
				}
			}
		}
	}

	if !foundLatency {
		t.Error("hashengine_set_latency_ns metric not found")
	}
}

func TestOTelMetricsCollector_RecordDelete(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordDelete(300)
	collector.RecordDelete(600)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	var foundLatency bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "hashengine_delete_latency_ns" {
				foundLatency = true
				hist, ok := m.Data.(metricdata.Histogram[int64])
				if !ok {
					t.Errorf("Expected Histogram[int64], got %T", m.Data)
					continue
				}
				if len(hist.DataPoints) == 0 {
					t.Error("No histogram data points")
					continue
				}
				totalCount := uint64(0)
				for _, dp := range hist.DataPoints {
					totalCount += dp.Count
				}
				if totalCount != 2 {
					t.Errorf("Expected 2 operations, got %d", totalCount)
				}
			}
		}
	}

	if !foundLatency {
		t.Error("hashengine_delete_latency_ns metric not found")
	}
}

func TestOTelMetricsCollector_RecordMigrationStepAndResize(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	collector.RecordMigrationStep()
	collector.RecordMigrationStep()
	collector.RecordMigrationStep()
	collector.RecordResize(64)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	var foundMigrations, foundResizes bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "hashengine_migration_steps_total":
				foundMigrations = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) == 0 {
					t.Errorf("Expected Sum[int64] with data points, got %T", m.Data)
					continue
				}
				if sum.DataPoints[0].Value != 3 {
					t.Errorf("Expected 3 migration steps, got %d", sum.DataPoints[0].Value)
				}
			case "hashengine_resizes_total":
				foundResizes = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) == 0 {
					t.Errorf("Expected Sum[int64] with data points, got %T", m.Data)
					continue
				}
				if sum.DataPoints[0].Value != 1 {
					t.Errorf("Expected 1 resize, got %d", sum.DataPoints[0].Value)
				}
			}
		}
	}

	if !foundMigrations {
		t.Error("hashengine_migration_steps_total metric not found")
	}
	if !foundResizes {
		t.Error("hashengine_resizes_total metric not found")
	}
}

func TestOTelMetricsCollector_Concurrent(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(provider)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}

	const numGoroutines = 10
	const opsPerGoroutine = 100
	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < opsPerGoroutine; j++ {
				collector.RecordGet(int64(100+id), j%2 == 0)
				collector.RecordSet(int64(200 + id))
				collector.RecordDelete(int64(50 + id))
				collector.RecordMigrationStep()
			}
			done <- true
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Test timeout - deadlock?")
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("No metrics collected after concurrent operations")
	}
}

func TestOTelMetricsCollector_WithOptions(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := NewOTelMetricsCollector(
		provider,
		WithMeterName("custom_hashengine"),
	)
	if err != nil {
		t.Fatalf("NewOTelMetricsCollector() error = %v", err)
	}
	if collector == nil {
		t.Fatal("NewOTelMetricsCollector() returned nil")
	}

	collector.RecordGet(1000, true)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}

	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("No scope metrics")
	}

	if rm.ScopeMetrics[0].Scope.Name != "custom_hashengine" {
		t.Errorf("Expected scope name 'custom_hashengine', got '%s'", rm.ScopeMetrics[0].Scope.Name)
	}
}
