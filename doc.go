// Package hashengine provides a concurrent, in-memory, open-addressed
// key-value hash table keyed by SipHash-2-4.
//
// # Overview
//
// hashengine implements linear-probed open addressing with tombstone
// deletion, load-factor-driven geometric resize, and an incremental
// dual-table migration protocol so readers and writers never block on a
// resize in progress. It is not a cache: there is no eviction, no TTL, and
// no capacity limit other than MaxBuckets.
//
// # Quick Start
//
//	eng, err := hashengine.NewEngine(hashengine.DefaultEngineConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer eng.Destroy()
//
//	if err := eng.Put([]byte("user:123"), []byte("alice")); err != nil {
//		log.Fatal(err)
//	}
//
//	value, err := eng.Get([]byte("user:123"))
//	if err != nil {
//		if hashengine.IsNotFound(err) {
//			// key absent
//		}
//	}
//
// # Concurrency Model
//
//   - Any number of goroutines may call Put, Get, and Delete concurrently.
//   - Two operations on disjoint keys are always independent.
//   - For a fixed key, the linearization order is determined by the order
//     in which each operation acquires that key's resident slot lock.
//   - Stats is a lock-free, approximate snapshot; it may reflect either
//     side of a concurrent mutation.
//
// Internal synchronization:
//   - Per-slot mutex guards payload mutation and the OCCUPIED transition.
//   - The engine mutex guards only migration epoch start/finish (the
//     array-swap steps); it is never held across a slot operation.
//   - Bucket state, item/byte counters, the migration cursor, and the
//     active-worker count are all plain atomics.
//
// # Resize and Migration
//
// A grow is requested once item_count/bucket_count reaches MaxLoadFactor
// (default 0.75); a shrink once it falls below MinLoadFactor (default
// 0.20), bounded by MinBuckets/MaxBuckets. Only one migration epoch runs
// at a time. Once started, every subsequent Put/Get/Delete performs a
// small fixed batch of migration work (MigrateBatch slots) before its own
// action, claiming slots via an atomic fetch-add on the migration cursor.
// The draining array is reclaimed once the cursor has passed its end and
// no worker is mid-step.
//
// # Error Handling
//
// Errors are built with github.com/agilira/go-errors and carry a
// structured ErrorCode plus context. Use the Is* helpers rather than
// comparing error codes directly:
//
//	if hashengine.IsNotFound(err) { ... }
//	if hashengine.IsRetryable(err) { ... }
//
// # Observability
//
// EngineConfig accepts a Logger (the engine logs two conditions only: a
// weak SipHash key fallback, and a skipped resize after an allocation
// failure; EngineHotConfig also warns there about locked fields) and a
// MetricsCollector for per-operation latency and migration progress. The
// core package has no OpenTelemetry dependency; github.com/<module>/otel
// is a separate module implementing MetricsCollector on top of
// go.opentelemetry.io/otel/metric.
//
// # Configuration
//
//	cfg := hashengine.EngineConfig{
//		InitialBuckets: 1024,
//		MaxLoadFactor:  0.75,
//		MinLoadFactor:  0.20,
//		MigrateBatch:   2,
//		Logger:         myLogger,
//		MetricsCollector: metricsCollector,
//	}
//	eng, err := hashengine.NewEngine(cfg)
//
// EngineConfig.Validate normalizes out-of-range fields to the package
// defaults; it never rejects a configuration outright except for a
// non-positive InitialBuckets, which NewEngine reports as
// ErrCodeInvalidBucketCount.
package hashengine
