// config.go: configuration for the storage engine
//
// Copyright (c) 2026 storage-engine contributors
// SPDX-License-Identifier: MPL-2.0

package hashengine

import (
	"github.com/agilira/go-timecache"
)

// EngineConfig holds configuration parameters for an Engine. The
// grow/shrink/migration constants are a contract the test suite relies
// on (see MinBuckets, MaxBuckets, MaxLoadFactor, MinLoadFactor,
// MigrateBatch below); EngineConfig only widens how they are supplied,
// it never changes their defaults.
type EngineConfig struct {
	// InitialBuckets is the bucket count requested at Init. Rounded up
	// to a power of two within [MinBuckets, MaxBuckets]. Must be > 0;
	// Validate leaves it unchanged and NewEngine rejects zero or a
	// negative value. DefaultEngineConfig sets DefaultInitialBuckets.
	InitialBuckets int

	// MinBuckets is the floor bucket count a shrink will not cross.
	// Default: DefaultMinBuckets.
	MinBuckets uint32

	// MaxBuckets is the ceiling bucket count a grow will not cross.
	// Default: DefaultMaxBuckets.
	MaxBuckets uint32

	// MaxLoadFactor triggers a grow when item_count/bucket_count
	// reaches this ratio. Default: DefaultMaxLoadFactor (0.75).
	MaxLoadFactor float64

	// MinLoadFactor triggers a shrink when item_count/bucket_count
	// falls below this ratio. Default: DefaultMinLoadFactor (0.20).
	MinLoadFactor float64

	// MigrateBatch is the number of old-array slots migrated as a side
	// effect of each public operation while a resize is in progress.
	// Default: DefaultMigrateBatch (2). Safe to tune at runtime via
	// EngineHotConfig; never affects correctness, only how quickly a
	// migration epoch drains.
	MigrateBatch int

	// Logger is used for the two conditions the engine ever logs: a
	// weak SipHash key fallback, and a skipped resize due to
	// allocation failure. An EngineHotConfig attached to the engine
	// also warns through it when a reloaded file sets a locked field.
	// If nil, NoOpLogger is used.
	Logger Logger

	// TimeProvider provides the timestamps used to measure Put/Get/Delete
	// latency for MetricsCollector. If nil, a default implementation
	// backed by go-timecache is used.
	TimeProvider TimeProvider

	// MetricsCollector receives operation and migration telemetry. If
	// nil, NoOpMetricsCollector is used (zero overhead).
	MetricsCollector MetricsCollector
}

// Validate normalizes out-of-range configuration fields to the spec's
// defaults and fills in nil interfaces. It never returns a non-nil
// error; invalid InitialBuckets is reported separately by NewEngine,
// which is the only place a zero/negative bucket count is an
// invalid-argument error rather than a silently-corrected default.
func (c *EngineConfig) Validate() {
	if c.MinBuckets == 0 {
		c.MinBuckets = DefaultMinBuckets
	}
	if c.MaxBuckets == 0 {
		c.MaxBuckets = DefaultMaxBuckets
	}
	if c.MaxBuckets < c.MinBuckets {
		c.MaxBuckets = DefaultMaxBuckets
	}

	if c.MaxLoadFactor <= 0 || c.MaxLoadFactor >= 1 {
		c.MaxLoadFactor = DefaultMaxLoadFactor
	}
	if c.MinLoadFactor <= 0 || c.MinLoadFactor >= c.MaxLoadFactor {
		c.MinLoadFactor = DefaultMinLoadFactor
	}

	if c.MigrateBatch <= 0 {
		c.MigrateBatch = DefaultMigrateBatch
	}

	if c.Logger == nil {
		c.Logger = NoOpLogger{}
	}
	if c.TimeProvider == nil {
		c.TimeProvider = &systemTimeProvider{}
	}
	if c.MetricsCollector == nil {
		c.MetricsCollector = NoOpMetricsCollector{}
	}
}

// DefaultEngineConfig returns a configuration with the spec's defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		InitialBuckets:   DefaultInitialBuckets,
		MinBuckets:       DefaultMinBuckets,
		MaxBuckets:       DefaultMaxBuckets,
		MaxLoadFactor:    DefaultMaxLoadFactor,
		MinLoadFactor:    DefaultMinLoadFactor,
		MigrateBatch:     DefaultMigrateBatch,
		Logger:           NoOpLogger{},
		TimeProvider:     &systemTimeProvider{},
		MetricsCollector: NoOpMetricsCollector{},
	}
}

// systemTimeProvider is the default time provider using go-timecache.
// This provides much faster time access than time.Now() with zero
// allocations, which matters because every Put, Get, and Delete reads it
// to measure its latency.
type systemTimeProvider struct{}

func (t *systemTimeProvider) Now() int64 {
	return timecache.CachedTimeNano()
}
