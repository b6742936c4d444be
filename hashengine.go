// hashengine.go: package-level version and default tuning constants.
//
// Copyright (c) 2026 storage-engine contributors
// SPDX-License-Identifier: MPL-2.0
package hashengine

const (
	// Version of the storage engine.
	Version = "v0.1.0-dev"

	// DefaultInitialBuckets is the InitialBuckets value set by
	// DefaultEngineConfig. An InitialBuckets left at zero is not
	// defaulted: NewEngine rejects it.
	DefaultInitialBuckets = 16

	// DefaultMinBuckets is the floor bucket count a shrink will not
	// cross.
	DefaultMinBuckets uint32 = 16

	// DefaultMaxBuckets is the ceiling bucket count a grow will not
	// cross (2^20).
	DefaultMaxBuckets uint32 = 1 << 20

	// DefaultMaxLoadFactor triggers a grow when item_count/bucket_count
	// reaches this ratio.
	DefaultMaxLoadFactor = 0.75

	// DefaultMinLoadFactor triggers a shrink when item_count/bucket_count
	// falls below this ratio.
	DefaultMinLoadFactor = 0.20

	// DefaultMigrateBatch is the number of old-array slots migrated as a
	// side effect of each public operation while a resize is in progress.
	DefaultMigrateBatch = 2
)
