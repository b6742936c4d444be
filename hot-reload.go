// hot-reload.go: dynamic configuration with Argus integration
//
// Copyright (c) 2026 storage-engine contributors
// SPDX-License-Identifier: MPL-2.0
package hashengine

import (
	"fmt"
	"sync"
	"time"

	"github.com/agilira/argus"
)

// EngineHotConfig watches a configuration file and applies the subset of
// EngineConfig that is safe to change on a running Engine: the migration
// batch size. No other field is reloaded. MinBuckets, MaxBuckets,
// MaxLoadFactor, and MinLoadFactor are compile-time contracts the test
// suite relies on (see spec's tunable constants); attempts to change them
// at runtime are logged and ignored rather than applied.
type EngineHotConfig struct {
	engine  *Engine
	watcher *argus.Watcher
	mu      sync.RWMutex

	migrateBatch int

	// OnReload is called after a configuration file change has been
	// applied. Optional; must be fast and non-blocking.
	OnReload func(oldMigrateBatch, newMigrateBatch int)
}

// EngineHotConfigOptions configures hot reload behavior.
type EngineHotConfigOptions struct {
	// ConfigPath is the path to the configuration file to watch.
	// Supports JSON, YAML, TOML, HCL, INI, Properties formats.
	ConfigPath string

	// PollInterval is how often to check for configuration changes.
	// Default: 1 second. Minimum: 100ms.
	PollInterval time.Duration

	// OnReload is called after configuration is successfully reloaded.
	OnReload func(oldMigrateBatch, newMigrateBatch int)
}

// NewEngineHotConfig creates a hot-reloadable migration-batch knob for an
// already-constructed Engine and starts watching the configuration file
// immediately.
//
// Supported configuration keys:
//   - hashengine.migrate_batch (int): slots migrated per operation while
//     a resize is draining.
//
// Example configuration file (YAML):
//
//	hashengine:
//	  migrate_batch: 4
func NewEngineHotConfig(engine *Engine, opts EngineHotConfigOptions) (*EngineHotConfig, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("config_path is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}

	if opts.PollInterval == 0 {
		opts.PollInterval = 1 * time.Second
	} else if opts.PollInterval < 100*time.Millisecond {
		opts.PollInterval = 100 * time.Millisecond
	}

	hc := &EngineHotConfig{
		engine:       engine,
		OnReload:     opts.OnReload,
		migrateBatch: engine.cfg.MigrateBatch,
	}

	argusConfig := argus.Config{
		PollInterval: opts.PollInterval,
	}

	watcher, err := argus.UniversalConfigWatcherWithConfig(opts.ConfigPath, hc.handleConfigChange, argusConfig)
	if err != nil {
		return nil, err
	}
	hc.watcher = watcher

	return hc, nil
}

// Start begins watching the configuration file for changes.
func (hc *EngineHotConfig) Start() error {
	if hc.watcher.IsRunning() {
		return nil
	}
	return hc.watcher.Start()
}

// Stop stops watching the configuration file.
func (hc *EngineHotConfig) Stop() error {
	return hc.watcher.Stop()
}

// MigrateBatch returns the currently active migration batch size.
func (hc *EngineHotConfig) MigrateBatch() int {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.migrateBatch
}

func (hc *EngineHotConfig) handleConfigChange(configData map[string]interface{}) {
	section, ok := configData["hashengine"].(map[string]interface{})
	if !ok {
		if _, has := configData["migrate_batch"]; has {
			section = configData
		} else {
			return
		}
	}

	for _, locked := range []string{"min_buckets", "max_buckets", "max_load_factor", "min_load_factor"} {
		if _, present := section[locked]; present {
			hc.engine.cfg.Logger.Warn("hashengine: ignoring runtime change to compile-time contract",
				"field", locked)
		}
	}

	newBatch, ok := parsePositiveInt(section["migrate_batch"])
	if !ok {
		return
	}

	hc.mu.Lock()
	oldBatch := hc.migrateBatch
	hc.migrateBatch = newBatch
	hc.mu.Unlock()

	hc.engine.SetMigrateBatch(newBatch)

	if hc.OnReload != nil && oldBatch != newBatch {
		hc.OnReload(oldBatch, newBatch)
	}
}

// parsePositiveInt extracts a positive integer from interface{} value.
// Supports both int and float64 types (YAML/JSON may vary).
func parsePositiveInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		if v > 0 {
			return v, true
		}
	case float64:
		if v > 0 {
			return int(v), true
		}
	}
	return 0, false
}
