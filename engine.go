// engine.go: the concurrent open-addressed hash table
//
// Copyright (c) 2026 storage-engine contributors
// SPDX-License-Identifier: MPL-2.0
package hashengine

import (
	"sync"
	"sync/atomic"
)

// table is one generation of the bucket array: a fixed-size slice plus the
// bit-mask used for index wrapping (bucketCount is always a power of two).
type table struct {
	buckets []*bucket
	mask    uint32
}

func (t *table) bucketCount() uint32 {
	return uint32(len(t.buckets))
}

// allocTable is the single seam where bucket-array allocation happens. It
// is a package-level variable rather than a plain function so tests can
// simulate resource exhaustion (spec's `resource-exhausted` path) by
// temporarily swapping it for one that returns nil; production code never
// does so, and make() never actually fails short of true process OOM, which
// Go reports as a fatal panic rather than an error.
var allocTable = func(bucketCount uint32) *table {
	buckets := make([]*bucket, bucketCount)
	for i := range buckets {
		buckets[i] = &bucket{}
	}
	return &table{buckets: buckets, mask: bucketCount - 1}
}

// Engine is a concurrent, in-memory, open-addressed key-value hash table.
// Any number of goroutines may call Put, Get, and Delete on the same Engine
// concurrently. The zero value is not usable; construct with NewEngine.
type Engine struct {
	cfg EngineConfig

	// current and old are atomically swapped at migration epoch
	// boundaries. old is nil except while a migration is draining.
	current atomic.Pointer[table]
	old     atomic.Pointer[table]

	migrateCursor atomic.Uint32
	activeWorkers atomic.Int32
	migrateBatch  atomic.Int32 // hot-reloadable mirror of cfg.MigrateBatch

	itemCount         atomic.Uint32
	totalPayloadBytes atomic.Uint64

	// mu guards only the array-swap steps of a migration epoch (start
	// and finish). It is never held during a slot operation.
	mu sync.Mutex
}

// NewEngine constructs an Engine with the given configuration. cfg is
// normalized in place via EngineConfig.Validate before use; pass
// DefaultEngineConfig() to get the package defaults. Validate does not
// default InitialBuckets, so a zero-value EngineConfig is rejected with
// ErrCodeInvalidBucketCount.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	cfg.Validate()

	if cfg.InitialBuckets <= 0 {
		return nil, NewErrInvalidBucketCount(cfg.InitialBuckets)
	}

	initSiphashKey(cfg.Logger)

	bucketCount := nextPowerOfTwo(uint32(cfg.InitialBuckets))
	if bucketCount < cfg.MinBuckets {
		bucketCount = cfg.MinBuckets
	}
	if bucketCount > cfg.MaxBuckets {
		bucketCount = cfg.MaxBuckets
	}

	t := allocTable(bucketCount)
	if t == nil {
		return nil, NewErrResourceExhausted("init", nil)
	}

	e := &Engine{cfg: cfg}
	e.current.Store(t)
	e.migrateBatch.Store(int32(cfg.MigrateBatch))
	return e, nil
}

// SetMigrateBatch updates the number of old-array slots migrated per
// public operation while a resize is draining. Safe to call concurrently
// with Put/Get/Delete; it never affects correctness, only how quickly a
// migration epoch drains. n must be positive or the call is ignored.
func (e *Engine) SetMigrateBatch(n int) {
	if n <= 0 {
		return
	}
	e.migrateBatch.Store(int32(n))
}

func nextPowerOfTwo(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Put inserts or updates key to hold value. The engine takes an independent
// copy of both; the caller's buffers may be reused or released immediately
// after Put returns.
func (e *Engine) Put(key, value []byte) error {
	if len(key) == 0 {
		return NewErrEmptyKey("put")
	}
	if len(value) == 0 {
		return NewErrEmptyValue()
	}

	start := e.cfg.TimeProvider.Now()
	e.migrateSome()

	if old := e.old.Load(); old != nil {
		// Collapse any authoritative copy in the draining table into
		// the current one before inserting, so the two copies never
		// coexist past this point (see search-during-migration rule).
		// The collapse is a move, not a logical delete: if it actually
		// removed a copy, back out that copy's accounting first so the
		// re-insert below (which always counts as a fresh insert into
		// cur) nets to zero on item_count and to the value-length delta
		// on total_payload_bytes, exactly like an in-place update.
		cur := e.current.Load()
		if removed, keyLen, valueLen := removeFromTable(old, key); removed {
			e.itemCount.Add(^uint32(0)) // -1
			e.subtractPayload(uint64(keyLen + valueLen))
		}
		if err := e.putInto(cur, key, value); err != nil {
			return err
		}
	} else {
		cur := e.current.Load()
		if err := e.putInto(cur, key, value); err != nil {
			return err
		}
	}

	e.maybeStartResize(true)
	e.cfg.MetricsCollector.RecordSet(e.cfg.TimeProvider.Now() - start)
	return nil
}

// putInto performs the insert-or-update algorithm against t, retrying once
// after a forced grow if the probe chain is exhausted without finding a
// slot. It updates item_count/total_payload_bytes itself.
func (e *Engine) putInto(t *table, key, value []byte) error {
	for attempt := 0; ; attempt++ {
		isNew, oldValueLen, ok := insertIntoTable(t, key, value)
		if ok {
			if isNew {
				e.itemCount.Add(1)
				e.totalPayloadBytes.Add(uint64(len(key) + len(value)))
			} else {
				e.totalPayloadBytes.Add(uint64(len(value)))
				if oldValueLen > 0 {
					e.subtractPayload(uint64(oldValueLen))
				}
			}
			return nil
		}

		// Probe chain exhausted: the table is pathologically full.
		// Force a synchronous grow (bypassing the load-factor
		// threshold, since we have no other recourse) and retry.
		if attempt > 0 {
			return NewErrNoSpace(t.bucketCount())
		}
		grown, err := e.forceGrow(t)
		if err != nil {
			return err
		}
		if grown == nil {
			return NewErrNoSpace(t.bucketCount())
		}
		t = grown
	}
}

// Get returns an owned copy of the value stored under key.
func (e *Engine) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, NewErrEmptyKey("get")
	}

	start := e.cfg.TimeProvider.Now()
	e.migrateSome()

	cur := e.current.Load()
	if value, ok := lookupInTable(cur, key); ok {
		e.cfg.MetricsCollector.RecordGet(e.cfg.TimeProvider.Now()-start, true)
		return value, nil
	}

	if old := e.old.Load(); old != nil {
		if value, ok := lookupInTable(old, key); ok {
			e.cfg.MetricsCollector.RecordGet(e.cfg.TimeProvider.Now()-start, true)
			return value, nil
		}
	}

	e.cfg.MetricsCollector.RecordGet(e.cfg.TimeProvider.Now()-start, false)
	return nil, NewErrKeyNotFound(key)
}

// Delete removes key, if present in either the current or draining table.
func (e *Engine) Delete(key []byte) error {
	if len(key) == 0 {
		return NewErrEmptyKey("delete")
	}

	start := e.cfg.TimeProvider.Now()
	e.migrateSome()

	cur := e.current.Load()
	keyLen, valueLen, ok := deleteFromTable(cur, key)
	if !ok {
		if old := e.old.Load(); old != nil {
			keyLen, valueLen, ok = deleteFromTable(old, key)
		}
	}
	if !ok {
		return NewErrKeyNotFound(key)
	}

	e.itemCount.Add(^uint32(0)) // -1
	e.subtractPayload(uint64(keyLen + valueLen))

	e.maybeStartResize(false)
	e.cfg.MetricsCollector.RecordDelete(e.cfg.TimeProvider.Now() - start)
	return nil
}

func (e *Engine) subtractPayload(n uint64) {
	for {
		cur := e.totalPayloadBytes.Load()
		next := cur - n
		if cur < n {
			next = 0
		}
		if e.totalPayloadBytes.CompareAndSwap(cur, next) {
			return
		}
	}
}

// Stats returns an approximate, lock-free snapshot of the engine's
// counters. It may reflect either side of a concurrent mutation.
func (e *Engine) Stats() (itemCount, bucketCount uint32, totalPayloadBytes uint64) {
	cur := e.current.Load()
	return e.itemCount.Load(), cur.bucketCount(), e.totalPayloadBytes.Load()
}

// Destroy releases all payloads and both bucket arrays. The caller must
// guarantee no concurrent operations are in flight.
func (e *Engine) Destroy() {
	if cur := e.current.Load(); cur != nil {
		for _, b := range cur.buckets {
			b.destroy()
		}
	}
	if old := e.old.Load(); old != nil {
		for _, b := range old.buckets {
			b.destroy()
		}
	}
	e.current.Store(nil)
	e.old.Store(nil)
	e.itemCount.Store(0)
	e.totalPayloadBytes.Store(0)
}

// -----------------------------------------------------------------------
// Single-table algorithms (operate on a *table without touching the
// engine's migration state or counters, except where noted).
// -----------------------------------------------------------------------

func probeStart(t *table, key []byte) uint32 {
	return uint32(hashKey(key)) & t.mask
}

func lookupInTable(t *table, key []byte) (value []byte, ok bool) {
	n := t.bucketCount()
	idx := probeStart(t, key)
	for i := uint32(0); i < n; i++ {
		b := t.buckets[(idx+i)&t.mask]
		switch b.loadState() {
		case bucketEmpty:
			return nil, false
		case bucketTombstone:
			continue
		default:
			if v, ok := b.readValue(key); ok {
				return v, true
			}
		}
	}
	return nil, false
}

// insertIntoTable performs the spec's insert-or-update algorithm. ok is
// false only when the probe chain is exhausted without finding either a
// matching key or an available slot (EMPTY/TOMBSTONE) — the caller must
// grow and retry. isNew distinguishes a fresh insert from an update, and
// oldValueLen is the replaced value's length (for counter accounting) when
// isNew is false.
func insertIntoTable(t *table, key, value []byte) (isNew bool, oldValueLen int, ok bool) {
	n := t.bucketCount()
	idx := probeStart(t, key)
	tombstoneCandidate := int64(-1)

	for i := uint32(0); i < n; i++ {
		slot := (idx + i) & t.mask
		b := t.buckets[slot]

		switch b.loadState() {
		case bucketEmpty:
			target := slot
			if tombstoneCandidate >= 0 {
				target = uint32(tombstoneCandidate)
			}
			t.buckets[target].occupy(key, value)
			return true, 0, true

		case bucketTombstone:
			if tombstoneCandidate < 0 {
				tombstoneCandidate = int64(slot)
			}
			continue

		default: // occupied
			if b.matches(key) {
				oldValueLen = b.replaceValue(value)
				return false, oldValueLen, true
			}
		}
	}

	if tombstoneCandidate >= 0 {
		t.buckets[tombstoneCandidate].occupy(key, value)
		return true, 0, true
	}

	return false, 0, false
}

func deleteFromTable(t *table, key []byte) (keyLen, valueLen int, ok bool) {
	n := t.bucketCount()
	idx := probeStart(t, key)
	for i := uint32(0); i < n; i++ {
		b := t.buckets[(idx+i)&t.mask]
		switch b.loadState() {
		case bucketEmpty:
			return 0, 0, false
		case bucketTombstone:
			continue
		default:
			if b.matches(key) {
				keyLen, valueLen = b.tombstone()
				return keyLen, valueLen, true
			}
		}
	}
	return 0, 0, false
}

// removeFromTable tombstones key in t if present, reporting whether it was
// found and the lengths freed. Used only to collapse a draining-table copy
// during Put; the caller is responsible for backing out this removal's
// effect on item_count/total_payload_bytes before re-inserting, since the
// entry is being moved, not deleted.
func removeFromTable(t *table, key []byte) (removed bool, keyLen, valueLen int) {
	keyLen, valueLen, removed = deleteFromTable(t, key)
	return removed, keyLen, valueLen
}

// -----------------------------------------------------------------------
// Load-factor policy and migration.
// -----------------------------------------------------------------------

func (e *Engine) maybeStartResize(forGrow bool) {
	if e.old.Load() != nil {
		return // a migration is already draining; one at a time
	}

	cur := e.current.Load()
	count := e.itemCount.Load()
	buckets := cur.bucketCount()

	if forGrow {
		if float64(count) >= float64(buckets)*e.cfg.MaxLoadFactor && buckets < e.cfg.MaxBuckets {
			target := buckets * 2
			if target > e.cfg.MaxBuckets {
				target = e.cfg.MaxBuckets
			}
			e.startResize(target)
		}
		return
	}

	if buckets > e.cfg.MinBuckets && float64(count) < float64(buckets)*e.cfg.MinLoadFactor {
		target := buckets / 2
		if target < e.cfg.MinBuckets {
			target = e.cfg.MinBuckets
		}
		e.startResize(target)
	}
}

// startResize allocates a replacement array of targetBuckets and installs
// it as current, moving the previously-current array to draining. A
// failed allocation is non-fatal: the resize is skipped and puts continue
// at current capacity, per the spec's resize failure semantics.
func (e *Engine) startResize(targetBuckets uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.old.Load() != nil {
		return
	}
	curBefore := e.current.Load()
	if targetBuckets == curBefore.bucketCount() {
		return
	}

	next := allocTable(targetBuckets)
	if next == nil {
		e.cfg.Logger.Warn("hashengine: resize allocation failed, skipping", "target_buckets", targetBuckets)
		return
	}

	e.old.Store(curBefore)
	e.migrateCursor.Store(0)
	e.current.Store(next)
	e.cfg.MetricsCollector.RecordResize(targetBuckets)
}

// forceGrow is the emergency path used by putInto when a probe chain is
// exhausted on the table it was given (which is always the current table,
// since Put only ever inserts into current). It doubles the bucket count
// regardless of load factor, since there is no other way to make room.
func (e *Engine) forceGrow(t *table) (*table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.current.Load()
	if cur != t {
		// Someone already resized out from under us; use the
		// current table for the retry.
		return cur, nil
	}

	if e.old.Load() != nil {
		// A migration is already draining a previous generation; the
		// two-generation design has no room for a third. This can
		// only happen if puts saturate the current table faster than
		// migration can drain the old one, which the 0.75 grow
		// threshold makes practically unreachable.
		return nil, nil
	}

	target := cur.bucketCount() * 2
	if target > e.cfg.MaxBuckets {
		if cur.bucketCount() >= e.cfg.MaxBuckets {
			return nil, nil
		}
		target = e.cfg.MaxBuckets
	}

	next := allocTable(target)
	if next == nil {
		return nil, NewErrResourceExhausted("grow", nil)
	}

	e.old.Store(cur)
	e.migrateCursor.Store(0)
	e.current.Store(next)
	e.cfg.MetricsCollector.RecordResize(target)
	return next, nil
}

// migrateSome executes the spec's incremental migration work step: a
// small fixed batch of old-array slots claimed via the migration cursor.
// It is a no-op when no migration is in progress.
func (e *Engine) migrateSome() {
	old := e.old.Load()
	if old == nil {
		return
	}

	e.activeWorkers.Add(1)
	defer e.activeWorkers.Add(-1)

	batch := int(e.migrateBatch.Load())
	oldCount := old.bucketCount()

	for i := 0; i < batch; i++ {
		idx := e.migrateCursor.Add(1) - 1
		if idx >= oldCount {
			e.finishResize()
			return
		}
		e.migrateOneSlot(old, idx)
		e.cfg.MetricsCollector.RecordMigrationStep()
	}
}

// migrateOneSlot moves one old-array slot into the current array, if it
// is still occupied. This is a move, not a logical insert: it never
// touches item_count or total_payload_bytes. If the insert into the
// current array fails (probe chain exhausted), the old slot is left
// OCCUPIED so the entry is not lost; migration retries it on a later pass.
func (e *Engine) migrateOneSlot(old *table, idx uint32) {
	b := old.buckets[idx]
	if b.loadState() != bucketOccupied {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.key == nil {
		return
	}

	cur := e.current.Load()
	if _, _, ok := insertIntoTable(cur, b.key, b.value); !ok {
		return
	}

	b.key, b.value = nil, nil
	atomic.StoreInt32(&b.state, bucketTombstone)
}

// finishResize reclaims the draining array once the migration cursor has
// drained it and no worker is still mid-step. Uses a non-blocking trylock
// so a busy engine mutex simply defers finalization to a later operation.
func (e *Engine) finishResize() {
	if !e.mu.TryLock() {
		return
	}
	defer e.mu.Unlock()

	old := e.old.Load()
	if old == nil {
		return
	}
	if e.activeWorkers.Load() > 1 {
		// Other workers (beyond this one, which holds the lock
		// exclusively of the mutex but still counts itself) are
		// still mid-step; defer.
		return
	}

	for _, b := range old.buckets {
		b.destroy()
	}
	e.old.Store(nil)
	e.migrateCursor.Store(0)
}
