// bucket.go: single probe-slot state machine
//
// Copyright (c) 2026 storage-engine contributors
// SPDX-License-Identifier: MPL-2.0
package hashengine

import (
	"sync"
	"sync/atomic"
)

// Bucket states. Stored in an int32 so a concurrent reader can inspect it
// with a relaxed atomic load before taking the slot lock.
const (
	bucketEmpty     int32 = 0
	bucketOccupied  int32 = 1
	bucketTombstone int32 = 2
)

// bucket represents a single probe slot. State is mutated with atomic
// semantics so a reader can skip obviously non-matching slots without
// taking the lock; the authoritative key comparison always happens under
// the lock.
type bucket struct {
	state int32 // atomic: bucketEmpty / bucketOccupied / bucketTombstone

	mu    sync.Mutex
	key   []byte
	value []byte
}

func (b *bucket) isEmpty() bool {
	return atomic.LoadInt32(&b.state) == bucketEmpty
}

func (b *bucket) isTombstone() bool {
	return atomic.LoadInt32(&b.state) == bucketTombstone
}

func (b *bucket) loadState() int32 {
	return atomic.LoadInt32(&b.state)
}

// occupy installs (key, value) into an EMPTY or TOMBSTONE slot. It takes
// an independent copy of both, so the caller's buffers may be reused or
// released immediately after the call returns.
func (b *bucket) occupy(key, value []byte) {
	b.mu.Lock()
	b.key = append([]byte(nil), key...)
	b.value = append([]byte(nil), value...)
	b.mu.Unlock()
	atomic.StoreInt32(&b.state, bucketOccupied)
}

// matches reports whether the slot is OCCUPIED and holds exactly key,
// under the slot lock (the authoritative check).
func (b *bucket) matches(key []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if atomic.LoadInt32(&b.state) != bucketOccupied {
		return false
	}
	return bytesEqual(b.key, key)
}

// readValue returns an owned copy of the slot's value, plus whether the
// slot was still OCCUPIED with a matching key at the time of the read.
func (b *bucket) readValue(key []byte) (value []byte, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if atomic.LoadInt32(&b.state) != bucketOccupied || !bytesEqual(b.key, key) {
		return nil, false
	}
	return append([]byte(nil), b.value...), true
}

// replaceValue overwrites the value of an OCCUPIED slot known (by the
// caller) to already hold key. Returns the length of the value that was
// replaced, for payload-byte accounting.
func (b *bucket) replaceValue(value []byte) (oldLen int) {
	b.mu.Lock()
	oldLen = len(b.value)
	b.value = append([]byte(nil), value...)
	b.mu.Unlock()
	return oldLen
}

// tombstone releases the payload and marks the slot TOMBSTONE. Returns
// the freed key/value lengths for counter accounting.
func (b *bucket) tombstone() (keyLen, valueLen int) {
	b.mu.Lock()
	keyLen, valueLen = len(b.key), len(b.value)
	b.key, b.value = nil, nil
	b.mu.Unlock()
	atomic.StoreInt32(&b.state, bucketTombstone)
	return keyLen, valueLen
}

// destroy releases any payload and resets the slot to EMPTY. Used only
// during final engine teardown and old-array reclamation at the end of a
// migration epoch.
func (b *bucket) destroy() {
	b.mu.Lock()
	b.key, b.value = nil, nil
	b.mu.Unlock()
	atomic.StoreInt32(&b.state, bucketEmpty)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
