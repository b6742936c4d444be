// siphash.go: SipHash-2-4 keyed hash primitive and process-wide key init
//
// Copyright (c) 2026 storage-engine contributors
// SPDX-License-Identifier: MPL-2.0
package hashengine

import (
	"crypto/rand"
	"encoding/binary"
	"os"
	"sync"
	"sync/atomic"

	"github.com/agilira/go-timecache"
)

// siphashK0/siphashK1 hold the process-wide SipHash key pair. It is set
// exactly once, on first engine construction, and is read-only
// thereafter: the write is ordered-before every later read by
// siphashInitOnce.
var (
	siphashInitOnce sync.Once
	siphashK0       uint64
	siphashK1       uint64
	siphashWeakKey  int32 // 1 if the key came from the weak fallback path
)

// initSiphashKey seeds the process-wide SipHash key pair from the OS
// entropy source. If that source is unavailable it falls back to a
// deterministic seed derived from the cached wall clock and the process
// id, and records that the key is weak so callers can warn about it.
func initSiphashKey(logger Logger) {
	siphashInitOnce.Do(func() {
		var buf [16]byte
		if _, err := rand.Read(buf[:]); err == nil {
			siphashK0 = binary.LittleEndian.Uint64(buf[0:8])
			siphashK1 = binary.LittleEndian.Uint64(buf[8:16])
			return
		}

		// Weak fallback: wall-clock time (via the cached time source
		// already used elsewhere in this package) mixed with the pid.
		now := uint64(timecache.CachedTimeNano()) // #nosec G115 - monotonic-ish seed, not security sensitive here
		pid := uint64(os.Getpid())                // #nosec G115 - pid is always positive
		siphashK0 = now ^ (pid * 0x9e3779b97f4a7c15)
		siphashK1 = (now << 17) ^ pid ^ 0xbf58476d1ce4e5b9
		atomic.StoreInt32(&siphashWeakKey, 1)

		if logger != nil {
			logger.Warn("siphash: OS entropy source unavailable, using weak fallback key",
				"source", "time+pid")
		}
	})
}

// siphashKeyIsWeak reports whether the process-wide key came from the
// weak fallback path rather than the OS entropy source.
func siphashKeyIsWeak() bool {
	return atomic.LoadInt32(&siphashWeakKey) == 1
}

const (
	sipInit0 = 0x736f6d6570736575
	sipInit1 = 0x646f72616e646f6d
	sipInit2 = 0x6c7967656e657261
	sipInit3 = 0x7465646279746573
)

func rotl64(x uint64, b uint) uint64 {
	return (x << b) | (x >> (64 - b))
}

// sipRound performs one SipHash compression round in place.
func sipRound(v0, v1, v2, v3 *uint64) {
	*v0 += *v1
	*v1 = rotl64(*v1, 13)
	*v1 ^= *v0
	*v0 = rotl64(*v0, 32)
	*v2 += *v3
	*v3 = rotl64(*v3, 16)
	*v3 ^= *v2
	*v0 += *v3
	*v3 = rotl64(*v3, 21)
	*v3 ^= *v0
	*v2 += *v1
	*v1 = rotl64(*v1, 17)
	*v1 ^= *v2
	*v2 = rotl64(*v2, 32)
}

// siphash24 computes SipHash-2-4 (2 compression rounds, 4 finalization
// rounds) of data under the 128-bit key (k0, k1), per the reference
// specification. It accepts inputs of any length, including zero.
func siphash24(data []byte, k0, k1 uint64) uint64 {
	v0 := sipInit0 ^ k0
	v1 := sipInit1 ^ k1
	v2 := sipInit2 ^ k0
	v3 := sipInit3 ^ k1

	n := len(data)
	end := n - (n % 8)

	for i := 0; i < end; i += 8 {
		m := binary.LittleEndian.Uint64(data[i : i+8])
		v3 ^= m
		sipRound(&v0, &v1, &v2, &v3)
		sipRound(&v0, &v1, &v2, &v3)
		v0 ^= m
	}

	var last uint64 = uint64(n) << 56
	tail := data[end:]
	for i := len(tail) - 1; i >= 0; i-- {
		last |= uint64(tail[i]) << (8 * uint(i))
	}

	v3 ^= last
	sipRound(&v0, &v1, &v2, &v3)
	sipRound(&v0, &v1, &v2, &v3)
	v0 ^= last

	v2 ^= 0xff
	sipRound(&v0, &v1, &v2, &v3)
	sipRound(&v0, &v1, &v2, &v3)
	sipRound(&v0, &v1, &v2, &v3)
	sipRound(&v0, &v1, &v2, &v3)

	return v0 ^ v1 ^ v2 ^ v3
}

// hashKey hashes key under the process-wide SipHash key pair.
func hashKey(key []byte) uint64 {
	return siphash24(key, siphashK0, siphashK1)
}
