// Package deviate computes per-cycle differences between consecutive
// snapshots at system, cgroup and task scope. It is the only package
// allowed to subtract two counter samples; every other package either
// produces or consumes already-deviated values.
package deviate

import "golang.org/x/exp/constraints"

// wrap32 is 2^32, the fallback used when a 32-bit kernel counter has
// wrapped inside a 64-bit storage field.
const wrap32 = uint64(1) << 32

// Subcount implements the core wraparound-subtraction rule: dev = cur - prev
// when cur >= prev, otherwise dev = 2^32 + cur - prev. It is generic so the same
// wraparound rule applies uniformly to every counter type in the snapshot
// without duplicating the branch per field.
func Subcount[T constraints.Unsigned](cur, prev T) T {
	if cur >= prev {
		return cur - prev
	}
	return T(wrap32 + uint64(cur) - uint64(prev))
}

// SubcountSigned subtracts two values that may be reported as int64 in the
// snapshot (e.g. cgroup pressure totals read as signed on some kernels) but
// still obey the monotonic-counter wraparound rule when they go negative.
func SubcountSigned(cur, prev int64) int64 {
	if cur >= prev {
		return cur - prev
	}
	return int64(wrap32) + cur - prev
}
