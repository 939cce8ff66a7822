// Package model defines the data types sampled, deviated and persisted by
// sysgauge: system and task snapshots, the cgroup chain, and the deviation
// bundle produced once per cycle. Schema version: 1.0.0
package model

// Count is a 64-bit non-negative monotonic kernel counter (count_t in the
// original C implementation). The source may still wrap at 32 bits even
// though it is stored here as 64 bits; see internal/deviate for the
// wraparound-subtraction rule applied uniformly to every Count field.
type Count = uint64

// Sentinel values used by cgroup configuration fields: -1 means "max" (no
// limit configured), -2 means "undefined" (controller not present).
const (
	CgroupMax       = -1
	CgroupUndefined = -2
)

// TaskState is the one-character lifecycle code used throughout tstat.
// The alphabet mirrors /proc/[pid]/stat's state field plus a synthetic 'E'
// (exited) that only ever appears on records produced by the accounting
// reader / deviation engine, never on a freshly sampled task.
type TaskState byte

const (
	StateRunning    TaskState = 'R'
	StateSleepIntr  TaskState = 'S'
	StateSleepUninf TaskState = 'D'
	StateZombie     TaskState = 'Z'
	StateTraced     TaskState = 'T'
	StatePaging     TaskState = 'W'
	StateExited     TaskState = 'E'
)
