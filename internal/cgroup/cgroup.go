// Package cgroup models the cgroup v2 resource hierarchy as a flat,
// indexable chain of cstat entries. Each entry carries a Name field, and
// cross-references its parent and its PID list by index into a single
// in-memory arena rather than by pointer, so the whole chain can be
// persisted and reloaded without pointer-fixup.
package cgroup

import (
	"hash/fnv"

	"github.com/cassian-oss/sysgauge/internal/model"
)

// Config holds a cgroup's resource limits. Sentinels: -1 means "max" (no
// limit), -2 means "undefined" (controller absent).
type Config struct {
	CPUWeight int
	CPUMax    int // cpu.max quota in microseconds, -1/-2 sentinel
	MemMax    int64
	SwapMax   int64
}

// Metrics holds the raw values read from a cgroup's controller files. The
// CPU usage fields and pressure totals are cumulative microsecond counters
// and are deviated; the memory fields are gauges copied as read.
type Metrics struct {
	CPUUserUsec, CPUSysUsec                            model.Count
	MemAnonPages, MemFilePages, MemKernelPages         model.Count
	CPUPressureUsec, MemPressureUsec, DiskPressureUsec model.Count
}

// Entry is one node in the cgroup tree (cstat + cgchainer combined: in Go
// there is no separate pointer-chasing wrapper needed since the arena is a
// slice and children/parents are referenced by Seq).
type Entry struct {
	Path      string // full cgroup path, used to compute the stable hash
	Name      string // trailing path component
	Depth     int
	Seq       int // sequence number in this cycle's Chain (NOT stable across cycles)
	ParentSeq int

	NameHash int64 // stable identity: hash of the full path, independent of Seq

	NProcs     int
	ProcsBelow int

	Config  Config
	Metrics Metrics

	PIDs []int
}

// Chain is the full set of cgroup entries captured in one cycle, plus a
// hash-bucket index for O(1) lookup by NameHash.
type Chain struct {
	Entries []Entry
	byHash  map[int64]int // NameHash -> index into Entries
}

// NewChain builds a Chain and its hash index from a freshly walked set of
// entries. Callers (internal/procfs) are responsible for populating NameHash
// via PathHash before calling NewChain.
func NewChain(entries []Entry) *Chain {
	c := &Chain{Entries: entries, byHash: make(map[int64]int, len(entries))}
	for i, e := range entries {
		c.byHash[e.NameHash] = i
	}
	return c
}

// Lookup finds an entry by its stable path hash, independent of sequence
// number (which may differ across samples because the tree is rewalked).
func (c *Chain) Lookup(hash int64) (*Entry, bool) {
	if c == nil {
		return nil, false
	}
	idx, ok := c.byHash[hash]
	if !ok {
		return nil, false
	}
	return &c.Entries[idx], true
}

// PathHash computes the stable identity hash of a cgroup's full path,
// excluding slashes, as described in cgroups.h's cggen.namehash field.
func PathHash(path string) int64 {
	h := fnv.New64a()
	for _, r := range path {
		if r == '/' {
			continue
		}
		h.Write([]byte(string(r)))
	}
	return int64(h.Sum64())
}
