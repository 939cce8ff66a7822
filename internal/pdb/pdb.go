// Package pdb implements the task database: identity-stable per-task state
// carried across sampling cycles, keyed by (pid, isproc, start_time) so
// that PID reuse never collides two unrelated tasks.
//
// The residue-list bookkeeping uses a mutex-guarded map plus a small set of
// methods, sized for O(1) lookup rather than for concurrent access from
// multiple goroutines — the sampling loop itself is single-threaded, so
// the mutex here exists only to make races impossible if a future Sink
// reads PDB state from a different goroutine, not because PDB is accessed
// concurrently by design today.
package pdb

import (
	"sync"

	"github.com/cassian-oss/sysgauge/internal/model"
)

// DB holds one baseline TaskSnapshot per live task, plus the residue set
// used to resolve exits and detect disappearances each cycle.
type DB struct {
	mu sync.Mutex

	live    map[model.PDBKey]model.TaskSnapshot
	residue map[model.PDBKey]model.TaskSnapshot
}

// New creates an empty task database.
func New() *DB {
	return &DB{
		live:    make(map[model.PDBKey]model.TaskSnapshot),
		residue: make(map[model.PDBKey]model.TaskSnapshot),
	}
}

// BeginCycle moves every current live entry onto the residue list, marking
// it "unseen this cycle" until Get() re-promotes it.
func (db *DB) BeginCycle() {
	db.mu.Lock()
	defer db.mu.Unlock()

	for k, v := range db.live {
		db.residue[k] = v
	}
	db.live = make(map[model.PDBKey]model.TaskSnapshot, len(db.residue))
}

// Get returns the baseline for (pid, isproc, startTime) iff all three
// match, promoting it back onto the live set. It returns ok=false for a
// task with no prior baseline.
func (db *DB) Get(key model.PDBKey) (model.TaskSnapshot, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if v, ok := db.residue[key]; ok {
		delete(db.residue, key)
		db.live[key] = v
		return v, true
	}
	return model.TaskSnapshot{}, false
}

// Insert records a newly observed task's current snapshot as its baseline.
// A collision on (pid, start_time) against an existing residue entry is not
// silently overwritten: that existing entry belongs to a process that
// disappeared and whose pid was reused before its exit was observed, and
// it is returned so the caller (the deviation engine) can treat it as a
// disappearance rather than lose it.
func (db *DB) Insert(key model.PDBKey, snap model.TaskSnapshot) (collided model.TaskSnapshot, hadCollision bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if v, ok := db.residue[key]; ok {
		delete(db.residue, key)
		db.live[key] = snap
		return v, true
	}
	db.live[key] = snap
	return model.TaskSnapshot{}, false
}

// Update replaces the baseline for an already-live key (used after
// computing a deviation, to roll the baseline forward to "current").
func (db *DB) Update(key model.PDBKey, snap model.TaskSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.live[key] = snap
}

// Residue returns a snapshot of every entry not yet matched this cycle —
// the set of tasks that may have disappeared between samples, available for
// exit-record resolution by ResolveExit or for the sampling loop to treat
// as silently-gone if no exit record ever arrives.
func (db *DB) Residue() map[model.PDBKey]model.TaskSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make(map[model.PDBKey]model.TaskSnapshot, len(db.residue))
	for k, v := range db.residue {
		out[k] = v
	}
	return out
}

// ResolveExit searches the residue list for the entry matching an exit
// record: by pid first if the accounting record carried one, otherwise by
// best-fit over (name, start_time, resource monotonicity) — the kernel's
// accounting stream on older systems omits the pid entirely. A match is
// consumed (removed from residue) so it cannot be double-attributed.
func (db *DB) ResolveExit(exit model.ExitRecord) (model.TaskSnapshot, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if exit.PID != 0 {
		for k, v := range db.residue {
			if k.PID == exit.PID && (exit.StartTime.IsZero() || k.StartTime == exit.StartTime.UnixNano()) {
				delete(db.residue, k)
				return v, true
			}
		}
		// Exact start-time match failed but the pid is still unique among
		// residue entries for this cycle: accept the pid-only match, since
		// the accounting record's own start_time field is sometimes stale
		// relative to procfs's.
		var pidKey model.PDBKey
		matches := 0
		for k := range db.residue {
			if k.PID == exit.PID {
				pidKey = k
				matches++
			}
		}
		if matches == 1 {
			v := db.residue[pidKey]
			delete(db.residue, pidKey)
			return v, true
		}
		return model.TaskSnapshot{}, false
	}

	// No pid in the accounting record: best-fit over name + start_time +
	// resource monotonicity (the exited task's counters must be >= the
	// baseline's, since accounting totals are cumulative).
	var bestKey model.PDBKey
	var best model.TaskSnapshot
	found := false
	for k, v := range db.residue {
		if v.Identity.Name != exit.Name {
			continue
		}
		if !exit.StartTime.IsZero() && k.StartTime != exit.StartTime.UnixNano() {
			continue
		}
		if exit.UTime < v.CPU.UTime || exit.STime < v.CPU.STime {
			continue // not monotonic against this candidate, skip it
		}
		if !found || v.Identity.StartTime.After(best.Identity.StartTime) {
			bestKey, best, found = k, v, true
		}
	}
	if found {
		delete(db.residue, bestKey)
		return best, true
	}
	return model.TaskSnapshot{}, false
}

// EndCycle discards whatever remains in the residue list: every task that
// was neither re-matched via Get/Insert nor resolved via ResolveExit this
// cycle is gone without a trace (e.g. accounting disabled) and its baseline
// is dropped.
func (db *DB) EndCycle() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.residue = make(map[model.PDBKey]model.TaskSnapshot)
}

// Len reports the number of live baselines, for tests and diagnostics.
func (db *DB) Len() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.live)
}
