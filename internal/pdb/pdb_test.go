package pdb

import (
	"testing"
	"time"

	"github.com/cassian-oss/sysgauge/internal/model"
)

func key(pid int, start time.Time) model.PDBKey {
	return model.PDBKey{PID: pid, IsProc: true, StartTime: start.UnixNano()}
}

func TestDB_InsertThenGet(t *testing.T) {
	db := New()
	t1 := time.Unix(1000, 0)

	db.BeginCycle()
	snap := model.TaskSnapshot{Identity: model.TaskIdentity{PID: 42, StartTime: t1, IsProc: true}}
	if _, collided := db.Insert(key(42, t1), snap); collided {
		t.Fatal("unexpected collision on first insert")
	}
	db.EndCycle()

	if db.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", db.Len())
	}

	db.BeginCycle()
	got, ok := db.Get(key(42, t1))
	if !ok {
		t.Fatal("Get() after BeginCycle should find the residue entry")
	}
	if got.Identity.PID != 42 {
		t.Errorf("got PID %d, want 42", got.Identity.PID)
	}
	db.EndCycle()
}

func TestDB_ResolveExitByPID(t *testing.T) {
	db := New()
	t1 := time.Unix(2000, 0)

	db.BeginCycle()
	db.Insert(key(7, t1), model.TaskSnapshot{
		Identity: model.TaskIdentity{PID: 7, StartTime: t1, IsProc: true},
		CPU:      model.TaskCPU{UTime: 100},
	})
	db.EndCycle()

	// Cycle B: task 7 is absent, so it lands back on the residue list.
	db.BeginCycle()
	exit := model.ExitRecord{PID: 7, UTime: 150, ExitCode: 9 + 256}
	got, ok := db.ResolveExit(exit)
	if !ok {
		t.Fatal("ResolveExit should find pid 7 in the residue list")
	}
	if got.CPU.UTime != 100 {
		t.Errorf("resolved baseline UTime = %d, want 100", got.CPU.UTime)
	}
	db.EndCycle()

	if db.Len() != 0 {
		t.Errorf("pdb should no longer contain pid 7, Len() = %d", db.Len())
	}
}

func TestDB_PIDReuseIsNotOverwritten(t *testing.T) {
	db := New()
	t1 := time.Unix(1, 0)
	t2 := time.Unix(2, 0)

	db.BeginCycle()
	db.Insert(key(11, t1), model.TaskSnapshot{Identity: model.TaskIdentity{PID: 11, StartTime: t1, Name: "a", IsProc: true}})
	db.EndCycle()

	// Cycle B: pid 11 reappears with a different start time (new exec).
	db.BeginCycle()
	collided, hadCollision := db.Insert(key(11, t2), model.TaskSnapshot{Identity: model.TaskIdentity{PID: 11, StartTime: t2, Name: "b", IsProc: true}})
	if hadCollision {
		t.Fatalf("insert with a different start_time should not collide, got residual %+v", collided)
	}

	// The stale (pid=11, t1) entry must still be resolvable as a disappearance.
	residue := db.Residue()
	if _, ok := residue[key(11, t1)]; !ok {
		t.Fatal("old (pid=11, t1) entry should remain in residue for later exit resolution")
	}
	db.EndCycle()
}

func TestDB_ResolveExitNoPIDBestFit(t *testing.T) {
	db := New()
	t1 := time.Unix(500, 0)

	db.BeginCycle()
	db.Insert(key(99, t1), model.TaskSnapshot{
		Identity: model.TaskIdentity{PID: 99, StartTime: t1, Name: "worker", IsProc: true},
		CPU:      model.TaskCPU{UTime: 30, STime: 5},
	})
	db.EndCycle()

	db.BeginCycle()
	exit := model.ExitRecord{Name: "worker", StartTime: t1, UTime: 40, STime: 5}
	got, ok := db.ResolveExit(exit)
	if !ok {
		t.Fatal("best-fit resolution by name+start_time should succeed")
	}
	if got.Identity.PID != 99 {
		t.Errorf("resolved PID = %d, want 99", got.Identity.PID)
	}
	db.EndCycle()
}
