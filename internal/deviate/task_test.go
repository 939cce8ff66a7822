package deviate

import (
	"testing"

	"github.com/cassian-oss/sysgauge/internal/model"
)

func TestTask_NewTaskReportsRawCounters(t *testing.T) {
	cur := model.TaskSnapshot{
		Identity: model.TaskIdentity{PID: 1, Name: "init"},
		CPU:      model.TaskCPU{UTime: 30, STime: 10},
	}
	dev := Task(cur, model.TaskSnapshot{}, false)

	if !dev.New {
		t.Error("New flag should be set when no baseline existed")
	}
	if dev.CPU.UTime != 30 || dev.CPU.STime != 10 {
		t.Errorf("new task CPU = %+v, want raw cur values", dev.CPU)
	}
}

func TestTask_Deviation(t *testing.T) {
	baseline := model.TaskSnapshot{
		Identity: model.TaskIdentity{PID: 5, Name: "worker"},
		CPU:      model.TaskCPU{UTime: 100, STime: 20},
	}
	cur := model.TaskSnapshot{
		Identity: model.TaskIdentity{PID: 5, Name: "worker"},
		CPU:      model.TaskCPU{UTime: 130, STime: 25},
	}

	dev := Task(cur, baseline, true)
	if dev.New {
		t.Error("New flag should be false when a baseline existed")
	}
	if dev.CPU.UTime != 30 {
		t.Errorf("CPU.UTime deviation = %d, want 30", dev.CPU.UTime)
	}
	if dev.CPU.STime != 5 {
		t.Errorf("CPU.STime deviation = %d, want 5", dev.CPU.STime)
	}
}

func TestTask_ClampsZeroTicksToOne(t *testing.T) {
	baseline := model.TaskSnapshot{CPU: model.TaskCPU{UTime: 100}}
	cur := model.TaskSnapshot{CPU: model.TaskCPU{UTime: 100}}

	dev := Task(cur, baseline, true)
	if dev.CPU.UTime != 1 {
		t.Errorf("zero-delta CPU.UTime = %d, want clamped to 1", dev.CPU.UTime)
	}
}

func TestTask_InactiveDetection(t *testing.T) {
	snap := model.TaskSnapshot{
		Identity: model.TaskIdentity{PID: 9},
		CPU:      model.TaskCPU{UTime: 100, STime: 20},
		State:    model.StateSleepIntr,
	}

	dev := Task(snap, snap, true)
	if !dev.Inactive {
		t.Error("identical cur/baseline snapshot should be marked Inactive")
	}
}

func TestTask_NotInactiveWhenStateChanges(t *testing.T) {
	baseline := model.TaskSnapshot{CPU: model.TaskCPU{UTime: 100}, State: model.StateSleepIntr}
	cur := model.TaskSnapshot{CPU: model.TaskCPU{UTime: 100}, State: model.StateRunning}

	dev := Task(cur, baseline, true)
	if dev.Inactive {
		t.Error("a state change alone should disqualify Inactive")
	}
}

func TestExited(t *testing.T) {
	baseline := model.TaskSnapshot{
		Identity: model.TaskIdentity{PID: 77, Name: "job"},
		CPU:      model.TaskCPU{UTime: 40, STime: 10},
	}
	exit := model.ExitRecord{PID: 77, Name: "job", UTime: 55, STime: 12, ExitCode: 0}

	dev := Exited(exit, baseline)
	if !dev.Exited {
		t.Error("Exited flag should be set")
	}
	if dev.State != model.StateExited {
		t.Errorf("State = %c, want StateExited", dev.State)
	}
	if dev.CPU.UTime != 15 {
		t.Errorf("exit CPU.UTime = %d, want 15", dev.CPU.UTime)
	}
}
