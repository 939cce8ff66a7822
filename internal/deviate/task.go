package deviate

import (
	"reflect"

	"github.com/cassian-oss/sysgauge/internal/model"
)

// Task computes one task's per-cycle deviation against its PDB baseline.
// hadBaseline is false for a task the PDB had never seen before (it becomes
// the "N" new-task flag and every counter is reported as-is rather than
// subtracted, since there is nothing to subtract from).
func Task(cur model.TaskSnapshot, baseline model.TaskSnapshot, hadBaseline bool) model.TaskDeviation {
	dev := model.TaskDeviation{
		Identity: cur.Identity,
		State:    cur.State,
		New:      !hadBaseline,
	}

	if !hadBaseline {
		dev.CPU = cur.CPU
		dev.Mem = cur.Mem
		dev.Disk = cur.Disk
		dev.Net = cur.Net
		dev.GPU = cur.GPU
		return dev
	}

	dev.CPU = taskCPUDev(cur.CPU, baseline.CPU)
	dev.Mem = taskMemDev(cur.Mem, baseline.Mem)
	dev.Disk = taskDiskDev(cur.Disk, baseline.Disk)
	dev.Net = taskNetDev(cur.Net, baseline.Net)
	dev.GPU = cur.GPU // busy percentages are instantaneous, not cumulative

	dev.Inactive = reflect.DeepEqual(cur.CPU, baseline.CPU) &&
		reflect.DeepEqual(cur.Mem, baseline.Mem) &&
		reflect.DeepEqual(cur.Disk, baseline.Disk) &&
		reflect.DeepEqual(cur.Net, baseline.Net) &&
		cur.State == baseline.State

	return dev
}

// taskCPUDev subtracts tick counters. Subcount applies the wraparound rule
// to a counter that reads behind its baseline; clampPositive then raises a
// zero tick delta to 1. The deltas are not compared with the cycle's
// system-wide CPU deviation.
func taskCPUDev(cur, prev model.TaskCPU) model.TaskCPU {
	return model.TaskCPU{
		UTime:           clampPositive(Subcount(cur.UTime, prev.UTime)),
		STime:           clampPositive(Subcount(cur.STime, prev.STime)),
		SchedClass:      cur.SchedClass,
		Nice:            cur.Nice,
		Priority:        cur.Priority,
		CurCPU:          cur.CurCPU,
		NVCSwitch:       Subcount(cur.NVCSwitch, prev.NVCSwitch),
		NIVCSwitch:      Subcount(cur.NIVCSwitch, prev.NIVCSwitch),
		RunDelayNanos:   Subcount(cur.RunDelayNanos, prev.RunDelayNanos),
		BlockDelayNanos: Subcount(cur.BlockDelayNanos, prev.BlockDelayNanos),
	}
}

// clampPositive floors a wraparound-corrected tick delta of zero to 1, so a
// task's deviated CPU ticks are never zero and the task stays visible in
// its cycle.
func clampPositive(v model.Count) model.Count {
	if v == 0 {
		return 1
	}
	return v
}

func taskMemDev(cur, prev model.TaskMem) model.TaskMem {
	return model.TaskMem{
		VSize:   cur.VSize, // gauges, not cumulative
		RSS:     cur.RSS,
		PSS:     cur.PSS,
		Shared:  cur.Shared,
		Swap:    cur.Swap,
		Lib:     cur.Lib,
		Data:    cur.Data,
		Stack:   cur.Stack,
		MinFlt:  Subcount(cur.MinFlt, prev.MinFlt),
		MajFlt:  Subcount(cur.MajFlt, prev.MajFlt),
		VGrowth: int64(cur.VSize) - int64(prev.VSize),
		RGrowth: int64(cur.RSS) - int64(prev.RSS),
	}
}

func taskDiskDev(cur, prev model.TaskDisk) model.TaskDisk {
	return model.TaskDisk{
		ReadBytes:           Subcount(cur.ReadBytes, prev.ReadBytes),
		WriteBytes:          Subcount(cur.WriteBytes, prev.WriteBytes),
		CancelledWriteBytes: Subcount(cur.CancelledWriteBytes, prev.CancelledWriteBytes),
		ReadIOs:             Subcount(cur.ReadIOs, prev.ReadIOs),
		WriteIOs:            Subcount(cur.WriteIOs, prev.WriteIOs),
	}
}

func taskNetProtoDev(cur, prev model.TaskNetProto) model.TaskNetProto {
	return model.TaskNetProto{
		SndBytes:   Subcount(cur.SndBytes, prev.SndBytes),
		SndPackets: Subcount(cur.SndPackets, prev.SndPackets),
		RcvBytes:   Subcount(cur.RcvBytes, prev.RcvBytes),
		RcvPackets: Subcount(cur.RcvPackets, prev.RcvPackets),
	}
}

func taskNetDev(cur, prev model.TaskNet) model.TaskNet {
	return model.TaskNet{
		TCP: taskNetProtoDev(cur.TCP, prev.TCP),
		UDP: taskNetProtoDev(cur.UDP, prev.UDP),
	}
}

// Exited converts a resolved accounting exit record plus its PDB baseline
// into the deviation bundle's terminal entry for that task: the "E" flag
// path, where counters are the exit record's own cumulative totals minus
// the last baseline sampled while the task was alive.
func Exited(exit model.ExitRecord, baseline model.TaskSnapshot) model.TaskDeviation {
	return model.TaskDeviation{
		Identity: baseline.Identity,
		State:    model.StateExited,
		Exited:   true,
		ExitCode: exit.ExitCode,
		CPU: model.TaskCPU{
			UTime: clampPositive(Subcount(exit.UTime, baseline.CPU.UTime)),
			STime: clampPositive(Subcount(exit.STime, baseline.CPU.STime)),
		},
		Mem: model.TaskMem{
			MinFlt: Subcount(exit.MinFlt, baseline.Mem.MinFlt),
			MajFlt: Subcount(exit.MajFlt, baseline.Mem.MajFlt),
		},
		Disk: model.TaskDisk{
			ReadBytes:  Subcount(exit.ReadBytes, baseline.Disk.ReadBytes),
			WriteBytes: Subcount(exit.WriteBytes, baseline.Disk.WriteBytes),
		},
	}
}
