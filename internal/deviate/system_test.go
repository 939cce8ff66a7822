package deviate

import (
	"testing"

	"github.com/cassian-oss/sysgauge/internal/model"
)

func TestSystem_CPUDeviation(t *testing.T) {
	prev := model.SystemSnapshot{
		CPU: model.CPUStat{
			NrCPU: 2,
			All:   model.CPUTimes{UTime: 1000, STime: 200, ITime: 5000},
			PerCPU: []model.PerCPUTimes{
				{CPUID: 0, Times: model.CPUTimes{UTime: 500}},
				{CPUID: 1, Times: model.CPUTimes{UTime: 500}},
			},
			CSwitch: 900,
		},
	}
	cur := model.SystemSnapshot{
		CPU: model.CPUStat{
			NrCPU: 2,
			All:   model.CPUTimes{UTime: 1100, STime: 250, ITime: 5400},
			PerCPU: []model.PerCPUTimes{
				{CPUID: 0, Times: model.CPUTimes{UTime: 560}},
				{CPUID: 1, Times: model.CPUTimes{UTime: 540}},
			},
			CSwitch: 1000,
		},
	}

	dev := System(cur, prev)
	if dev.CPU.All.UTime != 100 {
		t.Errorf("All.UTime deviation = %d, want 100", dev.CPU.All.UTime)
	}
	if dev.CPU.All.STime != 50 {
		t.Errorf("All.STime deviation = %d, want 50", dev.CPU.All.STime)
	}
	if dev.CPU.CSwitch != 100 {
		t.Errorf("CSwitch deviation = %d, want 100", dev.CPU.CSwitch)
	}
	if len(dev.CPU.PerCPU) != 2 {
		t.Fatalf("PerCPU len = %d, want 2", len(dev.CPU.PerCPU))
	}
	if dev.CPU.PerCPU[0].Times.UTime != 60 {
		t.Errorf("cpu0 UTime deviation = %d, want 60", dev.CPU.PerCPU[0].Times.UTime)
	}
	if dev.CPU.PerCPU[1].Times.UTime != 40 {
		t.Errorf("cpu1 UTime deviation = %d, want 40", dev.CPU.PerCPU[1].Times.UTime)
	}
}

func TestSystem_DiskDeviationMatchesByName(t *testing.T) {
	prev := model.SystemSnapshot{Disks: model.DiskStat{Disks: []model.PerDiskStat{
		{Name: "sda", NumReads: 100},
		{Name: "sdb", NumReads: 50},
	}}}
	cur := model.SystemSnapshot{Disks: model.DiskStat{Disks: []model.PerDiskStat{
		{Name: "sda", NumReads: 130},
		{Name: "sdb", NumReads: 50},
	}}}

	dev := System(cur, prev)
	if dev.Disks.Disks[0].NumReads != 30 {
		t.Errorf("sda NumReads deviation = %d, want 30", dev.Disks.Disks[0].NumReads)
	}
	if dev.Disks.Disks[1].NumReads != 0 {
		t.Errorf("sdb NumReads deviation = %d, want 0", dev.Disks.Disks[1].NumReads)
	}
}

func TestSystem_MemoryIsCopiedNotSubtracted(t *testing.T) {
	prev := model.SystemSnapshot{Memory: model.MemoryStat{FreeMem: 1000}}
	cur := model.SystemSnapshot{Memory: model.MemoryStat{FreeMem: 500}}

	dev := System(cur, prev)
	if dev.Memory.FreeMem != 500 {
		t.Errorf("Memory.FreeMem = %d, want 500 (copied from cur, not subtracted)", dev.Memory.FreeMem)
	}
}

func TestSystem_NewInterfaceHasNoPrior(t *testing.T) {
	prev := model.SystemSnapshot{}
	cur := model.SystemSnapshot{Interfaces: model.NetworkStat{
		Interfaces: []model.PerInterfaceStat{{Name: "eth0", RBytes: 1000}},
	}}

	dev := System(cur, prev)
	if len(dev.Interfaces.Interfaces) != 1 {
		t.Fatalf("expected 1 interface, got %d", len(dev.Interfaces.Interfaces))
	}
	if dev.Interfaces.Interfaces[0].RBytes != 1000 {
		t.Errorf("new interface RBytes = %d, want 1000 (no prior to subtract)", dev.Interfaces.Interfaces[0].RBytes)
	}
}
