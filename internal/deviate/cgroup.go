package deviate

import (
	"github.com/cassian-oss/sysgauge/internal/cgroup"
	"github.com/cassian-oss/sysgauge/internal/model"
)

// Cgroups matches the current cycle's cgroup chain against the previous
// one by stable path hash (sequence numbers churn on every re-walk, so
// NameHash is the only safe cross-cycle key) and deviates each entry's
// cumulative counters. A current entry with no match in prev is treated
// like a new task: its counters are reported as-is.
func Cgroups(cur, prev *cgroup.Chain) []*model.CgroupDeviation {
	if cur == nil {
		return nil
	}

	out := make([]*model.CgroupDeviation, len(cur.Entries))
	for i, c := range cur.Entries {
		p, ok := prev.Lookup(c.NameHash)
		if !ok {
			out[i] = &model.CgroupDeviation{
				Path: c.Path, Name: c.Name, Depth: c.Depth, NameHash: c.NameHash,
				NProcs: c.NProcs, ProcsBelow: c.ProcsBelow,
				CPUWeight: c.Config.CPUWeight, CPUMax: c.Config.CPUMax,
				MemMax: c.Config.MemMax, SwapMax: c.Config.SwapMax,
				CPUUserUsec: c.Metrics.CPUUserUsec, CPUSysUsec: c.Metrics.CPUSysUsec,
				MemAnonPages: c.Metrics.MemAnonPages, MemFilePages: c.Metrics.MemFilePages,
				MemKernelPages:  c.Metrics.MemKernelPages,
				CPUPressureUsec: c.Metrics.CPUPressureUsec, MemPressureUsec: c.Metrics.MemPressureUsec,
				DiskPressureUsec: c.Metrics.DiskPressureUsec,
				PIDs:             c.PIDs,
			}
			continue
		}

		out[i] = &model.CgroupDeviation{
			Path: c.Path, Name: c.Name, Depth: c.Depth, NameHash: c.NameHash,
			NProcs: c.NProcs, ProcsBelow: c.ProcsBelow,
			CPUWeight: c.Config.CPUWeight, CPUMax: c.Config.CPUMax,
			MemMax: c.Config.MemMax, SwapMax: c.Config.SwapMax,

			CPUUserUsec: Subcount(c.Metrics.CPUUserUsec, p.Metrics.CPUUserUsec),
			CPUSysUsec:  Subcount(c.Metrics.CPUSysUsec, p.Metrics.CPUSysUsec),

			MemAnonPages:   c.Metrics.MemAnonPages, // gauges, not cumulative
			MemFilePages:   c.Metrics.MemFilePages,
			MemKernelPages: c.Metrics.MemKernelPages,

			CPUPressureUsec:  Subcount(c.Metrics.CPUPressureUsec, p.Metrics.CPUPressureUsec),
			MemPressureUsec:  Subcount(c.Metrics.MemPressureUsec, p.Metrics.MemPressureUsec),
			DiskPressureUsec: Subcount(c.Metrics.DiskPressureUsec, p.Metrics.DiskPressureUsec),

			PIDs: c.PIDs,
		}
	}
	return out
}
