package procfs

import "github.com/cassian-oss/sysgauge/internal/model"

// ReadSystem populates one SystemSnapshot from every counter source this
// package knows how to read. A source that errors (missing on this kernel,
// e.g. no InfiniBand) is left at its zero value rather than aborting the
// whole snapshot — each source is treated as independently optional.
func ReadSystem(fs FS, boot bool) model.SystemSnapshot {
	var out model.SystemSnapshot
	out.Boot = boot

	if cpu, err := ReadCPU(fs); err == nil {
		out.CPU = cpu
	}
	if mem, err := ReadMemory(fs); err == nil {
		out.Memory = mem
	}
	if disk, err := ReadDisk(fs); err == nil {
		out.Disks = disk
	}
	if net, err := ReadNetwork(fs); err == nil {
		out.Interfaces = net
	}
	out.Pressure = ReadPressure(fs)

	return out
}
