package procfs

import (
	"strconv"
	"strings"

	"github.com/cassian-oss/sysgauge/internal/model"
)

// ReadMemory parses /proc/meminfo and /proc/vmstat into a MemoryStat.
// Every value is in kilobytes as reported by the kernel, except the
// page-fault counters which come from vmstat in raw page counts.
func ReadMemory(fs FS) (model.MemoryStat, error) {
	var out model.MemoryStat

	if data, err := fs.ReadFile("meminfo"); err == nil {
		fields := parseKVFile(string(data))
		out.TotMem = fields["MemTotal"]
		out.FreeMem = fields["MemFree"]
		out.BufferMem = fields["Buffers"]
		out.CacheMem = fields["Cached"]
		out.DirtyMem = fields["Dirty"]
		out.SlabMem = fields["Slab"]
		out.ShMem = fields["Shmem"]
		out.SwapTotal = fields["SwapTotal"]
		out.SwapFree = fields["SwapFree"]
		out.HugePagesTotal = fields["HugePages_Total"]
		out.HugePagesFree = fields["HugePages_Free"]
		out.HugePageSizeKB = fields["Hugepagesize"]
		out.KSMShared = fields["KsmShared"]
		out.KSMSharing = fields["KsmSharing"]
	}

	if data, err := fs.ReadFile("vmstat"); err == nil {
		fields := parseKVFile(string(data))
		out.MinFault = fields["pgfault"]
		out.MajFault = fields["pgmajfault"]
	}

	return out, nil
}

// parseKVFile parses the common "Key:   value [kB]" / "key value" procfs
// line format used by meminfo, vmstat, and most per-task status files.
func parseKVFile(data string) map[string]model.Count {
	out := make(map[string]model.Count)
	for _, line := range strings.Split(data, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		key := strings.TrimSuffix(fields[0], ":")
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		out[key] = model.Count(v)
	}
	return out
}
