package procfs

import (
	"strconv"
	"strings"

	"github.com/cassian-oss/sysgauge/internal/cgroup"
)

// ReadCgroups walks the unified cgroup v2 hierarchy rooted at fs (normally
// "/sys/fs/cgroup") and returns a fresh Chain for this cycle. A controller
// file missing on a given cgroup (e.g. a disabled controller) leaves the
// corresponding field at its sentinel/zero value rather than aborting the
// walk, the same independently-optional-source treatment ReadSystem gives
// procfs counters.
func ReadCgroups(fs FS) (*cgroup.Chain, error) {
	var entries []cgroup.Entry
	if err := walkCgroup(fs, ".", "", 0, -1, &entries); err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Seq = i
	}
	return cgroup.NewChain(entries), nil
}

func walkCgroup(fs FS, relDir, path string, depth, parentSeq int, entries *[]cgroup.Entry) error {
	seq := len(*entries)
	name := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		name = path[idx+1:]
	}

	e := cgroup.Entry{
		Path:      path,
		Name:      name,
		Depth:     depth,
		ParentSeq: parentSeq,
		NameHash:  cgroup.PathHash(path),
		Config:    readCgroupConfig(fs, relDir),
		Metrics:   readCgroupMetrics(fs, relDir),
		PIDs:      readCgroupPIDs(fs, relDir),
	}
	e.NProcs = len(e.PIDs)
	*entries = append(*entries, e)

	children, err := fs.ReadDir(relDir)
	if err != nil {
		return nil // leaf or unreadable, stop descending here
	}
	procsBelow := e.NProcs
	for _, c := range children {
		if !c.IsDir() {
			continue
		}
		childRel := joinRel(relDir, c.Name())
		childPath := c.Name()
		if path != "" {
			childPath = path + "/" + c.Name()
		}
		childSeq := len(*entries)
		if err := walkCgroup(fs, childRel, childPath, depth+1, seq, entries); err != nil {
			return err
		}
		procsBelow += (*entries)[childSeq].ProcsBelow
	}
	(*entries)[seq].ProcsBelow = procsBelow
	return nil
}

func joinRel(dir, name string) string {
	if dir == "." || dir == "" {
		return name
	}
	return dir + "/" + name
}

func readCgroupConfig(fs FS, dir string) cgroup.Config {
	cfg := cgroup.Config{CPUWeight: -2, CPUMax: -2, MemMax: -2, SwapMax: -2}

	if data, err := fs.ReadFile(joinRel(dir, "cpu.weight")); err == nil {
		cfg.CPUWeight = atoiSentinel(string(data))
	}
	if data, err := fs.ReadFile(joinRel(dir, "cpu.max")); err == nil {
		fields := strings.Fields(string(data))
		if len(fields) > 0 {
			if fields[0] == "max" {
				cfg.CPUMax = -1
			} else if v, err := strconv.Atoi(fields[0]); err == nil {
				cfg.CPUMax = v
			}
		}
	}
	if data, err := fs.ReadFile(joinRel(dir, "memory.max")); err == nil {
		cfg.MemMax = atoi64Sentinel(string(data))
	}
	if data, err := fs.ReadFile(joinRel(dir, "memory.swap.max")); err == nil {
		cfg.SwapMax = atoi64Sentinel(string(data))
	}
	return cfg
}

func readCgroupMetrics(fs FS, dir string) cgroup.Metrics {
	var m cgroup.Metrics

	if data, err := fs.ReadFile(joinRel(dir, "cpu.stat")); err == nil {
		kv := parseKVFile(string(data))
		m.CPUUserUsec = kv["user_usec"]
		m.CPUSysUsec = kv["system_usec"]
	}
	if data, err := fs.ReadFile(joinRel(dir, "memory.stat")); err == nil {
		kv := parseKVFile(string(data))
		m.MemAnonPages = kv["anon"]
		m.MemFilePages = kv["file"]
		m.MemKernelPages = kv["kernel_stack"] + kv["slab"]
	}
	if data, err := fs.ReadFile(joinRel(dir, "cpu.pressure")); err == nil {
		m.CPUPressureUsec = parsePSITotal(string(data))
	}
	if data, err := fs.ReadFile(joinRel(dir, "memory.pressure")); err == nil {
		m.MemPressureUsec = parsePSITotal(string(data))
	}
	if data, err := fs.ReadFile(joinRel(dir, "io.pressure")); err == nil {
		m.DiskPressureUsec = parsePSITotal(string(data))
	}
	return m
}

func parsePSITotal(data string) uint64 {
	for _, line := range strings.Split(data, "\n") {
		if !strings.HasPrefix(line, "some ") {
			continue
		}
		kv := parseKVFile(strings.TrimPrefix(line, "some "))
		return kv["total"]
	}
	return 0
}

func readCgroupPIDs(fs FS, dir string) []int {
	data, err := fs.ReadFile(joinRel(dir, "cgroup.procs"))
	if err != nil {
		return nil
	}
	var pids []int
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		if v, err := strconv.Atoi(line); err == nil {
			pids = append(pids, v)
		}
	}
	return pids
}

func atoiSentinel(s string) int {
	s = strings.TrimSpace(s)
	if s == "max" || s == "" {
		return -1
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return -2
	}
	return v
}

func atoi64Sentinel(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "max" || s == "" {
		return -1
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return -2
	}
	return v
}
