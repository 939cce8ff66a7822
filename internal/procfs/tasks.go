package procfs

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cassian-oss/sysgauge/internal/model"
)

// bootTime is needed to convert /proc/[pid]/stat's starttime (ticks since
// boot) into a wall-clock time.Time for TaskIdentity.StartTime, the field
// that disambiguates PID reuse in the PDB.
func bootTime(fs FS) time.Time {
	data, err := fs.ReadFile("stat")
	if err != nil {
		return time.Time{}
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "btime ") {
			fields := strings.Fields(line)
			if len(fields) == 2 {
				secs, _ := strconv.ParseInt(fields[1], 10, 64)
				return time.Unix(secs, 0)
			}
		}
	}
	return time.Time{}
}

// ReadTasks enumerates every pid directory and, within it, every thread
// under task/, producing one TaskSnapshot per thread: every thread is a
// row, and the thread-group leader additionally carries IsProc.
func ReadTasks(fs FS, hertz int) ([]model.TaskSnapshot, error) {
	entries, err := fs.ReadDir(".")
	if err != nil {
		return nil, err
	}
	btime := bootTime(fs)

	var out []model.TaskSnapshot
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, convErr := strconv.Atoi(e.Name())
		if convErr != nil {
			continue
		}

		threads, terr := fs.ReadDir(e.Name() + "/task")
		if terr != nil {
			// The process exited between the directory listing and this
			// read: skip it, the PDB will see it disappear this cycle.
			continue
		}

		cmdline := readCmdline(fs, e.Name())
		for _, th := range threads {
			tid, convErr := strconv.Atoi(th.Name())
			if convErr != nil {
				continue
			}
			snap, ok := readOneTask(fs, pid, tid, hertz, btime, cmdline)
			if !ok {
				continue
			}
			out = append(out, snap)
		}
	}
	return out, nil
}

func readCmdline(fs FS, pidDir string) string {
	data, err := fs.ReadFile(pidDir + "/cmdline")
	if err != nil {
		return ""
	}
	return strings.TrimRight(strings.ReplaceAll(string(data), "\x00", " "), " ")
}

// readOneTask parses /proc/[pid]/task/[tid]/stat, status and io.
func readOneTask(fs FS, pid, tid, hertz int, btime time.Time, cmdline string) (model.TaskSnapshot, bool) {
	base := strconv.Itoa(pid) + "/task/" + strconv.Itoa(tid)

	statData, err := fs.ReadFile(base + "/stat")
	if err != nil {
		return model.TaskSnapshot{}, false
	}
	stateField, fields, name, ok := splitStat(string(statData))
	if !ok {
		return model.TaskSnapshot{}, false
	}

	get := func(i int) int64 {
		if i >= len(fields) {
			return 0
		}
		v, _ := strconv.ParseInt(fields[i], 10, 64)
		return v
	}

	// Indices below are relative to "rest" in splitStat: rest[0] is
	// ppid (stat(5) field 4), so rest[i] == stat(5) field (i+4).
	state := model.TaskState(strings.TrimSpace(stateField)[0])
	startTicks := get(18) // field 22: starttime
	startTime := btime.Add(time.Duration(float64(startTicks) / float64(hertz) * float64(time.Second)))

	snap := model.TaskSnapshot{
		Identity: model.TaskIdentity{
			PID:       tid,
			TGID:      pid,
			PPID:      int(get(0)), // field 4: ppid
			Name:      name,
			Cmdline:   cmdline,
			StartTime: startTime,
			IsProc:    tid == pid,
		},
		State: state,
		CPU: model.TaskCPU{
			UTime:    model.Count(get(10)), // field 14
			STime:    model.Count(get(11)), // field 15
			Nice:     int(get(15)),         // field 19
			Priority: int(get(14)),         // field 18
			CurCPU:   int(get(35)),         // field 39
		},
		Mem: model.TaskMem{
			MinFlt: model.Count(get(6)),                            // field 10
			MajFlt: model.Count(get(8)),                            // field 12
			VSize:  model.Count(get(19)),                           // field 23
			RSS:    model.Count(get(20) * int64(os.Getpagesize())), // field 24
		},
	}

	readStatusInto(fs, base+"/status", &snap.Identity)
	readIOInto(fs, base+"/io", &snap.Disk)

	return snap, true
}

// splitStat handles /proc/[pid]/stat's awkward format: the comm field is
// the second whitespace-delimited token but is itself parenthesized and
// may contain spaces, so it must be located by its closing paren rather
// than by field index.
func splitStat(line string) (state string, fields []string, comm string, ok bool) {
	open := strings.IndexByte(line, '(')
	closeIdx := strings.LastIndexByte(line, ')')
	if open < 0 || closeIdx < 0 || closeIdx < open {
		return "", nil, "", false
	}
	comm = line[open+1 : closeIdx]
	rest := strings.Fields(line[closeIdx+1:])
	if len(rest) < 1 {
		return "", nil, "", false
	}
	// rest[0] is state (stat(5) field 3); rest[1:] starts at ppid (field 4).
	return rest[0], rest[1:], comm, true
}

func readStatusInto(fs FS, path string, id *model.TaskIdentity) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return
	}
	for _, line := range strings.Split(string(data), "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := parts[0]
		vals := strings.Fields(parts[1])
		if len(vals) == 0 {
			continue
		}
		switch key {
		case "Uid":
			id.RUID, id.EUID, id.SUID, id.FSUID = parseFour(vals)
		case "Gid":
			id.RGID, id.EGID, id.SGID, id.FSGID = parseFour(vals)
		case "NStgid":
			if len(vals) > 1 {
				id.VPID, _ = strconv.Atoi(vals[len(vals)-1])
			}
		}
	}
}

func parseFour(vals []string) (a, b, c, d int) {
	get := func(i int) int {
		if i >= len(vals) {
			return 0
		}
		v, _ := strconv.Atoi(vals[i])
		return v
	}
	return get(0), get(1), get(2), get(3)
}

func readIOInto(fs FS, path string, disk *model.TaskDisk) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return
	}
	for key, v := range parseKVFile(string(data)) {
		switch key {
		case "read_bytes":
			disk.ReadBytes = v
		case "write_bytes":
			disk.WriteBytes = v
		case "cancelled_write_bytes":
			disk.CancelledWriteBytes = v
		case "syscr":
			disk.ReadIOs = v
		case "syscw":
			disk.WriteIOs = v
		}
	}
}
