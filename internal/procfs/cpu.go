package procfs

import (
	"strconv"
	"strings"

	"github.com/cassian-oss/sysgauge/internal/model"
)

// ReadCPU parses /proc/stat's cpu and cpu<N> lines plus its intr, ctxt and
// processes lines into a CPUStat. All values are
// cumulative since boot; the deviate package is responsible for any
// wraparound subtraction.
func ReadCPU(fs FS) (model.CPUStat, error) {
	data, err := fs.ReadFile("stat")
	if err != nil {
		return model.CPUStat{}, err
	}

	var out model.CPUStat
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch {
		case fields[0] == "cpu":
			out.All = parseCPUTimes(fields[1:])
		case strings.HasPrefix(fields[0], "cpu"):
			idStr := strings.TrimPrefix(fields[0], "cpu")
			id, convErr := strconv.Atoi(idStr)
			if convErr != nil {
				continue
			}
			out.PerCPU = append(out.PerCPU, model.PerCPUTimes{CPUID: id, Times: parseCPUTimes(fields[1:])})
		case fields[0] == "ctxt" && len(fields) > 1:
			v, _ := strconv.ParseUint(fields[1], 10, 64)
			out.CSwitch = model.Count(v)
		case fields[0] == "processes" && len(fields) > 1:
			v, _ := strconv.ParseUint(fields[1], 10, 64)
			out.NrProcs = model.Count(v)
		case fields[0] == "intr" && len(fields) > 1:
			v, _ := strconv.ParseUint(fields[1], 10, 64)
			out.DevInt = model.Count(v)
		}
	}
	out.NrCPU = len(out.PerCPU)
	return out, nil
}

func parseCPUTimes(fields []string) model.CPUTimes {
	get := func(i int) model.Count {
		if i >= len(fields) {
			return 0
		}
		v, _ := strconv.ParseUint(fields[i], 10, 64)
		return model.Count(v)
	}
	return model.CPUTimes{
		UTime:    get(0),
		NTime:    get(1),
		STime:    get(2),
		ITime:    get(3),
		WTime:    get(4),
		IRQTime:  get(5),
		SIRQTime: get(6),
		Steal:    get(7),
		Guest:    get(8),
	}
}
