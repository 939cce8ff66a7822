package procfs

import (
	"strconv"
	"strings"

	"github.com/cassian-oss/sysgauge/internal/model"
)

// readPSI parses a /proc/pressure/{cpu,mem,io} file, one routine shared by
// all three pressure-stall-information sources.
func readPSI(fs FS, relPath string) model.PressureResource {
	var out model.PressureResource

	data, err := fs.ReadFile(relPath)
	if err != nil {
		return out // unsupported kernel or resource: Supported stays false
	}

	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}

		var dst *model.PressureLine
		switch fields[0] {
		case "some":
			dst = &out.Some
		case "full":
			dst = &out.Full
		default:
			continue
		}
		dst.Supported = true

		for _, kv := range fields[1:] {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				continue
			}
			switch parts[0] {
			case "avg10":
				dst.Avg10, _ = strconv.ParseFloat(parts[1], 64)
			case "avg60":
				dst.Avg60, _ = strconv.ParseFloat(parts[1], 64)
			case "avg300":
				dst.Avg300, _ = strconv.ParseFloat(parts[1], 64)
			case "total":
				total, _ := strconv.ParseUint(parts[1], 10, 64)
				dst.TotalMicros = model.Count(total)
			}
		}
	}
	return out
}

// ReadPressure reads all three pressure-stall-information files.
func ReadPressure(fs FS) model.PressureStat {
	return model.PressureStat{
		CPU: readPSI(fs, "pressure/cpu"),
		Mem: readPSI(fs, "pressure/memory"),
		IO:  readPSI(fs, "pressure/io"),
	}
}
