package procfs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cassian-oss/sysgauge/internal/model"
)

// partitionRe matches partition suffixes that must be excluded from a whole
// disk's own counters to avoid double-counting.
var partitionRe = regexp.MustCompile(`^(sd[a-z]+|hd[a-z]+|vd[a-z]+)\d+$|^(nvme\d+n\d+)p\d+$|^(mmcblk\d+)p\d+$`)

// mdRe and dmRe classify software RAID arrays and device-mapper (LVM)
// volumes respectively, a bucket beyond the plain whole-disk/partition
// split.
var mdRe = regexp.MustCompile(`^md\d+$`)
var dmRe = regexp.MustCompile(`^dm-\d+$`)

// classify returns which bucket a /proc/diskstats device name belongs to.
func classify(name string) model.DiskClass {
	switch {
	case strings.HasPrefix(name, "loop"), strings.HasPrefix(name, "ram"):
		return model.DiskIgnored
	case mdRe.MatchString(name):
		return model.DiskMDRaid
	case dmRe.MatchString(name):
		return model.DiskLVM
	case partitionRe.MatchString(name):
		return model.DiskIgnored
	default:
		return model.DiskWhole
	}
}

// ReadDisk parses /proc/diskstats into three disk buckets: whole devices,
// mdraid arrays, and LVM volumes.
func ReadDisk(fs FS) (model.DiskStat, error) {
	data, err := fs.ReadFile("diskstats")
	if err != nil {
		return model.DiskStat{}, err
	}

	var out model.DiskStat
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 14 {
			continue
		}
		name := fields[2]
		class := classify(name)
		if class == model.DiskIgnored {
			continue
		}

		get := func(i int) model.Count {
			v, _ := strconv.ParseUint(fields[i], 10, 64)
			return model.Count(v)
		}
		d := model.PerDiskStat{
			Name:           name,
			Class:          class,
			NumReads:       get(3),
			SectorsRead:    get(5),
			NumWrites:      get(7),
			SectorsWrite:   get(9),
			InFlight:       get(11),
			IOMillis:       get(12),
			WeightedMillis: get(13),
		}

		switch class {
		case model.DiskWhole:
			out.Disks = append(out.Disks, d)
		case model.DiskMDRaid:
			out.MDs = append(out.MDs, d)
		case model.DiskLVM:
			out.LVs = append(out.LVs, d)
		}
	}
	return out, nil
}
