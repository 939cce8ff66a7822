package procfs

import (
	"testing"

	"github.com/cassian-oss/sysgauge/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want model.DiskClass
	}{
		{"sda", model.DiskWhole},
		{"nvme0n1", model.DiskWhole},
		{"sda1", model.DiskIgnored},
		{"nvme0n1p1", model.DiskIgnored},
		{"loop0", model.DiskIgnored},
		{"md0", model.DiskMDRaid},
		{"md127", model.DiskMDRaid},
		{"dm-0", model.DiskLVM},
		{"dm-12", model.DiskLVM},
	}
	for _, tt := range tests {
		if got := classify(tt.name); got != tt.want {
			t.Errorf("classify(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestReadDisk(t *testing.T) {
	fs := newMemFS()
	fs.put("diskstats", ""+
		"   8       0 sda 50000 1000 2000000 25000 30000 500 1500000 15000 0 20000 40000\n"+
		"   8       1 sda1 1000 0 2000 10 100 0 200 5 0 10 20\n"+
		"   9       0 md0 2000 0 40000 100 1000 0 20000 50 0 500 900\n"+
		" 253       0 dm-0 3000 0 60000 200 1500 0 30000 70 0 600 1100\n"+
		"   7       0 loop0 10 0 20 1 0 0 0 0 0 0 0\n")

	disk, err := ReadDisk(fs)
	if err != nil {
		t.Fatalf("ReadDisk: %v", err)
	}
	if len(disk.Disks) != 1 || disk.Disks[0].Name != "sda" {
		t.Errorf("Disks = %+v, want just sda", disk.Disks)
	}
	if len(disk.MDs) != 1 || disk.MDs[0].Name != "md0" {
		t.Errorf("MDs = %+v, want just md0", disk.MDs)
	}
	if len(disk.LVs) != 1 || disk.LVs[0].Name != "dm-0" {
		t.Errorf("LVs = %+v, want just dm-0", disk.LVs)
	}
	if disk.Disks[0].SectorsRead != 2000000 {
		t.Errorf("sda SectorsRead = %d, want 2000000", disk.Disks[0].SectorsRead)
	}
}
