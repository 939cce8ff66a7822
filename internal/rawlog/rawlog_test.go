package rawlog

import (
	"io"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cassian-oss/sysgauge/internal/model"
)

func tempLogPath(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "sysgauge-*.raw")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	path := f.Name()
	f.Close()
	return path
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := tempLogPath(t)

	w, err := Create(path, 100)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cycle := &model.Cycle{
		Epoch:    1700000000,
		Interval: 5,
		System: &model.SystemDeviation{
			CPU: model.CPUStat{NrCPU: 4, All: model.CPUTimes{UTime: 123, STime: 45}},
		},
		Deviation: &model.DeviationBundle{
			Tasks: []model.TaskDeviation{
				{Identity: model.TaskIdentity{PID: 1, Name: "init"}, CPU: model.TaskCPU{UTime: 10}},
			},
			AllTasks: []int{0},
			TotRun:   1,
		},
		Flags: model.FlagCgroupV2,
	}
	cgroups := []*model.CgroupDeviation{
		{Path: "sys.slice/a.service", Name: "a.service", CPUUserUsec: 700},
	}
	pids := map[int64][]int{1: {1, 2, 3}}

	if err := w.WriteCycle(cycle, cgroups, pids); err != nil {
		t.Fatalf("WriteCycle: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.Hertz() != 100 {
		t.Errorf("Hertz() = %d, want 100", r.Hertz())
	}

	got, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}

	if diff := cmp.Diff(cycle.System, got.System); diff != "" {
		t.Errorf("System mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(cycle.Deviation, got.Deviation); diff != "" {
		t.Errorf("Deviation mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(cgroups, got.Cgroups); diff != "" {
		t.Errorf("Cgroups mismatch (-want +got):\n%s", diff)
	}
	if got.Epoch != cycle.Epoch || got.Interval != cycle.Interval {
		t.Errorf("Epoch/Interval = %d/%d, want %d/%d", got.Epoch, got.Interval, cycle.Epoch, cycle.Interval)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Errorf("second Next() err = %v, want io.EOF", err)
	}
}

func TestOpen_RejectsBadMagic(t *testing.T) {
	path := tempLogPath(t)
	if err := os.WriteFile(path, []byte("not a raw log, but long enough for a header"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Open(path); err == nil {
		t.Fatal("Open should reject a file with a bad magic number")
	}
}

func TestSeekRecord(t *testing.T) {
	path := tempLogPath(t)
	w, err := Create(path, 100)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 3; i++ {
		c := &model.Cycle{Epoch: int64(1000 + i), Deviation: &model.DeviationBundle{}, System: &model.SystemDeviation{}}
		if err := w.WriteCycle(c, nil, nil); err != nil {
			t.Fatalf("WriteCycle %d: %v", i, err)
		}
	}
	w.Close()

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	for i := 0; i < 3; i++ {
		if _, err := r.Next(); err != nil {
			t.Fatalf("Next %d: %v", i, err)
		}
	}

	if err := r.SeekRecord(1); err != nil {
		t.Fatalf("SeekRecord: %v", err)
	}
	c, err := r.Next()
	if err != nil {
		t.Fatalf("Next after seek: %v", err)
	}
	if c.Epoch != 1001 {
		t.Errorf("Epoch after SeekRecord(1) = %d, want 1001", c.Epoch)
	}
}
