package procfs

import "testing"

func TestReadPressure(t *testing.T) {
	fs := newMemFS()
	fs.put("pressure/cpu", "some avg10=3.20 avg60=2.10 avg300=1.05 total=8000000\n")
	fs.put("pressure/memory", "some avg10=0.50 avg60=0.20 avg300=0.10 total=100\n"+
		"full avg10=0.10 avg60=0.05 avg300=0.01 total=50\n")

	p := ReadPressure(fs)
	if !p.CPU.Some.Supported {
		t.Fatal("CPU.Some should be Supported")
	}
	if p.CPU.Some.Avg10 != 3.20 {
		t.Errorf("CPU.Some.Avg10 = %f, want 3.20", p.CPU.Some.Avg10)
	}
	if !p.Mem.Full.Supported {
		t.Fatal("Mem.Full should be Supported")
	}
	if p.Mem.Full.TotalMicros != 50 {
		t.Errorf("Mem.Full.TotalMicros = %d, want 50", p.Mem.Full.TotalMicros)
	}
	if p.IO.Some.Supported {
		t.Error("IO should be unsupported when the file is absent")
	}
}
