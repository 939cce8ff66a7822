package procfs

import "testing"

func TestReadCPU(t *testing.T) {
	fs := newMemFS()
	fs.put("stat", "cpu  1000 50 500 9000 100 10 20 0 0 0\n"+
		"cpu0 500 25 250 4500 50 5 10 0 0 0\n"+
		"cpu1 500 25 250 4500 50 5 10 0 0 0\n"+
		"ctxt 123456\n"+
		"processes 7890\n"+
		"intr 55555 0 0\n")

	cpu, err := ReadCPU(fs)
	if err != nil {
		t.Fatalf("ReadCPU: %v", err)
	}
	if cpu.NrCPU != 2 {
		t.Errorf("NrCPU = %d, want 2", cpu.NrCPU)
	}
	if cpu.All.UTime != 1000 || cpu.All.ITime != 9000 {
		t.Errorf("All = %+v, want UTime=1000 ITime=9000", cpu.All)
	}
	if cpu.CSwitch != 123456 {
		t.Errorf("CSwitch = %d, want 123456", cpu.CSwitch)
	}
	if cpu.NrProcs != 7890 {
		t.Errorf("NrProcs = %d, want 7890", cpu.NrProcs)
	}
	if len(cpu.PerCPU) != 2 {
		t.Fatalf("PerCPU len = %d, want 2", len(cpu.PerCPU))
	}
}

func TestReadCPU_MissingFile(t *testing.T) {
	fs := newMemFS()
	if _, err := ReadCPU(fs); err == nil {
		t.Fatal("expected error for missing stat file")
	}
}
