package loop

import "testing"

func TestTrigger_SampleNowNonBlocking(t *testing.T) {
	tr := newTrigger()
	tr.SampleNow()
	tr.SampleNow() // second call must not block: buffered channel, drop-if-full

	select {
	case <-tr.sampleNow:
	default:
		t.Fatal("expected a pending sampleNow signal")
	}
}

func TestTrigger_LastThenExit(t *testing.T) {
	tr := newTrigger()
	tr.LastThenExit()

	select {
	case <-tr.lastThenExit:
	default:
		t.Fatal("expected a pending lastThenExit signal")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ProcRoot != "/proc" || cfg.SysRoot != "/sys" {
		t.Fatalf("unexpected roots: %+v", cfg)
	}
	if cfg.AcctMax != 1000 {
		t.Fatalf("AcctMax = %d, want 1000", cfg.AcctMax)
	}
}

func TestDurationUntilMidnight_Positive(t *testing.T) {
	if d := durationUntilMidnight(); d <= 0 {
		t.Fatalf("durationUntilMidnight = %v, want > 0", d)
	}
}
