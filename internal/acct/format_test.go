package acct

import "testing"

func TestCompTDecodeSmallValue(t *testing.T) {
	// Mantissa alone, exponent zero: value passes through unchanged.
	c := comp_t(1500)
	if got := c.decode(); got != 1500 {
		t.Errorf("decode() = %d, want 1500", got)
	}
}

func TestCompTDecodeWithExponent(t *testing.T) {
	// mantissa=100, exponent=2 -> 100 << 6 == 6400
	c := comp_t(100 | (2 << 13))
	if got := c.decode(); got != 6400 {
		t.Errorf("decode() = %d, want 6400", got)
	}
}

func TestNormalizeExitCode(t *testing.T) {
	if got := normalizeExitCode(9); got != 9+256 {
		t.Errorf("signal 9 exit code = %d, want %d", got, 9+256)
	}
	if got := normalizeExitCode(0x2a00); got != 0x2a {
		t.Errorf("wait-status exit code = %#x, want 0x2a", got)
	}
}
