package deviate

import "testing"

func TestSubcountNoWrap(t *testing.T) {
	if got := Subcount(uint64(150), uint64(100)); got != 50 {
		t.Errorf("Subcount(150, 100) = %d, want 50", got)
	}
}

func TestSubcountWrap(t *testing.T) {
	// A 32-bit counter that wrapped: prev near the top of the range, cur
	// near the bottom.
	prev := uint32(4294967290) // 2^32 - 6
	cur := uint32(4)
	got := Subcount(cur, prev)
	if got != 10 {
		t.Errorf("Subcount wraparound = %d, want 10", got)
	}
}

func TestSubcountSigned(t *testing.T) {
	if got := SubcountSigned(500, 200); got != 300 {
		t.Errorf("SubcountSigned(500, 200) = %d, want 300", got)
	}
}

func TestSubcountEqual(t *testing.T) {
	if got := Subcount(uint64(42), uint64(42)); got != 0 {
		t.Errorf("Subcount(42, 42) = %d, want 0", got)
	}
}
