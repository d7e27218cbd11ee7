package abi

import "testing"

func TestBox(t *testing.T) {
	tests := []uintptr{0, 1, 2, 41, 1 << 20, 1<<31 - 1}
	for _, n := range tests {
		o := Box(n)
		if !IsScalar(o) {
			t.Errorf("Box(%d) = %#x is not a scalar", n, o)
		}
		if got := Unbox(o); got != n {
			t.Errorf("Unbox(Box(%d)) = %d", n, got)
		}
	}
}

func TestUnit(t *testing.T) {
	if Unit != Box(0) {
		t.Fatalf("Unit = %#x, want Box(0) = %#x", Unit, Box(0))
	}
}

func TestIsScalar_HeapPointer(t *testing.T) {
	for _, o := range []Object{2, 4, 0x1000, 0xdead0} {
		if IsScalar(o) {
			t.Errorf("IsScalar(%#x) = true, want false", o)
		}
	}
}
