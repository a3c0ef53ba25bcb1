package utils

import (
	"math"
	"strconv"
	"testing"
	"unsafe"

	"shmchan/constants"
)

func TestItoa(t *testing.T) {
	cases := []int{0, 1, -1, 7, 42, -99, 123456789, math.MaxInt64, math.MinInt64}
	for _, v := range cases {
		if got, want := Itoa(v), strconv.Itoa(v); got != want {
			t.Errorf("Itoa(%d) = %q, want %q", v, got, want)
		}
	}
}

func TestUtoa(t *testing.T) {
	cases := []uint64{0, 1, 10, 999, math.MaxUint64}
	for _, v := range cases {
		if got, want := Utoa(v), strconv.FormatUint(v, 10); got != want {
			t.Errorf("Utoa(%d) = %q, want %q", v, got, want)
		}
	}
}

func TestB2s(t *testing.T) {
	if B2s(nil) != "" {
		t.Fatal("nil slice should convert to empty string")
	}
	b := []byte("hello")
	if B2s(b) != "hello" {
		t.Fatalf("B2s = %q", B2s(b))
	}
}

func TestAlignUp(t *testing.T) {
	cases := []struct{ n, align, want uintptr }{
		{0, 64, 0},
		{1, 64, 64},
		{64, 64, 64},
		{65, 64, 128},
		{4095, 4096, 4096},
		{4097, 4096, 8192},
	}
	for _, c := range cases {
		if got := AlignUp(c.n, c.align); got != c.want {
			t.Errorf("AlignUp(%d,%d) = %d, want %d", c.n, c.align, got, c.want)
		}
	}
}

func TestAlignedBlock(t *testing.T) {
	for _, size := range []uintptr{1, 63, 64, 192, 4096} {
		b := AlignedBlock(size)
		if uintptr(len(b)) != size {
			t.Fatalf("size %d: len %d", size, len(b))
		}
		if uintptr(unsafe.Pointer(&b[0]))&(constants.CacheLine-1) != 0 {
			t.Fatalf("size %d: block not cache-line aligned", size)
		}
	}
}

func TestMix64Avalanche(t *testing.T) {
	if Mix64(0) != 0 {
		t.Fatal("Mix64(0) should stay 0")
	}
	// Distinct inputs keep distinct outputs over a small dense range.
	seen := make(map[uint64]struct{}, 1000)
	for i := uint64(1); i <= 1000; i++ {
		h := Mix64(i)
		if _, dup := seen[h]; dup {
			t.Fatalf("collision at %d", i)
		}
		seen[h] = struct{}{}
	}
}
