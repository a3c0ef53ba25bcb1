//go:build linux

package platform

import "testing"

func TestCPUListContains(t *testing.T) {
	cases := []struct {
		list string
		cpu  int
		want bool
	}{
		{"0-3", 2, true},
		{"0-3", 4, false},
		{"0-3,8,10-11", 8, true},
		{"0-3,8,10-11", 9, false},
		{"0-3,8,10-11", 11, true},
		{"5", 5, true},
		{"5", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		if got := cpuListContains(c.list, c.cpu); got != c.want {
			t.Errorf("cpuListContains(%q,%d) = %v, want %v", c.list, c.cpu, got, c.want)
		}
	}
}

func TestBindNUMARejectsBadNode(t *testing.T) {
	if err := BindNUMA(-1, 0); err == nil {
		t.Fatal("negative node should be rejected")
	}
	if err := BindNUMA(63, 0); err == nil {
		// Node 63 exists on almost no machine; a topology error is the
		// expected outcome.
		t.Log("node 63 unexpectedly present, skipping")
	}
}
