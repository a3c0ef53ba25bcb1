package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *Registry {
	t.Helper()
	r, err := Open(filepath.Join(t.TempDir(), "segments.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRecordRemoveRoundTrip(t *testing.T) {
	r := openTemp(t)
	if err := r.Record("chan_a", "/dev/shm/chan_a"); err != nil {
		t.Fatal(err)
	}
	if err := r.Remove("/dev/shm/chan_a"); err != nil {
		t.Fatal(err)
	}
	// A removed record must not be reaped later.
	n, err := r.Sweep()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("sweep reaped %d, want 0", n)
	}
}

func TestSweepSkipsLiveOwner(t *testing.T) {
	r := openTemp(t)
	// Recorded by this (live) process: sweep must leave it alone.
	seg := filepath.Join(t.TempDir(), "live_seg")
	if err := os.WriteFile(seg, make([]byte, 64), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := r.Record("live", seg); err != nil {
		t.Fatal(err)
	}
	n, err := r.Sweep()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("sweep reaped %d live segments", n)
	}
	if _, err := os.Stat(seg); err != nil {
		t.Fatalf("live segment file removed: %v", err)
	}
}

func TestSweepReapsDeadOwner(t *testing.T) {
	r := openTemp(t)
	seg := filepath.Join(t.TempDir(), "dead_seg")
	if err := os.WriteFile(seg, make([]byte, 64), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := r.Record("dead", seg); err != nil {
		t.Fatal(err)
	}
	// Rewrite the row with a pid that cannot exist.
	if _, err := r.db.Exec(`UPDATE segments SET pid = ? WHERE path = ?`, 1<<22+7, seg); err != nil {
		t.Fatal(err)
	}

	n, err := r.Sweep()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("sweep reaped %d, want 1", n)
	}
	if _, err := os.Stat(seg); !os.IsNotExist(err) {
		t.Fatalf("stale segment file survived sweep: %v", err)
	}
	// Second sweep is a no-op.
	if n, err := r.Sweep(); err != nil || n != 0 {
		t.Fatalf("second sweep: n=%d err=%v", n, err)
	}
}
