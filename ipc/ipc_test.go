//go:build linux

package ipc

import (
	"errors"
	"os"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"shmchan/shm"
)

type testMessage struct {
	ID    uint64
	Value float64
}

func chanName(tag string) string {
	return "shmchan_ipc_" + tag + "_" + strconv.Itoa(os.Getpid())
}

// TestMain dispatches helper-process roles before the normal test runner
// takes over.
func TestMain(m *testing.M) {
	switch os.Getenv("SHMCHAN_HELPER") {
	case "":
		os.Exit(m.Run())
	case "queue_receiver":
		os.Exit(runQueueReceiver(os.Getenv("SHMCHAN_NAME")))
	case "snapshot_subscriber":
		os.Exit(runSnapshotSubscriber(os.Getenv("SHMCHAN_NAME")))
	default:
		os.Exit(2)
	}
}

// runQueueReceiver is the child side of the cross-process FIFO scenario:
// attach, read one message, exit 0 iff both fields match.
func runQueueReceiver(name string) int {
	rx, err := NewReceiver[testMessage](name, 16, shm.Options{})
	if err != nil {
		return 1
	}
	defer rx.Close()
	var msg testMessage
	if !rx.ReceiveTimeout(&msg, 5*time.Second) {
		return 1
	}
	if msg.ID != 12345 || msg.Value != 3.14 {
		return 1
	}
	return 0
}

// runSnapshotSubscriber is the child side of the conflation scenario: fetch
// in a loop, require monotonically non-decreasing values, exit 0 once the
// terminal value lands.
func runSnapshotSubscriber(name string) int {
	sub, err := NewSubscriber[uint64](name, shm.Options{})
	if err != nil {
		return 1
	}
	defer sub.Close()
	deadline := time.Now().Add(10 * time.Second)
	var last uint64
	for last != 9999 {
		if time.Now().After(deadline) {
			return 1
		}
		v := sub.Fetch()
		if v < last {
			return 1
		}
		last = v
	}
	return 0
}

func spawnHelper(t *testing.T, role, name string) *exec.Cmd {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run=TestMain")
	cmd.Env = append(os.Environ(),
		"SHMCHAN_HELPER="+role,
		"SHMCHAN_NAME="+name)
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	return cmd
}

// TestQueueAcrossProcesses is the fork scenario: this process owns the
// sender, a re-executed child attaches the receiver and verifies the
// payload.
func TestQueueAcrossProcesses(t *testing.T) {
	name := chanName("queue")
	tx, err := NewSender[testMessage](name, 16, shm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Close()

	cmd := spawnHelper(t, "queue_receiver", name)
	tx.Send(testMessage{ID: 12345, Value: 3.14})

	if err := cmd.Wait(); err != nil {
		t.Fatalf("receiver process failed: %v", err)
	}
}

// TestSnapshotConflationAcrossProcesses publishes 0..9999 while a child
// subscriber requires monotone fetches ending at 9999.
func TestSnapshotConflationAcrossProcesses(t *testing.T) {
	name := chanName("snap")
	pub, err := NewPublisher[uint64](name, shm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	cmd := spawnHelper(t, "snapshot_subscriber", name)
	for i := uint64(0); i <= 9999; i++ {
		pub.Publish(i)
	}
	if err := cmd.Wait(); err != nil {
		t.Fatalf("subscriber process failed: %v", err)
	}
}

// TestQueueOwnerUserInProcess wires both endpoints through separate
// mappings of the same segment inside one process.
func TestQueueOwnerUserInProcess(t *testing.T) {
	name := chanName("inproc")
	tx, err := NewSender[testMessage](name, 8, shm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Close()
	if tx.Name() != name {
		t.Fatalf("Name = %q", tx.Name())
	}

	rx, err := NewReceiver[testMessage](name, 8, shm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer rx.Close()

	var g errgroup.Group
	g.Go(func() error {
		for i := uint64(0); i < 1000; i++ {
			tx.Send(testMessage{ID: i, Value: float64(i)})
		}
		return nil
	})
	for i := uint64(0); i < 1000; i++ {
		msg := rx.Receive()
		if msg.ID != i {
			t.Fatalf("position %d: got id %d", i, msg.ID)
		}
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestReceiverWithoutSenderFails(t *testing.T) {
	_, err := NewReceiver[uint64](chanName("orphan"), 8, shm.Options{})
	if !errors.Is(err, shm.ErrNotExist) {
		t.Fatalf("err = %v, want ErrNotExist", err)
	}
}

func TestSenderCloseUnlinksChannel(t *testing.T) {
	name := chanName("unlink")
	tx, err := NewSender[uint64](name, 8, shm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := tx.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := NewReceiver[uint64](name, 8, shm.Options{}); !errors.Is(err, shm.ErrNotExist) {
		t.Fatalf("attach after owner close = %v, want ErrNotExist", err)
	}
}

func TestBufferedSnapshotInProcess(t *testing.T) {
	name := chanName("buffered")
	pub, err := NewBufferedPublisher[uint64](name, 8, shm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	sub, err := NewBufferedSubscriber[uint64](name, 8, shm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()
	if sub.Depth() != 8 {
		t.Fatalf("Depth = %d", sub.Depth())
	}

	for i := uint64(1); i <= 100; i++ {
		pub.Publish(i)
		if got := sub.Fetch(); got != i {
			t.Fatalf("fetch after publish %d = %d", i, got)
		}
	}
}

func TestSnapshotVisitAcrossMappings(t *testing.T) {
	type book struct{ Bid, Ask float64 }
	name := chanName("visit")
	pub, err := NewPublisher[book](name, shm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()
	sub, err := NewSubscriber[book](name, shm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	pub.PublishVisit(func(b *book) { b.Bid, b.Ask = 10, 12 })
	var mid float64
	sub.FetchVisit(func(b *book) { mid = (b.Bid + b.Ask) / 2 })
	if mid != 11 {
		t.Fatalf("mid = %f", mid)
	}
}

func TestAttachCapacityMismatchPanics(t *testing.T) {
	name := chanName("mismatch")
	tx, err := NewSender[uint64](name, 16, shm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer tx.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("attach with a different capacity should panic on the mask check")
		}
	}()
	_, _ = NewReceiver[uint64](name, 8, shm.Options{})
}
