package offload

import (
	"fmt"
	"os"
	"testing"
	"time"
)

// waitUntil polls cond until it holds or the deadline passes
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not reached within %v: %s", timeout, msg)
}

func TestDispatcher_UploadsQueuedArtifacts(t *testing.T) {
	store := &fakeStore{}
	uploader := NewUploader(store, "test-bucket", false)
	d := NewDispatcher(uploader, 2, 8)
	defer d.Stop()

	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		artifact := stagedFile(t, dir, fmt.Sprintf("frame%d.jpg", i))
		if !d.Dispatch(artifact) {
			t.Fatalf("Dispatch() rejected artifact %d with a free queue", i)
		}
	}

	waitUntil(t, 2*time.Second, func() bool { return store.count() == 5 },
		"all dispatched artifacts uploaded")

	stats := d.Stats()
	if stats.Enqueued != 5 || stats.Uploaded != 5 || stats.Dropped != 0 {
		t.Errorf("Stats() = %+v, want 5 enqueued, 5 uploaded, 0 dropped", stats)
	}

	// Successful uploads remove their staged files
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read staging dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("%d staged files left after uploads, want 0", len(entries))
	}
}

func TestDispatcher_FullQueueDropsWithoutBlocking(t *testing.T) {
	store := &fakeStore{delay: 300 * time.Millisecond}
	uploader := NewUploader(store, "test-bucket", false)
	d := NewDispatcher(uploader, 1, 1)
	defer d.Stop()

	dir := t.TempDir()
	accepted, droppedCount := 0, 0

	start := time.Now()
	for i := 0; i < 6; i++ {
		artifact := stagedFile(t, dir, fmt.Sprintf("burst%d.jpg", i))
		if d.Dispatch(artifact) {
			accepted++
		} else {
			droppedCount++
		}
	}
	elapsed := time.Since(start)

	// The sampling path must never wait on upload latency
	if elapsed > 100*time.Millisecond {
		t.Errorf("6 dispatches took %v, expected no blocking", elapsed)
	}
	if droppedCount == 0 {
		t.Error("expected drops with a slow store and a 1-deep queue, got none")
	}
	if stats := d.Stats(); stats.Dropped != uint64(droppedCount) {
		t.Errorf("Stats().Dropped = %d, want %d", stats.Dropped, droppedCount)
	}

	// Dropped artifacts keep their staged files for the shutdown sweep
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read staging dir: %v", err)
	}
	if len(entries) < droppedCount {
		t.Errorf("%d files left, want at least the %d dropped", len(entries), droppedCount)
	}
}

func TestDispatcher_StopAbortsInFlightUploads(t *testing.T) {
	store := &fakeStore{delay: 10 * time.Second}
	uploader := NewUploader(store, "test-bucket", false)
	d := NewDispatcher(uploader, 1, 4)

	d.Dispatch(stagedFile(t, t.TempDir(), "slow.jpg"))

	// Give the worker time to start the upload
	time.Sleep(50 * time.Millisecond)

	start := time.Now()
	d.Stop()
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Stop() took %v, expected in-flight upload aborted via context", elapsed)
	}

	if stats := d.Stats(); stats.Uploaded != 0 {
		t.Errorf("Stats().Uploaded = %d after aborted upload, want 0", stats.Uploaded)
	}
}

func TestDispatcher_DispatchAfterStopDrops(t *testing.T) {
	store := &fakeStore{}
	uploader := NewUploader(store, "test-bucket", false)
	d := NewDispatcher(uploader, 1, 4)
	d.Stop()

	if d.Dispatch(stagedFile(t, t.TempDir(), "late.jpg")) {
		t.Error("Dispatch() accepted an artifact after Stop()")
	}
	if stats := d.Stats(); stats.Dropped != 1 {
		t.Errorf("Stats().Dropped = %d, want 1", stats.Dropped)
	}
}

func TestDispatcher_StopIdempotent(t *testing.T) {
	store := &fakeStore{}
	uploader := NewUploader(store, "test-bucket", false)
	d := NewDispatcher(uploader, 2, 4)

	d.Stop()
	d.Stop() // second Stop must be a quiet no-op
}
