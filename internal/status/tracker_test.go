package status

import "testing"

func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()

	snap := tr.Snapshot()
	if snap.Stage != StageIdle {
		t.Fatalf("new tracker stage = %q, want idle", snap.Stage)
	}
	if snap.UpdatedAt.IsZero() {
		t.Fatal("new tracker should have a timestamp")
	}

	tr.Set(StageLoggingIn, "authenticating")
	snap = tr.Snapshot()
	if snap.Stage != StageLoggingIn || snap.Message != "authenticating" {
		t.Fatalf("snapshot = %+v", snap)
	}

	tr.Set(StageError, "portal unreachable")
	if got := tr.Snapshot().Stage; got != StageError {
		t.Fatalf("stage = %q, want error", got)
	}

	tr.Reset()
	snap = tr.Snapshot()
	if snap.Stage != StageIdle || snap.Message != "" {
		t.Fatalf("after reset: %+v", snap)
	}
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tr := NewTracker()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			tr.Set(StageParsing, "row batch")
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		_ = tr.Snapshot()
	}
	<-done
}
