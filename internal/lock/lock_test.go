package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formweave.lock")

	if err := Acquire(path); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	held, pid, err := IsHeld(path)
	if err != nil {
		t.Fatalf("IsHeld: %v", err)
	}
	if !held || pid != os.Getpid() {
		t.Errorf("held = %v, pid = %d, want this process", held, pid)
	}

	// A second server must be refused while we hold the lock.
	if err := Acquire(path); err == nil {
		t.Error("expected second Acquire to fail")
	}

	if err := Release(path); err != nil {
		t.Fatalf("Release: %v", err)
	}
	held, _, err = IsHeld(path)
	if err != nil {
		t.Fatalf("IsHeld after release: %v", err)
	}
	if held {
		t.Error("lock still held after release")
	}
}

func TestAcquireTakesOverStaleLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formweave.lock")

	// PIDs wrap well below this on Linux, so the process cannot exist.
	if err := os.WriteFile(path, []byte(strconv.Itoa(1<<30)), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Acquire(path); err != nil {
		t.Fatalf("Acquire over stale lock: %v", err)
	}
	t.Cleanup(func() { Release(path) })

	held, pid, err := IsHeld(path)
	if err != nil {
		t.Fatalf("IsHeld: %v", err)
	}
	if !held || pid != os.Getpid() {
		t.Errorf("held = %v, pid = %d, want takeover by this process", held, pid)
	}
}

func TestReleaseMissingLockIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "formweave.lock")
	if err := Release(path); err != nil {
		t.Errorf("Release on missing lock: %v", err)
	}
}
