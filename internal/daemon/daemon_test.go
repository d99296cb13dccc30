package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestStatusNotRunning(t *testing.T) {
	t.Parallel()
	st, err := Status(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Running {
		t.Fatalf("status = %+v, want not running", st)
	}
}

func TestStatusStalePidFile(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	if err := os.MkdirAll(protectedDir(home), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// A pid that cannot exist on this system.
	if err := os.WriteFile(pidPath(home), []byte("99999999\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}

	st, err := Status(context.Background(), home)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Running {
		t.Fatalf("stale pid reported running: %+v", st)
	}
	// The stale pid file gets cleaned up.
	if _, err := os.Stat(pidPath(home)); !os.IsNotExist(err) {
		t.Fatalf("stale pid file still present: %v", err)
	}
}

func TestStatusRunningProcess(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	if err := os.MkdirAll(protectedDir(home), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Our own pid definitely exists.
	pid := os.Getpid()
	if err := os.WriteFile(pidPath(home), []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		t.Fatalf("write pid: %v", err)
	}
	if err := os.WriteFile(addrPath(home), []byte("0.0.0.0:3584\n"), 0o644); err != nil {
		t.Fatalf("write addr: %v", err)
	}

	st, err := Status(context.Background(), home)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Running || st.PID != pid || st.Addr != "0.0.0.0:3584" {
		t.Fatalf("status = %+v", st)
	}
}

func TestStopWhenNotRunning(t *testing.T) {
	t.Parallel()
	stopped, err := Stop(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if stopped {
		t.Fatal("Stop reported success with no daemon")
	}
}

func TestPaths(t *testing.T) {
	t.Parallel()
	home := "/srv/optishift"
	if got := pidPath(home); got != filepath.Join(home, "protected", "daemon.pid") {
		t.Fatalf("pidPath = %q", got)
	}
	if got := lockPath(home); got != filepath.Join(home, "protected", "daemon.lock") {
		t.Fatalf("lockPath = %q", got)
	}
	if got := addrPath(home); got != filepath.Join(home, "protected", "daemon.addr") {
		t.Fatalf("addrPath = %q", got)
	}
}

func TestAcquireLockExcludes(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	if err := os.MkdirAll(protectedDir(home), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	lock, err := acquireLock(lockPath(home))
	if err != nil {
		t.Fatalf("acquireLock: %v", err)
	}
	defer lock.release()

	if _, err := acquireLock(lockPath(home)); err == nil {
		t.Fatal("second lock acquisition should fail while held")
	}
}
