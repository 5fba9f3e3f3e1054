//go:build !windows

package resume2pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"
)

// waitPIDFile polls for the helper's PID file.
func waitPIDFile(t *testing.T, path string) int {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
			if err != nil {
				t.Fatalf("bad pid file: %v", err)
			}
			return pid
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("helper never wrote its pid file")
	return 0
}

func assertProcessGone(t *testing.T, pid int) {
	t.Helper()
	if err := syscall.Kill(pid, 0); !errors.Is(err, syscall.ESRCH) {
		t.Errorf("process %d still exists (kill -0: %v)", pid, err)
	}
}

func TestStart_TimeoutLeavesNoProcess(t *testing.T) {
	t.Parallel()

	pidFile := filepath.Join(t.TempDir(), "server.pid")
	opts := helperOptions("stubborn", pidFile)
	opts.StartTimeout = 2 * time.Second
	opts.StopGrace = 200 * time.Millisecond

	_, err := NewServerLauncher(opts, nil).Start(context.Background())
	if !errors.Is(err, ErrServerStartTimeout) {
		t.Fatalf("error = %v, want ErrServerStartTimeout", err)
	}

	assertProcessGone(t, waitPIDFile(t, pidFile))
}

func TestStop_EscalatesToKill(t *testing.T) {
	t.Parallel()

	pidFile := filepath.Join(t.TempDir(), "server.pid")
	opts := helperOptions("stubborn", pidFile)
	opts.StopGrace = 200 * time.Millisecond
	opts.Readiness = ReadinessOutput

	l := NewServerLauncher(opts, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := l.Start(ctx)
		errc <- err
	}()

	pid := waitPIDFile(t, pidFile)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}

	assertProcessGone(t, pid)
}
