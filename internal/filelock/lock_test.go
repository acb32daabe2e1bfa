package filelock

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func newLock(t *testing.T, path string) *Lock {
	t.Helper()
	l := New(path, Options{PollInterval: 5 * time.Millisecond})
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func shortCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	t.Cleanup(cancel)
	return ctx
}

func TestLock_ModeTransitions(t *testing.T) {
	t.Parallel()
	l := newLock(t, filepath.Join(t.TempDir(), "sdk.lock"))
	ctx := context.Background()

	if l.Mode() != Unlocked {
		t.Fatalf("initial mode = %s, want unlocked", l.Mode())
	}
	steps := []struct {
		do   func(context.Context) error
		want Mode
	}{
		{l.ReadLock, Shared},
		{l.ReadLock, Shared},
		{l.WriteLock, Exclusive},
		{l.WriteLock, Exclusive},
		{l.ReadLock, Shared},
	}
	for i, s := range steps {
		if err := s.do(ctx); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if l.Mode() != s.want {
			t.Fatalf("step %d: mode = %s, want %s", i, l.Mode(), s.want)
		}
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock() error: %v", err)
	}
	if l.Mode() != Unlocked {
		t.Errorf("mode after Unlock = %s, want unlocked", l.Mode())
	}
}

func TestLock_Exclusion(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		holder  func(*Lock, context.Context) error
		waiter  func(*Lock, context.Context) error
		blocked bool
	}{
		"shared allows shared": {
			holder:  (*Lock).ReadLock,
			waiter:  (*Lock).ReadLock,
			blocked: false,
		},
		"shared blocks exclusive": {
			holder:  (*Lock).ReadLock,
			waiter:  (*Lock).WriteLock,
			blocked: true,
		},
		"exclusive blocks shared": {
			holder:  (*Lock).WriteLock,
			waiter:  (*Lock).ReadLock,
			blocked: true,
		},
		"exclusive blocks exclusive": {
			holder:  (*Lock).WriteLock,
			waiter:  (*Lock).WriteLock,
			blocked: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "key.lock")
			holder := newLock(t, path)
			waiter := newLock(t, path)

			if err := tc.holder(holder, context.Background()); err != nil {
				t.Fatalf("holder: %v", err)
			}

			err := tc.waiter(waiter, shortCtx(t))
			if tc.blocked {
				if !IsTimeout(err) {
					t.Fatalf("waiter error = %v, want deadline exceeded", err)
				}
				if waiter.Mode() != Unlocked {
					t.Errorf("waiter mode = %s after failed acquisition, want unlocked", waiter.Mode())
				}
				return
			}
			if err != nil {
				t.Fatalf("waiter: %v", err)
			}
		})
	}
}

func TestLock_WaitsForRelease(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "key.lock")
	holder := newLock(t, path)

	var logBuf bytes.Buffer
	var logMu sync.Mutex
	waiter := New(path, Options{
		PollInterval: 5 * time.Millisecond,
		Logger:       slog.New(slog.NewTextHandler(&lockedWriter{w: &logBuf, mu: &logMu}, &slog.HandlerOptions{Level: slog.LevelDebug})),
	})
	t.Cleanup(func() { _ = waiter.Close() })

	if err := holder.WriteLock(context.Background()); err != nil {
		t.Fatalf("holder: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- waiter.WriteLock(context.Background()) }()

	select {
	case err := <-done:
		t.Fatalf("waiter acquired while holder held the lock: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	if err := holder.Unlock(); err != nil {
		t.Fatalf("holder unlock: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("waiter: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("waiter did not acquire after release")
	}

	logMu.Lock()
	out := logBuf.String()
	logMu.Unlock()
	if got := strings.Count(out, "lock is currently held"); got != 1 {
		t.Errorf("contention logged %d times, want 1; log:\n%s", got, out)
	}
}

func TestLock_Timeout(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "key.lock")
	holder := newLock(t, path)
	waiter := New(path, Options{PollInterval: 5 * time.Millisecond, Timeout: 50 * time.Millisecond})
	t.Cleanup(func() { _ = waiter.Close() })

	if err := holder.WriteLock(context.Background()); err != nil {
		t.Fatalf("holder: %v", err)
	}

	err := waiter.ReadLock(context.Background())
	if !IsTimeout(err) {
		t.Fatalf("ReadLock() error = %v, want timeout", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the lock path", err)
	}
}

func TestLock_CanceledContext(t *testing.T) {
	t.Parallel()
	l := newLock(t, filepath.Join(t.TempDir(), "key.lock"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.WriteLock(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("WriteLock() error = %v, want %v", err, context.Canceled)
	}
	if l.Mode() != Unlocked {
		t.Errorf("mode = %s, want unlocked", l.Mode())
	}
}

func TestLock_MissingParent(t *testing.T) {
	t.Parallel()
	l := newLock(t, filepath.Join(t.TempDir(), "missing", "key.lock"))

	if err := l.ReadLock(context.Background()); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadLock() error = %v, want %v", err, fs.ErrNotExist)
	}
}

func TestLock_FileKeptAfterClose(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "key.lock")
	l := New(path, Options{})

	if err := l.WriteLock(context.Background()); err != nil {
		t.Fatalf("WriteLock() error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("lock file removed by Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
}

func TestMode_String(t *testing.T) {
	t.Parallel()

	tests := map[Mode]string{
		Unlocked:  "unlocked",
		Shared:    "shared",
		Exclusive: "exclusive",
		Mode(9):   "Mode(9)",
	}
	for m, want := range tests {
		if got := m.String(); got != want {
			t.Errorf("Mode(%d).String() = %q, want %q", int(m), got, want)
		}
	}
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
