package filelock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"k8s.io/apimachinery/pkg/util/wait"
)

// DefaultPollInterval is the interval between non-blocking lock attempts.
// 50ms keeps the wait after the holder releases short without busy-polling.
const DefaultPollInterval = 50 * time.Millisecond

// DefaultPerm is the permission of newly created lock files. Lock files are
// opened read-only, so read access is all another cache user needs.
const DefaultPerm fs.FileMode = 0o644

// Mode is the lock mode currently held.
type Mode int

const (
	// Unlocked holds no lock.
	Unlocked Mode = iota
	// Shared is a read lock; any number of holders may coexist.
	Shared
	// Exclusive is a write lock; it excludes every other holder.
	Exclusive
)

func (m Mode) String() string {
	switch m {
	case Unlocked:
		return "unlocked"
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Options tunes lock acquisition. The zero value polls every
// DefaultPollInterval with no timeout and logs through slog.Default().
type Options struct {
	PollInterval time.Duration
	// Timeout bounds a single acquisition. Zero waits until ctx ends.
	Timeout time.Duration
	Perm    fs.FileMode
	Logger  *slog.Logger
}

// Lock is an advisory lock on one file path.
type Lock struct {
	fl   *flock.Flock
	mode Mode
	opts Options
	log  *slog.Logger
}

// New returns an unlocked Lock for path. The file is created on first
// acquisition; its parent directory must exist by then.
func New(path string, opts Options) *Lock {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Perm == 0 {
		opts.Perm = DefaultPerm
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Lock{
		fl:   flock.New(path, flock.SetPermissions(opts.Perm)),
		opts: opts,
		log:  log,
	}
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.fl.Path() }

// Mode returns the mode currently held.
func (l *Lock) Mode() Mode { return l.mode }

// ReadLock blocks until a shared lock is held. It is a no-op when a shared
// lock is already held and downgrades an exclusive lock.
func (l *Lock) ReadLock(ctx context.Context) error {
	return l.acquire(ctx, Shared)
}

// WriteLock blocks until an exclusive lock is held. It is a no-op when an
// exclusive lock is already held and upgrades a shared lock.
func (l *Lock) WriteLock(ctx context.Context) error {
	return l.acquire(ctx, Exclusive)
}

func (l *Lock) acquire(ctx context.Context, want Mode) error {
	if l.mode == want {
		return nil
	}
	if err := context.Cause(ctx); err != nil {
		return fmt.Errorf("acquire %s lock %s: %w", want, l.Path(), err)
	}
	if l.mode != Unlocked {
		if err := l.Unlock(); err != nil {
			return err
		}
	}

	try := l.fl.TryLock
	if want == Shared {
		try = l.fl.TryRLock
	}

	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	contended := false
	err := wait.PollUntilContextCancel(ctx, l.opts.PollInterval, true,
		func(context.Context) (bool, error) {
			ok, err := try()
			if err != nil {
				return false, err
			}
			if !ok && !contended {
				contended = true
				l.log.Debug("lock is currently held, waiting", "path", l.Path(), "mode", want.String())
			}
			return ok, nil
		})
	if err != nil {
		if wait.Interrupted(err) {
			if cause := context.Cause(ctx); cause != nil {
				err = cause
			}
			return fmt.Errorf("acquire %s lock %s after %s: %w",
				want, l.Path(), time.Since(start).Round(time.Millisecond), err)
		}
		return fmt.Errorf("acquire %s lock %s: %w", want, l.Path(), err)
	}

	if contended {
		l.log.Debug("lock acquired after waiting",
			"path", l.Path(), "mode", want.String(), "waited", time.Since(start).Round(time.Millisecond))
	}
	l.mode = want
	return nil
}

// Unlock releases whatever mode is held and closes the file descriptor. It
// is a no-op on an unlocked Lock. The lock file stays on disk.
func (l *Lock) Unlock() error {
	if l.mode == Unlocked {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.Path(), err)
	}
	l.mode = Unlocked
	return nil
}

// Close releases any held lock. A Lock may be reused after Close.
func (l *Lock) Close() error {
	err := l.Unlock()
	if closeErr := l.fl.Close(); closeErr != nil && err == nil {
		err = fmt.Errorf("close lock %s: %w", l.Path(), closeErr)
	}
	return err
}

// IsTimeout reports whether err came from a lock acquisition that ran out of
// time, either through Options.Timeout or a context deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
