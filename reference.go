package diskcache

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/giantswarm/diskcache/internal/filelock"
)

// Reference is a handle on one cache key. It is created unacquired by
// Cache.Lookup; Acquire enables the locked operations and Release gives the
// lock back. A Reference is not safe for concurrent use; goroutines that
// share a key should each Lookup their own.
//
// Writers (Assign, AssignText, Remove and populating SetDefault) hold the
// key's exclusive lock only for the duration of the mutation. Exists and
// SetDefault with lock set leave a shared lock held until Release, which
// keeps the entry stable while the caller reads it.
type Reference struct {
	cache *Cache
	key   Key
	path  string
	lock  *filelock.Lock

	acquired   bool
	readLocked bool
}

// Key returns a copy of the reference's key.
func (r *Reference) Key() Key { return slices.Clone(r.key) }

// Path returns the entry path. The entry may not exist.
func (r *Reference) Path() string { return r.path }

// Acquired reports whether Acquire has been called without a matching
// Release.
func (r *Reference) Acquired() bool { return r.acquired }

// ReadLocked reports whether the reference currently holds the shared lock.
func (r *Reference) ReadLocked() bool { return r.readLocked }

// Acquire prepares the key's lock file location and marks the reference
// acquired. It takes no lock itself.
func (r *Reference) Acquire(ctx context.Context) error {
	if r.acquired {
		return fmt.Errorf("acquire %s: %w", r.key, ErrAlreadyAcquired)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("acquire %s: %w", r.key, err)
	}
	if err := r.cache.ensureLockDir(r.lock); err != nil {
		return fmt.Errorf("acquire %s: %w", r.key, err)
	}
	r.acquired = true
	return nil
}

// Release drops any held lock and marks the reference unacquired.
func (r *Reference) Release() error {
	if !r.acquired {
		return fmt.Errorf("release %s: %w", r.key, ErrNotAcquired)
	}
	r.acquired = false
	r.readLocked = false
	if err := r.lock.Close(); err != nil {
		return fmt.Errorf("release %s: %w", r.key, err)
	}
	return nil
}

// Do acquires the reference, runs fn and releases it, also when fn panics.
// A release failure is joined with fn's error.
func (r *Reference) Do(ctx context.Context, fn func(*Reference) error) (retErr error) {
	if err := r.Acquire(ctx); err != nil {
		return err
	}
	defer func() {
		if err := r.Release(); err != nil {
			retErr = errors.Join(retErr, err)
		}
	}()
	return fn(r)
}

// Exists reports whether the entry is populated. With lock set it first
// takes the shared lock, which stays held until Release or the next write;
// this requires an acquired reference.
func (r *Reference) Exists(ctx context.Context, lock bool) (bool, error) {
	if lock {
		if err := r.readLock(ctx); err != nil {
			return false, err
		}
	}
	return r.cache.keyExists(r.key)
}

// SetDefault populates the entry from defaultSource unless it already
// exists, and reports whether this call populated it. Presence is checked
// again under the write lock, so among concurrent callers exactly one
// populates. With lock set the shared lock is held on return.
func (r *Reference) SetDefault(ctx context.Context, defaultSource string, lock bool, opts ...AssignOption) (bool, error) {
	exists, err := r.Exists(ctx, lock)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	var populated bool
	err = r.withWriteLock(ctx, func() error {
		exists, err := r.cache.keyExists(r.key)
		if err != nil || exists {
			return err
		}
		if err := r.cache.populate(ctx, r.key, defaultSource, newFetchOptions(opts)); err != nil {
			return err
		}
		populated = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if lock {
		if err := r.readLock(ctx); err != nil {
			return populated, err
		}
	}
	return populated, nil
}

// Assign replaces the entry with source, interpreted by the cache's
// strategy: a local path, a URL or an archive URL.
func (r *Reference) Assign(ctx context.Context, source string, opts ...AssignOption) error {
	return r.withWriteLock(ctx, func() error {
		return r.cache.populate(ctx, r.key, source, newFetchOptions(opts))
	})
}

// AssignText replaces the entry with a regular file containing text.
func (r *Reference) AssignText(ctx context.Context, text string) error {
	return r.withWriteLock(ctx, func() error {
		return r.cache.insertText(r.key, text)
	})
}

// Remove deletes the entry if present. The lock file is kept.
func (r *Reference) Remove(ctx context.Context) error {
	return r.withWriteLock(ctx, func() error {
		return r.cache.remove(r.key)
	})
}

func (r *Reference) readLock(ctx context.Context) error {
	if !r.acquired {
		return fmt.Errorf("read lock %s: %w", r.key, ErrNotAcquired)
	}
	if err := r.lock.ReadLock(ctx); err != nil {
		return fmt.Errorf("read lock %s: %w", r.key, err)
	}
	r.readLocked = true
	return nil
}

// withWriteLock runs fn under the exclusive lock and unlocks afterwards. Any
// shared lock held before is given up.
func (r *Reference) withWriteLock(ctx context.Context, fn func() error) (retErr error) {
	if !r.acquired {
		return fmt.Errorf("write lock %s: %w", r.key, ErrNotAcquired)
	}
	r.readLocked = false
	if err := r.lock.WriteLock(ctx); err != nil {
		return fmt.Errorf("write lock %s: %w", r.key, err)
	}
	defer func() {
		if err := r.lock.Unlock(); err != nil {
			retErr = errors.Join(retErr, err)
		}
	}()
	return fn()
}
