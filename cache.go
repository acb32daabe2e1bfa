package diskcache

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/diskcache/internal/archive"
	"github.com/giantswarm/diskcache/internal/fetch"
	"github.com/giantswarm/diskcache/internal/filelock"
	"github.com/giantswarm/diskcache/internal/fileutil"
	"github.com/giantswarm/diskcache/internal/logging"
)

// Cache is a directory of entries addressed by keys. Entries are files or
// directory trees; each has a sibling lock file that serializes writers
// across processes. An entry becomes visible through a single rename, so
// readers never observe a partially populated entry.
//
// A Cache is safe for concurrent use by multiple goroutines. Each goroutine
// should use its own Reference.
type Cache struct {
	root    string
	staging string
	cfg     config
	owner   *fileutil.Owner
	log     *slog.Logger
	pop     populator

	httpFetcher   HTTPFetcher
	storageClient StorageClient
	extractor     Extractor

	// ownedGCS is the lazily built default storage client; Close releases it.
	ownedGCS  *fetch.GCSClient
	closeOnce sync.Once
}

// New creates a cache rooted at root. The root and its staging directory are
// created if needed; when running as root they are handed to the cache user
// (see WithCacheUser). Invalid option combinations are reported together.
func New(root string, opts ...Option) (*Cache, error) {
	if root == "" {
		return nil, errors.New("cache root must not be empty")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve cache root %s: %w", root, err)
	}

	c := &Cache{
		root:    abs,
		staging: filepath.Join(abs, cfg.stagingName),
		cfg:     cfg,
		log:     logging.Or(cfg.logger),
	}
	if o := resolveOwner(cfg, os.Geteuid(), getenv); o != nil {
		c.owner = &fileutil.Owner{UID: o.uid, GID: o.gid}
	}

	if err := fileutil.EnsureDir(c.staging, c.owner); err != nil {
		return nil, fmt.Errorf("create cache directories under %s: %w", abs, err)
	}

	c.httpFetcher = cfg.httpFetcher
	if c.httpFetcher == nil {
		client := cfg.httpClient
		if client == nil {
			client = fetch.NewHTTPClient()
		}
		c.httpFetcher = &fetch.HTTPFetcher{Client: client, Logger: c.log}
	}
	c.storageClient = cfg.storageClient
	if c.storageClient == nil {
		c.ownedGCS = fetch.NewGCSClient(c.log, cfg.gcsOptions...)
		c.storageClient = c.ownedGCS
	}
	c.extractor = cfg.extractor
	if c.extractor == nil {
		c.extractor = archive.TarExtractor{Sudo: cfg.sudoExtract, Logger: c.log}
	}
	c.pop = c.newPopulator(cfg.strategy)

	c.log.Debug("cache opened", "root", abs, "strategy", cfg.strategy.String())
	return c, nil
}

// NewRemote creates a cache whose sources are URLs. It is New with
// WithStrategy(StrategyRemote) applied after opts.
func NewRemote(root string, opts ...Option) (*Cache, error) {
	return New(root, append(opts, WithStrategy(StrategyRemote))...)
}

// NewTarball creates a cache whose sources are archive URLs, cached in
// extracted form. It is New with WithStrategy(StrategyTarball) applied after
// opts.
func NewTarball(root string, opts ...Option) (*Cache, error) {
	return New(root, append(opts, WithStrategy(StrategyTarball))...)
}

// Root returns the absolute cache root.
func (c *Cache) Root() string { return c.root }

// StagingDir returns the directory used for downloads and pending deletes.
func (c *Cache) StagingDir() string { return c.staging }

// Strategy returns the population strategy.
func (c *Cache) Strategy() Strategy { return c.cfg.strategy }

// Close releases the default Cloud Storage client if one was created. It
// does not touch the cache directory.
func (c *Cache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.ownedGCS != nil {
			err = c.ownedGCS.Close()
		}
	})
	return err
}

// Lookup returns an unacquired Reference for key. It performs no I/O.
func (c *Cache) Lookup(key Key) (*Reference, error) {
	p, err := c.KeyPath(key)
	if err != nil {
		return nil, err
	}
	lock, err := c.lockForKey(key)
	if err != nil {
		return nil, err
	}
	return &Reference{
		cache: c,
		key:   slices.Clone(key),
		path:  p,
		lock:  lock,
	}, nil
}

// ListKeys returns the keys of all entries, sorted. An entry counts when it
// exists next to its lock file; lock files left behind by removed entries
// and stray files without a lock are ignored.
func (c *Cache) ListKeys(ctx context.Context) ([]Key, error) {
	dirents, err := os.ReadDir(c.root)
	if err != nil {
		return nil, fmt.Errorf("list keys under %s: %w", c.root, err)
	}

	var keys []Key
	for _, d := range dirents {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("list keys under %s: %w", c.root, err)
		}
		name := d.Name()
		if name == c.cfg.stagingName || strings.HasSuffix(name, c.cfg.lockSuffix) {
			continue
		}
		p := filepath.Join(c.root, name)
		if _, err := os.Lstat(c.lockPath(p)); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("list keys under %s: %w", c.root, err)
		}
		key, err := c.KeyFromPath(p)
		if err != nil {
			c.log.Warn("ignoring unmappable cache path", "path", p, "error", err)
			continue
		}
		keys = append(keys, key)
	}

	slices.SortFunc(keys, func(a, b Key) int {
		return cmp.Compare(a.String(), b.String())
	})
	return keys, nil
}

// lastChange returns the later of the entry's mtime and ctime. ok is false
// when the entry does not exist.
func (c *Cache) lastChange(key Key) (changed time.Time, ok bool, err error) {
	p, err := c.KeyPath(key)
	if err != nil {
		return time.Time{}, false, err
	}
	fi, err := os.Lstat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("stat %s: %w", p, err)
	}
	changed = fi.ModTime()
	if ct := c.cfg.changeTime(fi); ct.After(changed) {
		changed = ct
	}
	return changed, true, nil
}

// DeleteStale removes every entry whose last modification (the later of
// mtime and ctime) is older than maxAge and returns the removed keys. Ages
// are collected in parallel without locks, then checked again under each
// entry's write lock, so an entry refreshed in between survives. Entries
// that vanish while pruning are skipped.
func (c *Cache) DeleteStale(ctx context.Context, maxAge time.Duration) ([]Key, error) {
	if maxAge < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMaxAge, maxAge)
	}
	keys, err := c.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	changed := make([]time.Time, len(keys))
	present := make([]bool, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.statConcurrency)
	for i, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, ok, err := c.lastChange(key)
			changed[i], present[i] = t, ok
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("stat cache entries: %w", err)
	}

	now := c.cfg.now()
	var removed []Key
	for i, key := range keys {
		if !present[i] || now.Sub(changed[i]) <= maxAge {
			continue
		}
		pruned, err := c.removeIfStale(ctx, key, now, maxAge)
		if err != nil {
			return removed, fmt.Errorf("remove stale entry %s: %w", key, err)
		}
		if !pruned {
			c.log.Debug("stale entry was refreshed, keeping it", "key", key.String())
			continue
		}
		c.log.Debug("removed stale entry", "key", key.String(), "modified", humanize.Time(changed[i]))
		removed = append(removed, key)
	}

	if len(removed) > 0 {
		c.log.Info("pruned stale cache entries", "removed", len(removed), "kept", len(keys)-len(removed), "max_age", maxAge)
	}
	return removed, nil
}

// removeIfStale deletes key's entry under its write lock if it is still
// older than maxAge at now.
func (c *Cache) removeIfStale(ctx context.Context, key Key, now time.Time, maxAge time.Duration) (bool, error) {
	ref, err := c.Lookup(key)
	if err != nil {
		return false, err
	}
	var pruned bool
	err = ref.Do(ctx, func(r *Reference) error {
		return r.withWriteLock(ctx, func() error {
			changed, ok, err := c.lastChange(key)
			if err != nil || !ok || now.Sub(changed) <= maxAge {
				return err
			}
			if err := c.remove(key); err != nil {
				return err
			}
			pruned = true
			return nil
		})
	})
	return pruned, err
}

// lockForKey returns an unacquired lock on key's lock file. Its directory
// is created by Reference.Acquire.
func (c *Cache) lockForKey(key Key) (*filelock.Lock, error) {
	p, err := c.KeyPath(key)
	if err != nil {
		return nil, err
	}
	return filelock.New(c.lockPath(p), filelock.Options{
		PollInterval: c.cfg.lockPollInterval,
		Timeout:      c.cfg.lockTimeout,
		Logger:       c.log,
	}), nil
}

// ensureLockDir creates the directories a key's lock file lives in.
func (c *Cache) ensureLockDir(lock *filelock.Lock) error {
	return fileutil.EnsureDirForFile(lock.Path(), c.owner)
}

// keyExists asks the strategy whether key is populated.
func (c *Cache) keyExists(key Key) (bool, error) {
	return c.pop.exists(key)
}

// entryExists reports whether anything, including a dangling symlink, sits
// at key's path.
func (c *Cache) entryExists(key Key) (bool, error) {
	p, err := c.KeyPath(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Lstat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", p, err)
	}
	return true, nil
}

// insert replaces key's entry with source. The previous entry is moved into
// staging before deletion and the final step is a rename, so the entry path
// holds either nothing or a complete entry. Callers hold the write lock.
func (c *Cache) insert(key Key, source string) error {
	p, err := c.KeyPath(key)
	if err != nil {
		return err
	}
	if err := c.remove(key); err != nil {
		return err
	}
	if err := fileutil.EnsureDirForFile(p, c.owner); err != nil {
		return fmt.Errorf("create parent of %s: %w", p, err)
	}
	if err := fileutil.Move(source, p, c.staging); err != nil {
		return fmt.Errorf("insert %s: %w", key, err)
	}
	return nil
}

// insertText stores text as key's entry through a staging temp file. It
// always uses a plain insert: the text is the content, not a source to fetch
// or extract.
func (c *Cache) insertText(key Key, text string) (retErr error) {
	f, err := os.CreateTemp(c.staging, "text-*")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if retErr != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err := f.WriteString(text); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	// CreateTemp uses 0600; entries are meant to be shared.
	if err := os.Chmod(tmp, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	return c.insert(key, tmp)
}

// remove deletes key's entry if present. The lock file stays.
func (c *Cache) remove(key Key) error {
	p, err := c.KeyPath(key)
	if err != nil {
		return err
	}
	if err := fileutil.Discard(p, c.staging); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// populate runs the strategy's insert with an operation id for log
// correlation.
func (c *Cache) populate(ctx context.Context, key Key, source string, opts FetchOptions) error {
	op := uuid.NewString()
	start := time.Now()
	c.log.Debug("populating entry", "op", op, "key", key.String(), "source", source, "strategy", c.cfg.strategy.String())
	if err := c.pop.insert(ctx, key, source, opts); err != nil {
		c.log.Debug("population failed", "op", op, "key", key.String(), "error", err)
		return err
	}
	c.log.Info("populated entry", "op", op, "key", key.String(), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
