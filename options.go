package diskcache

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"google.golang.org/api/option"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("diskcache: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("diskcache: %s must not be empty", name))
	}
}

// requireNonNil panics if v is nil with a descriptive message.
func requireNonNil[T any](name string, v *T) {
	if v == nil {
		panic(fmt.Sprintf("diskcache: %s must not be nil", name))
	}
}

// Option configures a Cache during construction via New.
//
// Options panic on invalid input (empty suffixes, non-positive durations,
// nil collaborators). Option values are typically constants, so an invalid
// value is a programmer error; failing at the call site beats an error that
// every caller would treat as fatal anyway.
type Option func(*config)

// WithStrategy sets the population strategy. NewRemote and NewTarball set it
// for you.
//
// Default: StrategyLocal.
//
// Panics if s is not a recognized Strategy.
func WithStrategy(s Strategy) Option {
	if !s.IsValid() {
		panic(fmt.Sprintf("diskcache: invalid strategy: %v", s))
	}
	return func(c *config) {
		c.strategy = s
	}
}

// WithLockSuffix sets the suffix that turns an entry path into its lock file
// path. All processes sharing a cache root must agree on it.
//
// Default: ".lock".
//
// Panics if suffix is empty or contains '/' or '+'.
func WithLockSuffix(suffix string) Option {
	requireNonEmpty("lock suffix", suffix)
	if strings.ContainsAny(suffix, "/+") {
		panic(fmt.Sprintf("diskcache: lock suffix must not contain '/' or '+', got %q", suffix))
	}
	return func(c *config) {
		c.lockSuffix = suffix
	}
}

// WithCacheUser hands directories the cache creates to uid:gid when the
// process runs as root, so a cache populated under sudo stays writable for
// the unprivileged user. Without it, a root process falls back to
// SUDO_UID/SUDO_GID. Non-root processes never chown.
//
// Panics if uid or gid is negative.
func WithCacheUser(uid, gid int) Option {
	if uid < 0 || gid < 0 {
		panic(fmt.Sprintf("diskcache: cache user ids must not be negative, got %d:%d", uid, gid))
	}
	return func(c *config) {
		c.cacheUser = &owner{uid: uid, gid: gid}
	}
}

// WithLockTimeout bounds every single lock acquisition. Without it a lock
// waits until the caller's context ends.
//
// Panics if d <= 0.
func WithLockTimeout(d time.Duration) Option {
	requirePositive("lock timeout", d)
	return func(c *config) {
		c.lockTimeout = d
	}
}

// WithLockPollInterval sets how often a contended lock is retried.
//
// Default: 50 milliseconds.
//
// Panics if d <= 0.
func WithLockPollInterval(d time.Duration) Option {
	requirePositive("lock poll interval", d)
	return func(c *config) {
		c.lockPollInterval = d
	}
}

// WithStatConcurrency caps the parallel stat calls DeleteStale makes.
//
// Default: 8.
//
// Panics if n <= 0.
func WithStatConcurrency(n int) Option {
	requirePositive("stat concurrency", n)
	return func(c *config) {
		c.statConcurrency = n
	}
}

// WithLogger sets the logger for this cache, overriding the package-level
// logger installed with SetLogger.
//
// Panics if l is nil.
func WithLogger(l *slog.Logger) Option {
	requireNonNil("logger", l)
	return func(c *config) {
		c.logger = l
	}
}

// WithHTTPFetcher replaces the HTTP downloader used for http(s) sources.
//
// Panics if f is nil.
func WithHTTPFetcher(f HTTPFetcher) Option {
	if f == nil {
		panic("diskcache: HTTP fetcher must not be nil")
	}
	return func(c *config) {
		c.httpFetcher = f
	}
}

// WithHTTPClient sets the http.Client used by the default HTTP downloader.
// It has no effect together with WithHTTPFetcher.
//
// Panics if hc is nil.
func WithHTTPClient(hc *http.Client) Option {
	requireNonNil("HTTP client", hc)
	return func(c *config) {
		c.httpClient = hc
	}
}

// WithStorageClient replaces the Cloud Storage client used for gs:// sources.
//
// Panics if s is nil.
func WithStorageClient(s StorageClient) Option {
	if s == nil {
		panic("diskcache: storage client must not be nil")
	}
	return func(c *config) {
		c.storageClient = s
	}
}

// WithGCSClientOptions passes options to the default Cloud Storage client,
// e.g. option.WithCredentialsFile or option.WithoutAuthentication. It has no
// effect together with WithStorageClient.
func WithGCSClientOptions(opts ...option.ClientOption) Option {
	return func(c *config) {
		c.gcsOptions = append(c.gcsOptions, opts...)
	}
}

// WithExtractor replaces the archive extractor used by StrategyTarball, e.g.
// with NativeExtractor{} on hosts without tar.
//
// Panics if e is nil.
func WithExtractor(e Extractor) Option {
	if e == nil {
		panic("diskcache: extractor must not be nil")
	}
	return func(c *config) {
		c.extractor = e
	}
}

// WithSudoExtract runs the default tar extractor through "sudo -n" so
// archives containing root-owned files keep their ownership. It has no
// effect together with WithExtractor.
func WithSudoExtract() Option {
	return func(c *config) {
		c.sudoExtract = true
	}
}

// resolveOwner returns the owner for newly created directories: the
// configured cache user, else SUDO_UID/SUDO_GID, and only when running as
// root.
func resolveOwner(cfg config, euid int, getenv func(string) string) *owner {
	if euid != 0 {
		return nil
	}
	if cfg.cacheUser != nil {
		return cfg.cacheUser
	}
	var uid, gid int
	if _, err := fmt.Sscan(getenv("SUDO_UID"), &uid); err != nil {
		return nil
	}
	if _, err := fmt.Sscan(getenv("SUDO_GID"), &gid); err != nil {
		gid = uid
	}
	if uid <= 0 {
		return nil
	}
	return &owner{uid: uid, gid: gid}
}

var getenv = os.Getenv
