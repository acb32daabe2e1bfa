package diskcache

import (
	"io/fs"
	"net/http"
	"time"

	"github.com/giantswarm/diskcache/internal/fetch"
)

// ConfigSnapshot holds a copy of config fields for test assertions.
type ConfigSnapshot struct {
	Strategy         Strategy
	LockSuffix       string
	StagingName      string
	LockTimeout      time.Duration
	LockPollInterval time.Duration
	StatConcurrency  int
	CacheUser        [2]int
	HasCacheUser     bool
	SudoExtract      bool
	HasHTTPFetcher   bool
	HasHTTPClient    bool
	HasStorageClient bool
	HasExtractor     bool
	HasLogger        bool
	GCSOptionCount   int
}

// ApplyOptionsForTesting applies opts to the default config and returns a
// snapshot, so option closures can be checked without building a cache.
func ApplyOptionsForTesting(opts ...Option) ConfigSnapshot {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	s := ConfigSnapshot{
		Strategy:         cfg.strategy,
		LockSuffix:       cfg.lockSuffix,
		StagingName:      cfg.stagingName,
		LockTimeout:      cfg.lockTimeout,
		LockPollInterval: cfg.lockPollInterval,
		StatConcurrency:  cfg.statConcurrency,
		SudoExtract:      cfg.sudoExtract,
		HasHTTPFetcher:   cfg.httpFetcher != nil,
		HasHTTPClient:    cfg.httpClient != nil,
		HasStorageClient: cfg.storageClient != nil,
		HasExtractor:     cfg.extractor != nil,
		HasLogger:        cfg.logger != nil,
		GCSOptionCount:   len(cfg.gcsOptions),
	}
	if cfg.cacheUser != nil {
		s.HasCacheUser = true
		s.CacheUser = [2]int{cfg.cacheUser.uid, cfg.cacheUser.gid}
	}
	return s
}

// ValidateOptionsForTesting runs config validation after applying opts.
func ValidateOptionsForTesting(opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg.Validate()
}

// WithStagingNameForTesting bypasses option validation so Validate can be
// exercised with bad values.
func WithStagingNameForTesting(name string) Option {
	return func(c *config) { c.stagingName = name }
}

// WithClockForTesting replaces the clock and the change-time extractor used
// by DeleteStale. A freshly written file always has a ctime of now, so tests
// that age entries through os.Chtimes read the mtime instead.
func WithClockForTesting(now func() time.Time, changeTime func(fs.FileInfo) time.Time) Option {
	return func(c *config) {
		c.now = now
		c.changeTime = changeTime
	}
}

// ResolveOwnerForTesting exposes owner resolution for a given euid and
// environment. It returns ok=false when no chown would happen.
func ResolveOwnerForTesting(opts []Option, euid int, env map[string]string) (uid, gid int, ok bool) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	o := resolveOwner(cfg, euid, func(k string) string { return env[k] })
	if o == nil {
		return 0, 0, false
	}
	return o.uid, o.gid, true
}

// ChangeTimeForTesting exposes the platform change-time lookup.
func ChangeTimeForTesting(fi fs.FileInfo) time.Time { return changeTime(fi) }

// HTTPClientForTesting returns the client of the cache's default HTTP
// fetcher, or nil when a custom fetcher is installed.
func HTTPClientForTesting(c *Cache) *http.Client {
	f, ok := c.httpFetcher.(*fetch.HTTPFetcher)
	if !ok {
		return nil
	}
	return f.Client
}
