package diskcache

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/option"
)

// owner is a uid/gid pair set by WithCacheUser.
type owner struct {
	uid, gid int
}

// config holds everything the options can set. It is immutable once New
// returns.
type config struct {
	strategy         Strategy
	lockSuffix       string
	stagingName      string
	lockTimeout      time.Duration
	lockPollInterval time.Duration
	statConcurrency  int
	cacheUser        *owner
	sudoExtract      bool

	logger        *slog.Logger
	httpFetcher   HTTPFetcher
	httpClient    *http.Client
	storageClient StorageClient
	gcsOptions    []option.ClientOption
	extractor     Extractor

	// changeTime extracts the inode change time used by DeleteStale.
	changeTime func(fs.FileInfo) time.Time
	now        func() time.Time
}

func defaultConfig() config {
	return config{
		strategy:         DefaultStrategy,
		lockSuffix:       DefaultLockSuffix,
		stagingName:      DefaultStagingDirName,
		lockTimeout:      DefaultLockTimeout,
		lockPollInterval: DefaultLockPollInterval,
		statConcurrency:  DefaultStatConcurrency,
		changeTime:       changeTime,
		now:              time.Now,
	}
}

// Validate checks every config invariant and reports all violations at once
// with errors.Join.
func (c config) Validate() error {
	var errs []error

	if !c.strategy.IsValid() {
		errs = append(errs, fmt.Errorf("invalid strategy: %v", c.strategy))
	}
	if c.lockSuffix == "" {
		errs = append(errs, errors.New("lock suffix must not be empty"))
	}
	if strings.ContainsAny(c.lockSuffix, "/+") {
		errs = append(errs, fmt.Errorf("lock suffix must not contain '/' or '+', got %q", c.lockSuffix))
	}
	if c.stagingName == "" || strings.ContainsAny(c.stagingName, "/+") {
		errs = append(errs, fmt.Errorf("staging directory name must be a single path element without '+', got %q", c.stagingName))
	}
	if c.lockTimeout < 0 {
		errs = append(errs, fmt.Errorf("lock timeout must not be negative, got %s", c.lockTimeout))
	}
	if c.lockPollInterval <= 0 {
		errs = append(errs, fmt.Errorf("lock poll interval must be greater than 0, got %s", c.lockPollInterval))
	}
	if c.statConcurrency <= 0 {
		errs = append(errs, fmt.Errorf("stat concurrency must be greater than 0, got %d", c.statConcurrency))
	}
	if c.cacheUser != nil && (c.cacheUser.uid < 0 || c.cacheUser.gid < 0) {
		errs = append(errs, fmt.Errorf("cache user ids must not be negative, got %d:%d", c.cacheUser.uid, c.cacheUser.gid))
	}
	if c.changeTime == nil || c.now == nil {
		errs = append(errs, errors.New("clock functions must not be nil"))
	}

	return errors.Join(errs...)
}
