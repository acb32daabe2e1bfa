package diskcache

import "time"

// Default configuration values for New. They are exported so callers can
// build related values from them (e.g. 20 * DefaultLockPollInterval).
const (
	// DefaultLockSuffix is appended to an entry path to form its lock file.
	DefaultLockSuffix = ".lock"

	// DefaultStagingDirName is the directory under the cache root that holds
	// downloads, extraction trees and removed entries awaiting deletion. It
	// cannot be used as the first path segment of a key.
	DefaultStagingDirName = "staging"

	// DefaultLockPollInterval is the interval between non-blocking attempts
	// to take a contended lock.
	DefaultLockPollInterval = 50 * time.Millisecond

	// DefaultLockTimeout bounds a single lock acquisition. Zero means wait
	// until the caller's context ends, which matches a blocking lock.
	DefaultLockTimeout time.Duration = 0

	// DefaultStrategy is the population strategy used by New.
	DefaultStrategy = StrategyLocal

	// DefaultStatConcurrency caps the parallel stat calls DeleteStale issues.
	DefaultStatConcurrency = 8
)
