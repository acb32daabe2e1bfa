package diskcache

import (
	"fmt"

	"github.com/giantswarm/diskcache/internal/archive"
	"github.com/giantswarm/diskcache/internal/fetch"
	"github.com/giantswarm/diskcache/internal/process"
	"github.com/giantswarm/diskcache/internal/sentinel"
)

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
// Every other failure (I/O, lock, HTTP, subprocess) is passed through wrapped
// with context, so errors.Is and errors.As still reach the underlying cause.
const (
	// ErrChecksumMismatch is returned when a fetched file's SHA-1 differs from
	// the expected digest. The entry is not created.
	ErrChecksumMismatch = sentinel.Error("checksum mismatch")

	// ErrAlreadyAcquired is returned by Reference.Acquire on an acquired
	// reference.
	ErrAlreadyAcquired = sentinel.Error("reference already acquired")

	// ErrNotAcquired is returned by Reference.Release, and by operations that
	// need the key's lock, on a reference that has not been acquired.
	ErrNotAcquired = sentinel.Error("reference not acquired")

	// ErrInvalidKey is returned for keys that cannot be mapped to a path
	// unambiguously: empty keys or components, components containing the
	// "+" delimiter, NUL or a path separator, keys that would land on the
	// staging directory and keys ending in the lock suffix.
	ErrInvalidKey = sentinel.Error("invalid cache key")

	// ErrInvalidMaxAge is returned by DeleteStale for a negative age.
	ErrInvalidMaxAge = sentinel.Error("max age must not be negative")

	// ErrUnsupportedURL is returned for source URLs no fetcher handles.
	ErrUnsupportedURL = fetch.ErrUnsupportedURL

	// ErrUnsupportedCompression is returned when an archive's compression
	// cannot be decoded.
	ErrUnsupportedCompression = archive.ErrUnsupportedCompression

	// ErrUnsafePath is returned by NativeExtractor for archive entries that
	// would be written outside the extraction directory.
	ErrUnsafePath = archive.ErrUnsafePath
)

// RunError reports an external command (tar, a decompressor, sudo) that
// failed to start or exited non-zero. It carries the argv, exit code and
// captured stderr.
type RunError = process.RunError

// HTTPStatusError reports an HTTP download that returned a non-2xx status.
type HTTPStatusError = fetch.StatusError

// ChecksumError describes a SHA-1 mismatch after a fetch. It matches
// ErrChecksumMismatch with errors.Is.
type ChecksumError struct {
	URL      string
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%s: %s: expected sha1 %s, got %s", ErrChecksumMismatch, e.URL, e.Expected, e.Actual)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }
