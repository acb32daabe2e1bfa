package diskcache

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/giantswarm/diskcache/internal/checksum"
	"github.com/giantswarm/diskcache/internal/fetch"
	"github.com/giantswarm/diskcache/internal/fileutil"
)

// FetchOptions controls verification and permissions of a fetched file.
type FetchOptions struct {
	// SHA1 is the expected hex digest. Empty skips verification.
	SHA1 string
	// Mode, when non-zero, is applied to the fetched file with chmod.
	Mode os.FileMode
}

// AssignOption adjusts how Assign and SetDefault fetch a remote source. The
// options only apply when the strategy downloads something.
type AssignOption func(*FetchOptions)

// WithSHA1 verifies the fetched file against a hex SHA-1 digest.
//
// Panics if digest is not 40 hexadecimal characters.
func WithSHA1(digest string) AssignOption {
	if len(digest) != 40 {
		panic(fmt.Sprintf("diskcache: sha1 digest must be 40 hex characters, got %q", digest))
	}
	if _, err := hex.DecodeString(digest); err != nil {
		panic(fmt.Sprintf("diskcache: sha1 digest must be 40 hex characters, got %q", digest))
	}
	return func(o *FetchOptions) {
		o.SHA1 = strings.ToLower(digest)
	}
}

// WithMode sets the permissions of the fetched file.
//
// Panics if mode is 0.
func WithMode(mode os.FileMode) AssignOption {
	if mode == 0 {
		panic("diskcache: mode must not be 0")
	}
	return func(o *FetchOptions) {
		o.Mode = mode
	}
}

func newFetchOptions(opts []AssignOption) FetchOptions {
	var fo FetchOptions
	for _, opt := range opts {
		opt(&fo)
	}
	return fo
}

// Fetch downloads url to localPath, overwriting it. gs:// URLs go through
// the storage client, http(s):// URLs through the HTTP fetcher, and file://
// URLs or plain paths are copied atomically over localPath. The digest in
// opts is checked after the download; on a mismatch localPath is deleted and
// a *ChecksumError is returned. Fetch takes no cache lock and never retries.
func (c *Cache) Fetch(ctx context.Context, url, localPath string, opts FetchOptions) error {
	src, err := fetch.Classify(url)
	if err != nil {
		return err
	}

	c.log.Debug("fetching", "url", url, "dst", localPath, "kind", src.Kind.String())
	switch src.Kind {
	case fetch.KindGS:
		err = c.storageClient.Copy(ctx, src.URL, localPath)
	case fetch.KindHTTP:
		err = c.httpFetcher.Fetch(ctx, src.URL, localPath)
	default:
		// Bootstrap callers may point localPath at a tool that is in use;
		// replace it in one rename.
		err = fileutil.CopyFile(src.Path, localPath, &fileutil.CopyFileOptions{Atomic: true, Sync: true})
	}
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}

	if opts.SHA1 != "" {
		actual, err := checksum.SHA1File(localPath)
		if err != nil {
			return fmt.Errorf("verify %s: %w", url, err)
		}
		if !checksum.Equal(actual, opts.SHA1) {
			if rmErr := os.Remove(localPath); rmErr != nil {
				c.log.Warn("failed to remove file with bad checksum", "path", localPath, "error", rmErr)
			}
			return &ChecksumError{URL: url, Expected: opts.SHA1, Actual: actual}
		}
	}

	if opts.Mode != 0 {
		if err := os.Chmod(localPath, opts.Mode); err != nil {
			return fmt.Errorf("chmod %s: %w", localPath, err)
		}
	}
	return nil
}

// fetchInto downloads url to a fresh file in dir and returns its path.
func (c *Cache) fetchInto(ctx context.Context, dir, url string, opts FetchOptions) (string, error) {
	dst := filepath.Join(dir, fetch.BaseName(url))
	if err := c.Fetch(ctx, url, dst, opts); err != nil {
		return "", err
	}
	return dst, nil
}
