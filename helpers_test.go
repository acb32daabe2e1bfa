package diskcache_test

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/giantswarm/diskcache"
)

// quietLogger keeps test output readable.
var quietLogger = slog.New(slog.DiscardHandler)

func newCache(t *testing.T, opts ...diskcache.Option) *diskcache.Cache {
	t.Helper()
	return newCacheAt(t, t.TempDir(), opts...)
}

func newCacheAt(t *testing.T, root string, opts ...diskcache.Option) *diskcache.Cache {
	t.Helper()
	c, err := diskcache.New(root, append([]diskcache.Option{diskcache.WithLogger(quietLogger)}, opts...)...)
	if err != nil {
		t.Fatalf("New(%s) error: %v", root, err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
	return c
}

// acquire looks up key and acquires it; the reference is released at cleanup
// if the test left it acquired.
func acquire(t *testing.T, c *diskcache.Cache, key ...string) *diskcache.Reference {
	t.Helper()
	ref, err := c.Lookup(key)
	if err != nil {
		t.Fatalf("Lookup(%v) error: %v", key, err)
	}
	if err := ref.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	t.Cleanup(func() {
		if ref.Acquired() {
			_ = ref.Release()
		}
	})
	return ref
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Lstat(path)
	if err == nil {
		return true
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	t.Fatalf("lstat %s: %v", path, err)
	return false
}

// listTree returns the slash-separated paths of regular files under dir,
// sorted.
func listTree(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(dir, p)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	slices.Sort(files)
	return files
}

// stubFetcher serves fixed content for any URL and counts calls. It
// implements both HTTPFetcher and StorageClient.
type stubFetcher struct {
	content string
	err     error
	calls   atomic.Int32
	urls    chan string
}

func newStubFetcher(content string) *stubFetcher {
	return &stubFetcher{content: content, urls: make(chan string, 64)}
}

func (f *stubFetcher) Fetch(_ context.Context, url, dst string) error {
	return f.serve(url, dst)
}

func (f *stubFetcher) Copy(_ context.Context, url, dst string) error {
	return f.serve(url, dst)
}

func (f *stubFetcher) serve(url, dst string) error {
	f.calls.Add(1)
	select {
	case f.urls <- url:
	default:
	}
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dst, []byte(f.content), 0o644)
}
