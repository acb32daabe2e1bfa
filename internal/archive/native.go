package archive

import (
	"archive/tar"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/giantswarm/diskcache/internal/sentinel"
)

// ErrUnsafePath is returned when an archive entry would be written outside
// the extraction directory.
const ErrUnsafePath = sentinel.Error("archive entry escapes destination")

// NativeExtractor extracts tar archives in-process. It supports plain, gzip,
// bzip2 and zstd archives; xz returns ErrUnsupportedCompression. Ownership
// is not restored.
type NativeExtractor struct {
	Logger *slog.Logger
}

// Extract unpacks archive into dest, which must exist.
func (e NativeExtractor) Extract(ctx context.Context, archive, dest string) error {
	comp, err := DetectCompression(archive)
	if err != nil {
		return err
	}

	f, err := os.Open(archive) //nolint:gosec // G304: archive is a staged download
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	r, closeFn, err := decompress(f, comp)
	if err != nil {
		return fmt.Errorf("extract %s: %w", archive, err)
	}
	defer closeFn()

	if e.Logger != nil {
		e.Logger.Debug("extracting archive natively",
			"archive", archive, "dest", dest, "compression", comp.String())
	}

	if err := extractTar(ctx, tar.NewReader(r), dest, e.Logger); err != nil {
		return fmt.Errorf("extract %s: %w", archive, err)
	}
	return nil
}

func decompress(r io.Reader, comp Compression) (io.Reader, func(), error) {
	switch comp {
	case CompressionNone:
		return r, func() {}, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, func() { _ = zr.Close() }, nil
	case CompressionBzip2:
		return bzip2.NewReader(r), func() {}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, zr.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, comp)
	}
}

type dirTimes struct {
	path  string
	mode  fs.FileMode
	mtime time.Time
}

func extractTar(ctx context.Context, tr *tar.Reader, dest string, log *slog.Logger) error {
	// Directory modes and mtimes are applied last: creating children would
	// bump the mtime, and a read-only directory could not receive them.
	var dirs []dirTimes

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		rel, err := entryPath(hdr.Name)
		if err != nil {
			return err
		}
		if rel == "" {
			continue
		}
		target := filepath.Join(dest, rel)
		if err := checkParents(dest, rel); err != nil {
			return err
		}

		mode := hdr.FileInfo().Mode().Perm()
		if hdr.Typeflag != tar.TypeDir {
			// Later entries replace earlier ones; unlinking first also keeps
			// a writer from following a symlink planted by a previous entry.
			if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("replace %s: %w", rel, err)
			}
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", rel, err)
			}
			dirs = append(dirs, dirTimes{path: target, mode: mode, mtime: hdr.ModTime})
		case tar.TypeReg:
			if err := writeEntry(tr, target, mode); err != nil {
				return fmt.Errorf("write %s: %w", rel, err)
			}
			_ = os.Chtimes(target, hdr.AccessTime, hdr.ModTime)
		case tar.TypeSymlink:
			if err := ensureParent(target); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("create symlink %s: %w", rel, err)
			}
		case tar.TypeLink:
			linkRel, err := entryPath(hdr.Linkname)
			if err != nil || linkRel == "" {
				return fmt.Errorf("%w: hard link %s -> %s", ErrUnsafePath, hdr.Name, hdr.Linkname)
			}
			if err := ensureParent(target); err != nil {
				return err
			}
			if err := os.Link(filepath.Join(dest, linkRel), target); err != nil {
				return fmt.Errorf("create hard link %s: %w", rel, err)
			}
		case tar.TypeXGlobalHeader:
		default:
			if log != nil {
				log.Debug("skipping unsupported tar entry", "name", hdr.Name, "type", string(hdr.Typeflag))
			}
		}
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		d := dirs[i]
		if err := os.Chmod(d.path, d.mode); err != nil {
			return fmt.Errorf("chmod %s: %w", d.path, err)
		}
		_ = os.Chtimes(d.path, d.mtime, d.mtime)
	}
	return nil
}

// entryPath converts a tar entry name to a clean, local, OS-specific
// relative path. The archive root itself maps to "".
func entryPath(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(name, "./")))
	if clean == "." {
		return "", nil
	}
	if !filepath.IsLocal(clean) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return clean, nil
}

// checkParents rejects rel when any existing parent inside dest is a symlink,
// since writing through it could land outside dest.
func checkParents(dest, rel string) error {
	dir := filepath.Dir(rel)
	if dir == "." {
		return nil
	}
	cur := dest
	for _, part := range strings.Split(dir, string(filepath.Separator)) {
		cur = filepath.Join(cur, part)
		info, err := os.Lstat(cur)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("stat %s: %w", cur, err)
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("%w: %s traverses symlink %s", ErrUnsafePath, rel, cur)
		}
	}
	return nil
}

func ensureParent(target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", target, err)
	}
	return nil
}

func writeEntry(r io.Reader, target string, mode fs.FileMode) (retErr error) {
	if err := ensureParent(target); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // G304: target validated by entryPath
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && retErr == nil {
			retErr = closeErr
		}
	}()
	if _, err := io.Copy(f, r); err != nil { //nolint:gosec // G110: archives come from trusted build artifacts
		return err
	}
	return f.Chmod(mode)
}
