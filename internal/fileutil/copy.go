package fileutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/giantswarm/diskcache/internal/sentinel"
)

// ErrEmptySrc is returned when a source path is empty.
const ErrEmptySrc = sentinel.Error("source path must not be empty")

// ErrEmptyDst is returned when a destination path is empty.
const ErrEmptyDst = sentinel.Error("destination path must not be empty")

// ErrUnsupportedFileType is returned by CopyTree for entries that are neither
// regular files, directories nor symlinks (devices, sockets, FIFOs).
const ErrUnsupportedFileType = sentinel.Error("unsupported file type")

// CopyFileOptions configures file copy behavior.
type CopyFileOptions struct {
	Mode   *os.FileMode // Optional: permissions for dst; defaults to the source's permissions
	Sync   bool         // If true, call Sync() before closing dst
	Atomic bool         // If true, write to a temp file then rename to dst
}

// CopyFile copies the regular file src to dst, creating parent directories as
// needed. A nil opts copies with the source's permission bits, no sync and no
// atomic rename.
//
// The destination is created with its final permissions, so it never has
// broader permissions than intended. With opts.Atomic the data is written to
// a temp file next to dst and renamed over it, so concurrent readers see
// either the old content or the complete new content.
func CopyFile(src, dst string, opts *CopyFileOptions) (retErr error) {
	if src == "" {
		return ErrEmptySrc
	}
	if dst == "" {
		return ErrEmptyDst
	}

	var o CopyFileOptions
	if opts != nil {
		o = *opts
	}

	srcFile, err := os.Open(src) //nolint:gosec // G304: paths are from controlled sources
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() {
		if closeErr := srcFile.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("close source: %w", closeErr)
		}
	}()

	info, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("copy %s: %w: %s", src, ErrUnsupportedFileType, info.Mode().Type())
	}
	mode := info.Mode().Perm()
	if o.Mode != nil {
		mode = *o.Mode
	}

	if err := EnsureDirForFile(dst, nil); err != nil {
		return fmt.Errorf("prepare destination: %w", err)
	}

	dstFile, writePath, err := openDst(dst, mode, o.Atomic)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = os.Remove(writePath)
		}
	}()

	if _, err = io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}

	return commit(dstFile, writePath, dst, o.Sync || o.Atomic)
}

// commit syncs (if requested), closes and renames the written file into
// place. On sync failure dstFile is closed before returning.
func commit(dstFile *os.File, writePath, dst string, doSync bool) error {
	if doSync {
		if err := dstFile.Sync(); err != nil {
			_ = dstFile.Close()
			return fmt.Errorf("sync: %w", err)
		}
	}

	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	if writePath != dst {
		if err := os.Rename(writePath, dst); err != nil {
			return fmt.Errorf("rename temp file to destination: %w", err)
		}
	}

	return nil
}

// openDst opens the write target for dst. When atomic is true the target is
// a temp file in dst's directory that commit later renames over dst.
func openDst(dst string, mode os.FileMode, atomic bool) (*os.File, string, error) {
	if atomic {
		tmpFile, err := os.CreateTemp(filepath.Dir(dst), ".diskcache-copy-*")
		if err != nil {
			return nil, "", fmt.Errorf("create temp file: %w", err)
		}
		writePath := tmpFile.Name()
		if err := tmpFile.Chmod(mode); err != nil {
			_ = tmpFile.Close()
			_ = os.Remove(writePath)
			return nil, "", fmt.Errorf("chmod temp file: %w", err)
		}
		return tmpFile, writePath, nil
	}

	f, err := os.OpenFile( //nolint:gosec // G304: paths are from controlled sources
		dst,
		os.O_WRONLY|os.O_CREATE|os.O_TRUNC,
		mode,
	)
	if err != nil {
		return nil, "", fmt.Errorf("create destination: %w", err)
	}
	// O_CREATE applies the umask; the cache wants the exact mode.
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return nil, "", fmt.Errorf("chmod destination: %w", err)
	}
	return f, dst, nil
}

// CopyTree copies src to dst. src may be a regular file, a symlink or a
// directory; directories are copied recursively with their permission bits
// and symlinks are recreated verbatim, never followed. dst must not exist.
func CopyTree(src, dst string) error {
	if src == "" {
		return ErrEmptySrc
	}
	if dst == "" {
		return ErrEmptyDst
	}
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("copy tree to %s: %w", dst, fs.ErrExist)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		switch {
		case d.IsDir():
			if err := os.Mkdir(target, 0o700); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			// Applied after creation so the umask does not mask bits and a
			// read-only source directory can still receive children.
			return os.Chmod(target, info.Mode().Perm()|0o200) //nolint:gosec // G302: mirrors source mode
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("read symlink %s: %w", path, err)
			}
			return os.Symlink(link, target)
		case info.Mode().IsRegular():
			return CopyFile(path, target, nil)
		default:
			return fmt.Errorf("copy %s: %w: %s", path, ErrUnsupportedFileType, info.Mode().Type())
		}
	})
}
