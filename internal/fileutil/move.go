package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Move relocates src (file, symlink or directory tree) to dst, replacing
// nothing: callers remove any previous dst first. The last step is always a
// rename within dst's filesystem. When src lives on another filesystem it is
// first copied into a temp directory under scratchDir (which must share dst's
// filesystem), renamed into place, and only then removed from its origin.
func Move(src, dst, scratchDir string) error {
	if src == "" {
		return ErrEmptySrc
	}
	if dst == "" {
		return ErrEmptyDst
	}

	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("move %s to %s: %w", src, dst, err)
	}

	tmpDir, err := os.MkdirTemp(scratchDir, "xdev-*")
	if err != nil {
		return fmt.Errorf("create scratch dir for cross-device move: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	staged := filepath.Join(tmpDir, filepath.Base(dst))
	if err := CopyTree(src, staged); err != nil {
		return fmt.Errorf("copy %s across devices: %w", src, err)
	}
	if err := os.Rename(staged, dst); err != nil {
		return fmt.Errorf("move %s to %s: %w", staged, dst, err)
	}
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("remove moved source %s: %w", src, err)
	}
	return nil
}

// Discard removes path by first renaming it into a fresh "trash" directory
// under scratchDir and then deleting that directory. A missing path is not an
// error. If the deletion fails after the rename, path is already gone and the
// leftover trash directory is reported in the error.
func Discard(path, scratchDir string) error {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}

	trash, err := os.MkdirTemp(scratchDir, "trash-*")
	if err != nil {
		return fmt.Errorf("create trash dir: %w", err)
	}
	if err := os.Rename(path, filepath.Join(trash, "entry")); err != nil {
		_ = os.Remove(trash)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("shelve %s: %w", path, err)
	}
	if err := os.RemoveAll(trash); err != nil {
		return fmt.Errorf("delete trash dir %s: %w", trash, err)
	}
	return nil
}
