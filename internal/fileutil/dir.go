package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// Owner identifies the uid/gid that newly created directories are handed to.
// A nil *Owner leaves ownership with the calling process.
type Owner struct {
	UID int
	GID int
}

// EnsureDir creates path and any missing parents with mode 0o755. When owner
// is non-nil, every directory this call created is chowned to it; directories
// that already existed are left untouched. It returns nil if path already
// exists as a directory.
func EnsureDir(path string, owner *Owner) error {
	created, err := missingDirs(path)
	if err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	if owner == nil {
		return nil
	}
	for _, dir := range created {
		if err := os.Lchown(dir, owner.UID, owner.GID); err != nil {
			return fmt.Errorf("chown %s to %d:%d: %w", dir, owner.UID, owner.GID, err)
		}
	}
	return nil
}

// EnsureDirForFile creates the parent directory of filePath if it does not
// already exist.
func EnsureDirForFile(filePath string, owner *Owner) error {
	if err := EnsureDir(filepath.Dir(filePath), owner); err != nil {
		return fmt.Errorf("ensure dir for %s: %w", filePath, err)
	}
	return nil
}

// missingDirs returns the directories between path and its nearest existing
// ancestor, outermost first.
func missingDirs(path string) ([]string, error) {
	var missing []string
	for dir := filepath.Clean(path); ; {
		_, err := os.Stat(dir)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		missing = append(missing, dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	for i, j := 0, len(missing)-1; i < j; i, j = i+1, j-1 {
		missing[i], missing[j] = missing[j], missing[i]
	}
	return missing, nil
}

// RemoveIfEmptyDir removes path only when it is an empty directory. It
// reports whether a directory was removed. A missing path, a non-empty
// directory and a non-directory are all left alone without error.
func RemoveIfEmptyDir(path string) (bool, error) {
	err := syscall.Rmdir(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, syscall.ENOTEMPTY),
		errors.Is(err, syscall.EEXIST),
		errors.Is(err, syscall.ENOENT),
		errors.Is(err, syscall.ENOTDIR):
		return false, nil
	default:
		return false, fmt.Errorf("remove empty directory %s: %w", path, err)
	}
}
