package diskcache

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// keyDelimiter joins key components into a single path.
const keyDelimiter = "+"

// Key identifies a cache entry. Components are joined with "+" to form the
// entry's file name directly below the cache root. Components must not
// contain "/": an entry can never sit inside another entry or lock file.
type Key []string

// String returns the components joined with "+".
func (k Key) String() string {
	return strings.Join(k, keyDelimiter)
}

// Equal reports whether k and other have the same components.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// validateKey checks k against the rules that keep the key<->path mapping a
// bijection onto single names below the cache root.
func (c *Cache) validateKey(k Key) error {
	if len(k) == 0 {
		return fmt.Errorf("%w: key has no components", ErrInvalidKey)
	}
	for i, comp := range k {
		if reason := componentProblem(comp); reason != "" {
			return fmt.Errorf("%w: component %d %q: %s", ErrInvalidKey, i, comp, reason)
		}
	}
	joined := k.String()
	switch {
	case joined == "." || joined == "..":
		return fmt.Errorf("%w: %q is not a file name", ErrInvalidKey, joined)
	case joined == c.cfg.stagingName:
		return fmt.Errorf("%w: %q is the staging directory", ErrInvalidKey, joined)
	case strings.HasSuffix(joined, c.cfg.lockSuffix):
		return fmt.Errorf("%w: %q ends with the lock suffix %q", ErrInvalidKey, joined, c.cfg.lockSuffix)
	}
	return nil
}

// componentProblem describes why comp is unusable, or returns "".
func componentProblem(comp string) string {
	switch {
	case comp == "":
		return "empty"
	case strings.Contains(comp, keyDelimiter):
		return "contains the " + keyDelimiter + " delimiter"
	case strings.ContainsRune(comp, 0):
		return "contains NUL"
	case strings.ContainsRune(comp, '/') || strings.ContainsRune(comp, filepath.Separator):
		return "contains a path separator"
	}
	return ""
}

// KeyPath returns the canonical path of key's entry. It performs no I/O.
func (c *Cache) KeyPath(key Key) (string, error) {
	if err := c.validateKey(key); err != nil {
		return "", err
	}
	return filepath.Join(c.root, key.String()), nil
}

// KeyFromPath maps an entry path below the cache root back to its key.
func (c *Cache) KeyFromPath(p string) (Key, error) {
	rel, err := filepath.Rel(c.root, p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not below %s: %w", ErrInvalidKey, p, c.root, err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") || path.IsAbs(rel) {
		return nil, fmt.Errorf("%w: %s is not below %s", ErrInvalidKey, p, c.root)
	}
	key := Key(strings.Split(rel, keyDelimiter))
	if err := c.validateKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

func (c *Cache) lockPath(entryPath string) string {
	return entryPath + c.cfg.lockSuffix
}
