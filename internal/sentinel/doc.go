// Package sentinel provides an immutable error type for sentinel error declarations.
//
// The cache packages declare their failure classes (checksum mismatch,
// reference misuse, invalid keys) as Error constants so that callers match
// them with errors.Is through any number of %w wrappers, and so that no
// package can reassign them at runtime.
package sentinel
