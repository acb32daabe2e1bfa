// Package fileutil provides the filesystem primitives the cache builds on.
//
// EnsureDir creates directory chains and optionally hands newly created
// directories to a fixed owner. CopyFile and CopyTree copy content with
// preserved permissions, Move relocates a file or tree with rename as the
// final step (copying through a scratch directory when source and destination
// live on different filesystems), and Discard shelves a path in a scratch
// directory before deleting it so a crash never leaves a half-deleted tree at
// the original location.
package fileutil
