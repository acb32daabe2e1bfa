// Package filelock wraps gofrs/flock in a shared/exclusive advisory lock
// whose blocking acquisition honours context cancellation and an optional
// timeout.
//
// A Lock is bound to one lock-file path and holds at most one mode at a time.
// Switching between shared and exclusive releases the current mode before
// taking the new one, so another process may briefly observe the file
// unlocked in between. Lock files are never removed: a process that already
// opened the old inode would otherwise lock a different file than a process
// that recreates it.
//
// A Lock is not safe for concurrent use; distinct goroutines coordinate by
// holding distinct Lock values for the same path, exactly as distinct
// processes do.
package filelock
