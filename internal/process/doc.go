// Package process runs external tools (tar, decompressors, sudo) to
// completion. Run captures stdout and stderr, reports non-zero exits as a
// structured *RunError, and on context cancellation stops the child with
// SIGTERM followed by SIGKILL after a grace period.
package process
