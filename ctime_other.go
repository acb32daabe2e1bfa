//go:build !linux && !darwin

package diskcache

import (
	"io/fs"
	"time"
)

// changeTime falls back to the modification time where the inode change
// time is not exposed.
func changeTime(fi fs.FileInfo) time.Time {
	return fi.ModTime()
}
