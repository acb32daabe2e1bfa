//go:build linux

package diskcache

import (
	"io/fs"
	"syscall"
	"time"
)

// changeTime returns the inode change time of fi, or its mtime when the
// platform data is unavailable.
func changeTime(fi fs.FileInfo) time.Time {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return fi.ModTime()
	}
	return time.Unix(st.Ctim.Unix())
}
