package diskcache

import (
	"log/slog"

	"github.com/giantswarm/diskcache/internal/logging"
)

// SetLogger replaces the package-level logger used by caches that were not
// given one with WithLogger. The provided logger should already carry any
// desired attributes; diskcache will not add its own.
//
// If l is nil, the logger resets to slog.Default() with a
// "component"="diskcache" attribute. Call SetLogger(nil) after
// slog.SetDefault() to pick up the change.
//
// SetLogger is safe to call concurrently with cache operations. A cache
// resolves its logger once, in New, so the change applies to caches created
// afterwards.
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}
