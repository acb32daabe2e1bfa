package logging

import (
	"log/slog"
	"sync/atomic"
)

// Component is the value of the "component" attribute on the default logger.
const Component = "diskcache"

// state is swapped as a whole so a reader never pairs an installed logger
// with a stale default.
type state struct {
	installed *slog.Logger // from SetLogger; wins when non-nil
	base      *slog.Logger // the slog.Default() that derived was built from
	derived   *slog.Logger
}

var current atomic.Pointer[state]

// Logger returns the logger installed with SetLogger or, without one,
// slog.Default() tagged with the component attribute. The tagged logger is
// rebuilt only when slog.SetDefault has replaced the default since the last
// call, so lock polling at debug level does not allocate. Logger never
// returns nil and is safe for concurrent use.
func Logger() *slog.Logger {
	s := current.Load()
	if s != nil && s.installed != nil {
		return s.installed
	}
	base := slog.Default()
	if s != nil && s.base == base {
		return s.derived
	}
	next := &state{base: base, derived: base.With("component", Component)}
	if current.CompareAndSwap(s, next) {
		return next.derived
	}
	// Lost to a concurrent SetLogger or rebuild.
	if s := current.Load(); s != nil && s.installed != nil {
		return s.installed
	}
	return next.derived
}

// SetLogger installs l for all later Logger calls. nil goes back to the
// slog.Default() based logger.
func SetLogger(l *slog.Logger) {
	if l == nil {
		current.Store(nil)
		return
	}
	current.Store(&state{installed: l})
}

// Or returns l when it is non-nil and Logger() otherwise.
func Or(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return Logger()
}
