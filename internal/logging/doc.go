// Package logging holds the swappable package-level slog logger shared by the
// cache packages. Every cache without its own logger (see WithLogger in the
// root package) logs through Logger().
package logging
