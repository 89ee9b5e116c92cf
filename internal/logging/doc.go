// Package logging assembles structured slog loggers and formatting helpers used
// across cmdsock.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so connection handling code can
// tag every line with the connection id it belongs to. The package also
// provides a no-op logger for tests and wiring code that cannot fail, and the
// retention sweep the daemon runs over old run logs.
package logging
