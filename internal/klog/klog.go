// Package klog is the kernel's diagnostic logger. Grounded in
// smoynes-elsie's internal/log -- an slog.Logger wrapping a package-level
// default swappable at startup -- trimmed to a plain text handler since
// this kernel has no terminal color output to preserve and no log
// rotation concerns; the shape (DefaultLogger/SetDefault/LevelVar) is
// kept so the ambient logging story reads the same way.
package klog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Level is re-exported so callers don't need to import log/slog directly
// just to set a level.
type Level = slog.Level

// LogLevel is the runtime-adjustable log level, shared by every logger
// built with New.
var LogLevel = new(slog.LevelVar)

var def = New(os.Stderr)

// New builds a text-handler logger writing to out at the current
// LogLevel.
func New(out io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: LogLevel}))
}

// Default returns the kernel's default logger.
func Default() *slog.Logger { return def }

// SetDefault overrides the default logger, e.g. to redirect boot
// diagnostics to the simulated console instead of stderr.
func SetDefault(l *slog.Logger) { def = l }

// Panicf formats a message and panics with it, matching spec.md §7's
// fatal-only conditions ("panic prints and loops forever"): in this
// hosted simulation, looping forever is replaced by unwinding the Go
// call stack. Nothing in the kernel recovers the panic, so it ends the
// host process.
func Panicf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	def.Error("fatal", "msg", msg)
	panic(msg)
}
