// Package logging holds the installer's package-global logger, mirroring
// the teacher's own package-global *log.Logger pattern (server/serve.go,
// server/server.go): one logger configured once per run and used
// directly by every subsystem rather than threaded through call
// signatures.
package logging

import (
	"fmt"
	"os"
	"path"

	"github.com/ije/gox/log"
)

// L is the active logger, set by Init. It is nil until Init succeeds;
// callers use Infof/Warnf/Errorf below rather than L directly so logging
// from a path that runs before (or independent of) Init never panics.
var L *log.Logger

// Init configures L for one run, writing to "<logDir>/install.log" at
// logLevel, following the exact DSN shape the teacher passes to
// log.New for its own server/access logs.
func Init(logDir, logLevel string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logger, err := log.New(fmt.Sprintf("file:%s?buffer=32k&fileDateFormat=20060102", path.Join(logDir, "install.log")))
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	logger.SetLevelByName(logLevel)
	L = logger
	return nil
}

// Infof logs at info level if a logger has been configured; a no-op
// otherwise, so packages that log stage transitions don't need to guard
// every call site against Init never having run (e.g. in isolated tests).
func Infof(format string, args ...any) {
	if L != nil {
		L.Infof(format, args...)
	}
}

// Warnf logs at warn level, same nil-safety as Infof.
func Warnf(format string, args ...any) {
	if L != nil {
		L.Warnf(format, args...)
	}
}

// Errorf logs at error level, same nil-safety as Infof.
func Errorf(format string, args ...any) {
	if L != nil {
		L.Errorf(format, args...)
	}
}
