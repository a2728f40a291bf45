package leadgen

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var debug atomic.Pointer[logger]

func d(s string, args ...interface{}) {
	if l := debug.Load(); l != nil {
		l.debug(s, args...)
	}
}

type logger struct {
	entry           *logrus.Entry
	debuggerEnabled bool
}

func (l *logger) debug(s string, args ...interface{}) {
	if l.debuggerEnabled && l.entry != nil {
		l.entry.Debugf(s, args...)
	}
}

// SetDebugger turns the package's debug logging on or off. A nil entry logs through the
// standard logrus logger. Safe to call while other goroutines are logging.
func SetDebugger(enabled bool, entry *logrus.Entry) {
	if entry == nil {
		entry = logrus.NewEntry(logrus.StandardLogger())
	}
	debug.Store(&logger{
		entry:           entry.WithField("pkg", "leadgen"),
		debuggerEnabled: enabled,
	})
}
