package renderer

import (
	"log"
)

// Logger is the sink a backend writes to. A nil *log.Logger falls back to
// the standard logger.
type Logger struct {
	Out   *log.Logger
	Debug bool
}

// NewLogger wraps out; debug enables Debugf output.
func NewLogger(out *log.Logger, debug bool) Logger {
	return Logger{Out: out, Debug: debug}
}

func (l Logger) out() *log.Logger {
	if l.Out == nil {
		return log.Default()
	}
	return l.Out
}

func (l Logger) Debugf(format string, args ...any) {
	if l.Debug {
		l.out().Printf("debug: "+format, args...)
	}
}

func (l Logger) Infof(format string, args ...any) {
	l.out().Printf(format, args...)
}

func (l Logger) Warnf(format string, args ...any) {
	l.out().Printf("warning: "+format, args...)
}
