package trust

import "fmt"

// Logger is the leveled logging surface handed to code that should not care
// where its lines go.
type Logger interface {
	Errorf(format string, params ...interface{})
	Warnf(format string, params ...interface{})
	Infof(format string, params ...interface{})
	Debugf(format string, params ...interface{})
}

// HartLogger prefixes every line with the hart it came from.
type HartLogger struct {
	prefix string
}

var _ Logger = HartLogger{}

func ForHart(id int) HartLogger {
	return HartLogger{prefix: fmt.Sprintf(" [HART %d] ", id)}
}

func (h HartLogger) Errorf(format string, params ...interface{}) {
	logf(h.prefix, ErrorMask, format, params...)
}

func (h HartLogger) Warnf(format string, params ...interface{}) {
	logf(h.prefix, WarnMask, format, params...)
}

func (h HartLogger) Infof(format string, params ...interface{}) {
	logf(h.prefix, InfoMask, format, params...)
}

func (h HartLogger) Debugf(format string, params ...interface{}) {
	logf(h.prefix, DebugMask, format, params...)
}

// Discard is a Logger that prints nothing.
var Discard Logger = discard{}

type discard struct{}

func (discard) Errorf(string, ...interface{}) {}
func (discard) Warnf(string, ...interface{})  {}
func (discard) Infof(string, ...interface{})  {}
func (discard) Debugf(string, ...interface{}) {}

// Std is a Logger over the package level functions, with no prefix.
var Std Logger = std{}

type std struct{}

func (std) Errorf(format string, params ...interface{}) { logf("", ErrorMask, format, params...) }
func (std) Warnf(format string, params ...interface{})  { logf("", WarnMask, format, params...) }
func (std) Infof(format string, params ...interface{})  { logf("", InfoMask, format, params...) }
func (std) Debugf(format string, params ...interface{}) { logf("", DebugMask, format, params...) }
