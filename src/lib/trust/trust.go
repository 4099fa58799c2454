package trust

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

type MaskLevel int

const (
	Nothing   MaskLevel = 0x0
	ErrorMask MaskLevel = 0x1
	WarnMask  MaskLevel = 0x2
	InfoMask  MaskLevel = 0x4
	DebugMask MaskLevel = 0x8
	StatsMask MaskLevel = 0x10
	fatalMask MaskLevel = 0x80
)

var (
	mu    sync.Mutex
	out   io.Writer = color.Output
	level           = fatalMask | StatsMask | ErrorMask | WarnMask | InfoMask | DebugMask
	exit            = os.Exit
)

var prefixes = map[MaskLevel]*color.Color{
	fatalMask: color.New(color.FgRed, color.Bold),
	ErrorMask: color.New(color.FgRed),
	WarnMask:  color.New(color.FgYellow),
	InfoMask:  color.New(color.FgGreen),
	DebugMask: color.New(color.FgCyan),
	StatsMask: color.New(color.FgMagenta),
}

// SetOutput sends all log lines to w and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

// SetLevel lets you set an error mask directly. You can pass in something like
// ErrorMask | DebugMask to control exactly what gets printed. Lower levels
// include the higher ones, so InfoMask also prints Debug and Stats lines.
// It returns the previous mask.
func SetLevel(mask MaskLevel) MaskLevel {
	mu.Lock()
	defer mu.Unlock()
	if mask&0x1f == 0 {
		fmt.Fprintf(out, " WARN: trust.SetLevel is turning off log messages\n")
	}
	result := Nothing
	switch {
	case mask&ErrorMask > 0:
		result |= ErrorMask
		fallthrough
	case mask&WarnMask > 0:
		result |= WarnMask
		fallthrough
	case mask&InfoMask > 0:
		result |= InfoMask
		fallthrough
	case mask&DebugMask > 0:
		result |= DebugMask
		fallthrough
	case mask&StatsMask > 0:
		result |= StatsMask
	}
	r := level & 0x1f
	level = result | fatalMask
	return r
}

func Level() MaskLevel {
	mu.Lock()
	defer mu.Unlock()
	return level
}

func LevelToString() string {
	l := Level()
	result := ""
	switch {
	case l&ErrorMask > 0:
		result += "error "
		fallthrough
	case l&WarnMask > 0:
		result += "warn "
		fallthrough
	case l&InfoMask > 0:
		result += "info "
		fallthrough
	case l&DebugMask > 0:
		result += "debug "
		fallthrough
	case l&StatsMask > 0:
		result += "stats"
	}
	return result
}

// Verbosity installs the mask for a command line -v count and returns it:
// 0 errors and warnings, 1 adds info, 2 or more prints everything. Unlike
// SetLevel it does not cascade.
func Verbosity(v int) MaskLevel {
	mask := ErrorMask | WarnMask | InfoMask | DebugMask | StatsMask
	switch {
	case v <= 0:
		mask = ErrorMask | WarnMask
	case v == 1:
		mask = ErrorMask | WarnMask | InfoMask
	}
	mu.Lock()
	level = mask | fatalMask
	mu.Unlock()
	return mask
}

func tag(l MaskLevel) string {
	switch {
	case l&fatalMask > 0:
		return "FATAL:"
	case l&ErrorMask > 0:
		return "ERROR:"
	case l&WarnMask > 0:
		return " WARN:"
	case l&InfoMask > 0:
		return " INFO:"
	case l&DebugMask > 0:
		return "DEBUG:"
	}
	return "STATS"
}

func logf(prefix string, l MaskLevel, format string, params ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if level&l == 0 {
		return
	}
	if len(format) == 0 {
		format = "\n"
	} else if format[len(format)-1] != '\n' {
		format += "\n"
	}
	c := prefixes[l]
	t := tag(l)
	if l == StatsMask {
		t = fmt.Sprintf("STATS[%v]:", params[0])
		params = params[1:]
	}
	c.Fprint(out, t)
	fmt.Fprintf(out, prefix+format, params...)
}

//Fatalf prints the given log message (format + params) and then exits with
//the exitCode provided.  Fatalf is not maskable.
func Fatalf(exitCode int, format string, params ...interface{}) {
	logf("", fatalMask, format, params...)
	exit(exitCode)
}

//Errorf prints the given log message (format + params) using the ErrorMask level.
func Errorf(format string, params ...interface{}) {
	logf("", ErrorMask, format, params...)
}

//Warnf prints the given log message (format + params) using the WarnMask level.
func Warnf(format string, params ...interface{}) {
	logf("", WarnMask, format, params...)
}

//Infof prints the given log message (format + params) using the InfoMask level.
func Infof(format string, params ...interface{}) {
	logf("", InfoMask, format, params...)
}

//Debugf prints the given log message (format + params) using the DebugMask level.
func Debugf(format string, params ...interface{}) {
	logf("", DebugMask, format, params...)
}

//Statsf prints the given log message (format + params) using the StatsMask level and
//takes an extra parameter that will be visible in the log message as the category
//of stats that is reported.
func Statsf(category string, format string, params ...interface{}) {
	logf("", StatsMask, format, append([]interface{}{category}, params...)...)
}
