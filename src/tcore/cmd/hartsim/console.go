package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	tty "github.com/mattn/go-tty"

	"tcore/src/hardware/tcore"
	"tcore/src/lib/trust"
)

// source is where the primary gets its next line from.
type source interface {
	// Next returns io.EOF when there is nothing more to send.
	Next() (target int, msg string, err error)
	// Finished is called once target has acknowledged.
	Finished(target int)
}

var errOutOfRange = errors.New("Hartid out of range!")

// parseTarget accepts any hart id on the board except the primary's own.
func parseTarget(s string, cfg tcore.Config) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || id < 0 || id >= cfg.Harts || id == cfg.Primary {
		return 0, errOutOfRange
	}
	return id, nil
}

///////////////////////////////////////////////////////////////////////
// ttyConsole prompts on a terminal, the way the firmware does on its uart
///////////////////////////////////////////////////////////////////////

type ttyConsole struct {
	io     *tty.TTY
	cfg    tcore.Config
	prompt *color.Color
	warn   *color.Color
}

func openConsole(path string, cfg tcore.Config) (*ttyConsole, error) {
	var t *tty.TTY
	var err error
	if path == "" {
		t, err = tty.Open()
	} else {
		t, err = tty.OpenDevice(path)
	}
	if err != nil {
		return nil, err
	}
	return &ttyConsole{
		io:     t,
		cfg:    cfg,
		prompt: color.New(color.FgCyan),
		warn:   color.New(color.FgYellow),
	}, nil
}

func (c *ttyConsole) Close() error {
	return c.io.Close()
}

// readLine returns io.EOF for a line that is just "q".
func (c *ttyConsole) readLine() (string, error) {
	line, err := c.io.ReadString()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(line) == "q" {
		return "", io.EOF
	}
	return line, nil
}

func (c *ttyConsole) Next() (int, string, error) {
	out := c.io.Output()
	var target int
	for {
		c.prompt.Fprintln(out, "Input hartid to wake up target hart: ")
		line, err := c.readLine()
		if err != nil {
			return 0, "", err
		}
		target, err = parseTarget(line, c.cfg)
		if err == nil {
			break
		}
		c.warn.Fprintln(out, err)
	}
	c.prompt.Fprintln(out, "Input message: ")
	msg, err := c.readLine()
	if err != nil {
		return 0, "", err
	}
	return target, msg, nil
}

func (c *ttyConsole) Finished(target int) {
	c.prompt.Fprintf(c.io.Output(), "Finished receiving. Hartid=%d\n", target)
}

///////////////////////////////////////////////////////////////////////
// sendList is the -send flag: a fixed script instead of a terminal
///////////////////////////////////////////////////////////////////////

type scriptLine struct {
	hart string
	msg  string
}

type sendList struct {
	lines  []scriptLine
	target []int
	next   int
}

func (l *sendList) String() string {
	parts := make([]string, len(l.lines))
	for i, s := range l.lines {
		parts[i] = s.hart + ":" + s.msg
	}
	return strings.Join(parts, ",")
}

func (l *sendList) Set(v string) error {
	hart, msg, ok := strings.Cut(v, ":")
	if !ok {
		return fmt.Errorf("expected hart:message, got %q", v)
	}
	l.lines = append(l.lines, scriptLine{hart: hart, msg: msg})
	return nil
}

// check resolves every hart id against cfg; -harts may come after -send on
// the command line, so this waits until all flags are parsed.
func (l *sendList) check(cfg tcore.Config) error {
	l.target = make([]int, len(l.lines))
	for i, s := range l.lines {
		id, err := parseTarget(s.hart, cfg)
		if err != nil {
			return fmt.Errorf("-send %s:%s: %w", s.hart, s.msg, err)
		}
		l.target[i] = id
	}
	return nil
}

func (l *sendList) Len() int { return len(l.lines) }

func (l *sendList) Next() (int, string, error) {
	if l.next >= len(l.lines) {
		return 0, "", io.EOF
	}
	i := l.next
	l.next++
	return l.target[i], l.lines[i].msg, nil
}

func (l *sendList) Finished(target int) {
	trust.Infof("Finished receiving. Hartid=%d", target)
}
