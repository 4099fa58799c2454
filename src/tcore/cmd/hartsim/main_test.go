package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"

	"tcore/src/hardware/riscv"
	"tcore/src/hardware/sim"
	"tcore/src/hardware/tcore"
	"tcore/src/lib/trust"
)

func TestParseTarget(t *testing.T) {
	cfg := tcore.Default()
	for _, s := range []string{"1", " 4\n", "2"} {
		if _, err := parseTarget(s, cfg); err != nil {
			t.Errorf("%q rejected: %v", s, err)
		}
	}
	for _, s := range []string{"0", "5", "-1", "x", ""} {
		if _, err := parseTarget(s, cfg); !errors.Is(err, errOutOfRange) {
			t.Errorf("%q accepted", s)
		}
	}
}

func TestSendList(t *testing.T) {
	var l sendList
	if err := l.Set("no colon"); err == nil {
		t.Errorf("line without a hart accepted")
	}
	l.Set("1:hello")
	l.Set("3:a:b")
	if err := l.check(tcore.Default()); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if l.String() != "1:hello,3:a:b" {
		t.Errorf("unexpected String %q", l.String())
	}
	target, msg, err := l.Next()
	if err != nil || target != 1 || msg != "hello" {
		t.Errorf("first line is %d %q %v", target, msg, err)
	}
	target, msg, _ = l.Next()
	if target != 3 || msg != "a:b" {
		t.Errorf("second line is %d %q", target, msg)
	}
	if _, _, err := l.Next(); err == nil {
		t.Errorf("expected EOF after the script")
	}

	var bad sendList
	bad.Set("0:to myself")
	if err := bad.check(tcore.Default()); !errors.Is(err, errOutOfRange) {
		t.Errorf("primary as target accepted: %v", err)
	}
}

func TestScriptedSession(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	prev := trust.SetOutput(&buf)
	trust.Verbosity(1)
	t.Cleanup(func() {
		trust.SetOutput(prev)
		trust.Verbosity(2)
	})

	m, err := sim.NewMachine(tcore.Default())
	if err != nil {
		t.Fatalf("unable to build machine: %v", err)
	}
	var l sendList
	for h := 1; h < tcore.MaxHarts; h++ {
		l.Set(fmt.Sprintf("%d:hello %d", h, h))
	}
	if err := l.check(m.Config()); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	s := newSession(m, &l)
	err = m.Run(func(h riscv.Hart) error { return s.barrier.Boot(h, s.primary, s.secondary) })
	if !onlyHalted(err) {
		t.Fatalf("session failed: %v", err)
	}
	out := buf.String()
	for h := 1; h < tcore.MaxHarts; h++ {
		want := fmt.Sprintf(" INFO: [HART %d] Message from Hart 0: hello %d\n", h, h)
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
		if !strings.Contains(out, fmt.Sprintf("Finished receiving. Hartid=%d\n", h)) {
			t.Errorf("hart %d never acknowledged", h)
		}
	}
	if sent, received := s.ch.Counts(); sent != 4 || received != 4 {
		t.Errorf("expected 4 messages each way, got %d/%d", sent, received)
	}
}

func TestOnlyHalted(t *testing.T) {
	halted := fmt.Errorf("hart 2: %w", riscv.ErrHalted)
	if !onlyHalted(errors.Join(halted, halted)) {
		t.Errorf("joined halts should count as a clean stop")
	}
	if onlyHalted(errors.Join(halted, errors.New("boom"))) {
		t.Errorf("a real failure was hidden")
	}
}

func TestMailboxFlag(t *testing.T) {
	for _, n := range []int{-1, 0, 1, int(tcore.MailboxLimit) + 1} {
		if _, err := mailboxSize(n); err == nil {
			t.Errorf("-mailbox %d accepted", n)
		}
	}
	if size, err := mailboxSize(16); err != nil || size != 16 {
		t.Errorf("-mailbox 16 gave %d (%v)", size, err)
	}
}
