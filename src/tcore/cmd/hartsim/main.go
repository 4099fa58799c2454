package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"tcore/src/hardware/clint"
	"tcore/src/hardware/riscv"
	"tcore/src/hardware/sim"
	"tcore/src/hardware/tcore"
	"tcore/src/lib/mailbox"
	"tcore/src/lib/smp"
	"tcore/src/lib/trap"
	"tcore/src/lib/trust"
)

var helpFlag = flag.Bool("h", false, "get usage info")
var hartsFlag = flag.Int("harts", tcore.MaxHarts, "number of harts on the simulated board")
var mailboxFlag = flag.Int("mailbox", int(tcore.MailboxSize), "mailbox size in bytes, the NUL included")
var tickFlag = flag.Duration("tick", sim.DefaultTick, "host time per mtime tick")
var verbose = flag.Int("v", 1, "verbosity level: 0 warnings only, 1 hart messages (default), 2 show everything")
var ttyFlag = flag.String("tty", "", "terminal device for the console (default: the controlling terminal)")

var sends sendList

func init() {
	flag.Var(&sends, "send", "hart:message to send instead of prompting, may be repeated")
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: hartsim [flags]\n")
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	flag.Parse()
	if *helpFlag || flag.NArg() != 0 {
		usage()
	}
	trust.Verbosity(*verbose)

	size, err := mailboxSize(*mailboxFlag)
	if err != nil {
		trust.Fatalf(1, "%v", err)
	}
	cfg := tcore.Default()
	cfg.Harts = *hartsFlag
	cfg.MailboxSize = size
	m, err := sim.NewMachine(cfg,
		sim.WithTick(*tickFlag),
		sim.WithTrapHandler(reportTrap),
		sim.WithLogger(trust.Std))
	if err != nil {
		trust.Fatalf(1, "%v", err)
	}

	var src source
	if sends.Len() > 0 {
		if err := sends.check(cfg); err != nil {
			trust.Fatalf(1, "%v", err)
		}
		src = &sends
	} else {
		con, err := openConsole(*ttyFlag, cfg)
		if err != nil {
			trust.Fatalf(1, "unable to open console: %v", err)
		}
		defer con.Close()
		src = con
	}

	s := newSession(m, src)
	err = m.Run(func(h riscv.Hart) error {
		return s.barrier.Boot(h, s.primary, s.secondary)
	})
	if !onlyHalted(err) {
		trust.Fatalf(1, "%v", err)
	}
	clintStats, mboxStats, wakes := m.Stats()
	sent, received := s.ch.Counts()
	trust.Statsf("clint", "%d loads, %d stores, %d wakes", clintStats.Loads, clintStats.Stores, wakes)
	trust.Statsf("mailbox", "%d sent, %d received, %d byte stores", sent, received, mboxStats.Stores)
}

// mailboxSize checks the -mailbox value while it is still a signed int.
func mailboxSize(n int) (uintptr, error) {
	if n < 2 || uintptr(n) > tcore.MailboxLimit {
		return 0, fmt.Errorf("-mailbox %d not in [2,%d]", n, tcore.MailboxLimit)
	}
	return uintptr(n), nil
}

// session is the firmware's test loop on a simulated board: the primary
// takes a target and a line from its source, posts it and waits for the
// acknowledge; every secondary prints what it gets and acknowledges.
type session struct {
	m       *sim.Machine
	ic      *clint.Controller
	barrier *smp.Barrier
	ch      *mailbox.Channel
	src     source
}

func newSession(m *sim.Machine, src source) *session {
	cfg := m.Config()
	ic := m.Controller()
	return &session{
		m:       m,
		ic:      ic,
		barrier: smp.NewBarrier(ic, smp.WithPrimary(cfg.Primary), smp.WithLogger(trust.ForHart(cfg.Primary))),
		ch:      mailbox.New(ic, m.Mailbox(), mailbox.WithLogger(trust.ForHart(cfg.Primary))),
		src:     src,
	}
}

func (s *session) primary(h riscv.Hart) error {
	log := trust.ForHart(h.ID())
	log.Infof("Test IPI")
	for {
		target, msg, err := s.src.Next()
		if err == io.EOF {
			s.m.PowerOff()
			return nil
		}
		if err != nil {
			s.m.PowerOff()
			return err
		}
		if err := s.ch.Send(h.ID(), target, []byte(msg)); err != nil {
			log.Warnf("%v", err)
			continue
		}
		log.Infof("Send software interrupt. Hartid=%d", target)
		if err := smp.WaitIPI(s.ic, h); err != nil {
			return err
		}
		s.src.Finished(target)
	}
}

func (s *session) secondary(h riscv.Hart) error {
	log := trust.ForHart(h.ID())
	from := s.barrier.Primary()
	for {
		msg, err := s.ch.Receive(h)
		if errors.Is(err, mailbox.ErrNoMessage) {
			log.Debugf("%v", err)
			continue
		}
		if err != nil {
			return err
		}
		log.Infof("Software interrupt from Hart %d", from)
		log.Infof("Message from Hart %d: %s", from, msg)
		s.ch.Acknowledge(h.ID(), from)
	}
}

func reportTrap(f *trap.Frame) {
	trap.Report(f, trust.ForHart(int(f.Regs.X[trap.RegA0])))
}

// onlyHalted is true when every hart either finished or was stopped by
// power off.
func onlyHalted(err error) bool {
	if err == nil {
		return true
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range j.Unwrap() {
			if !onlyHalted(e) {
				return false
			}
		}
		return true
	}
	return errors.Is(err, riscv.ErrHalted)
}
