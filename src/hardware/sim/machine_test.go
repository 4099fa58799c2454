package sim

import (
	"errors"
	"testing"
	"time"

	"tcore/src/hardware/clint"
	"tcore/src/hardware/mmio"
	"tcore/src/hardware/riscv"
	"tcore/src/hardware/tcore"
	"tcore/src/lib/trap"
)

func newMachine(t *testing.T, opts ...Option) *Machine {
	t.Helper()
	m, err := NewMachine(tcore.Default(), opts...)
	if err != nil {
		t.Fatalf("unable to build machine: %v", err)
	}
	t.Cleanup(m.PowerOff)
	return m
}

func TestMaskedWFINeverReturns(t *testing.T) {
	m := newMachine(t)
	done := make(chan struct{})
	m.Start(1, func(h riscv.Hart) error {
		defer close(done)
		return h.WaitForInterrupt()
	})
	m.Controller().Raise(1)
	select {
	case <-done:
		t.Fatalf("wfi returned with the software interrupt masked")
	case <-time.After(20 * time.Millisecond):
	}
	m.PowerOff()
	if err := m.Wait(); !errors.Is(err, riscv.ErrHalted) {
		t.Errorf("expected ErrHalted, got %v", err)
	}
}

func TestEnabledWFIWakes(t *testing.T) {
	m := newMachine(t)
	h := m.Hart(3)
	h.EnableSoftwareInterrupt()
	m.Start(3, func(h riscv.Hart) error { return h.WaitForInterrupt() })
	time.Sleep(5 * time.Millisecond)
	m.Controller().Raise(3)
	if err := m.Wait(); err != nil {
		t.Fatalf("wfi failed: %v", err)
	}
	if wfi, _ := h.Counts(); wfi != 1 {
		t.Errorf("expected one wfi, got %d", wfi)
	}
	if _, _, wakes := m.Stats(); wakes == 0 {
		t.Errorf("MSIP write did not count as a wake")
	}
}

func TestPauseAfterPowerOff(t *testing.T) {
	m := newMachine(t)
	if err := m.Hart(0).Pause(); err != nil {
		t.Errorf("pause on a running machine: %v", err)
	}
	m.PowerOff()
	if !m.Halted() {
		t.Errorf("machine not halted")
	}
	if err := m.Hart(0).Pause(); !errors.Is(err, riscv.ErrHalted) {
		t.Errorf("expected ErrHalted, got %v", err)
	}
}

func TestMSIPIsOneBit(t *testing.T) {
	m := newMachine(t)
	c := m.CLINT()
	c.Store32(clint.MSIPAddr(2), 0xffffffff)
	if v := c.Load32(clint.MSIPAddr(2)); v != 1 {
		t.Errorf("msip[2] reads %#x, expected 1", v)
	}
	// past the last hart the window is plain memory
	c.Store32(clint.MSIPAddr(tcore.MaxHarts), 0xff)
	if v := c.Load32(clint.MSIPAddr(tcore.MaxHarts)); v != 0xff {
		t.Errorf("unwired word reads %#x", v)
	}
}

func TestMTimeStore(t *testing.T) {
	m := newMachine(t)
	c := m.CLINT()
	c.Store64(clint.MTimeOffset, 1<<40)
	now := c.Load64(clint.MTimeOffset)
	if now < 1<<40 {
		t.Errorf("mtime %d below the stored value", now)
	}
	hi := c.Load32(clint.MTimeOffset + 4)
	if hi != 1<<8 {
		t.Errorf("mtime high word %#x", hi)
	}
}

func TestFaultBecomesTrap(t *testing.T) {
	var seen *trap.Frame
	m := newMachine(t, WithTrapHandler(func(f *trap.Frame) { seen = f }))
	m.Start(2, func(h riscv.Hart) error {
		mmio.Reg32(m.Mailbox(), tcore.MailboxSize).Get()
		return nil
	})
	err := m.Wait()
	var fe *FaultError
	if !errors.As(err, &fe) {
		t.Fatalf("expected a FaultError, got %v", err)
	}
	var f *mmio.Fault
	if !errors.As(err, &f) || f.Cause != riscv.CauseLoadAccess {
		t.Errorf("fault not reachable through the error: %v", err)
	}
	if seen == nil || seen != fe.Frame {
		t.Fatalf("trap handler did not see the frame")
	}
	if seen.Info.Cause != riscv.CauseLoadAccess {
		t.Errorf("cause %s", seen.Info.Cause)
	}
	if seen.Info.Tval != uint64(tcore.MailboxBase+tcore.MailboxSize) {
		t.Errorf("tval %#x", seen.Info.Tval)
	}
	if seen.Regs.X[trap.RegA0] != 2 {
		t.Errorf("a0 should hold the hart id, got %d", seen.Regs.X[trap.RegA0])
	}
	if riscv.PreviousPrivilege(seen.Regs.MStatus) != riscv.PrivilegeMachine {
		t.Errorf("trap should come from machine mode")
	}
}

func TestBadMachine(t *testing.T) {
	cfg := tcore.Default()
	cfg.Harts = 0
	_, err := NewMachine(cfg)
	var ce *tcore.ConfigError
	if !errors.As(err, &ce) || ce.Field != "Harts" {
		t.Errorf("expected a Harts config error, got %v", err)
	}
	cfg = tcore.Default()
	cfg.MailboxSize = ^uintptr(0)
	if _, err := NewMachine(cfg); !errors.As(err, &ce) || ce.Field != "MailboxSize" {
		t.Errorf("wrapping mailbox accepted: %v", err)
	}
	if _, err := NewMachine(tcore.Default(), WithTick(0)); err == nil {
		t.Errorf("zero tick accepted")
	}
}
