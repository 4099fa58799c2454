package smp

import (
	"errors"
	"sync"
	"testing"
	"time"

	"tcore/src/hardware/clint"
	"tcore/src/hardware/riscv"
	"tcore/src/hardware/sim"
	"tcore/src/hardware/tcore"
)

func newMachine(t *testing.T) *sim.Machine {
	t.Helper()
	m, err := sim.NewMachine(tcore.Default())
	if err != nil {
		t.Fatalf("unable to build machine: %v", err)
	}
	t.Cleanup(m.PowerOff)
	return m
}

func TestBootReleasesEveryHart(t *testing.T) {
	m := newMachine(t)
	b := NewBarrier(m.Controller())
	ran := make([]bool, tcore.MaxHarts)
	mark := func(h riscv.Hart) error {
		ran[h.ID()] = true
		return nil
	}
	if err := m.Run(func(h riscv.Hart) error { return b.Boot(h, mark, mark) }); err != nil {
		t.Fatalf("boot failed: %v", err)
	}
	ic := m.Controller()
	if b.Running() != AllHarts(tcore.MaxHarts) {
		t.Errorf("running set is %s", b.Running())
	}
	for h := 0; h < tcore.MaxHarts; h++ {
		if ic.IsPending(h) {
			t.Errorf("hart %d still pending after the barrier", h)
		}
		if b.State(h) != StateRunning {
			t.Errorf("hart %d in state %s, expected RUNNING", h, b.State(h))
		}
		if !ran[h] {
			t.Errorf("hart %d never reached its main", h)
		}
		if ic.TimerCompare(h) != ^uint64(0) {
			t.Errorf("hart %d timer compare not quieted", h)
		}
	}
}

func TestBootWithLateSecondaries(t *testing.T) {
	m := newMachine(t)
	b := NewBarrier(m.Controller())
	m.Start(0, func(h riscv.Hart) error { return b.Boot(h, nil, nil) })
	waitForState(t, b, 0, StateSweep)
	time.Sleep(10 * time.Millisecond)
	for id := 1; id < tcore.MaxHarts; id++ {
		m.Start(id, func(h riscv.Hart) error { return b.Boot(h, nil, nil) })
	}
	if err := m.Wait(); err != nil {
		t.Fatalf("boot failed: %v", err)
	}
	if b.SweepPolls() == 0 {
		t.Errorf("primary should have polled while the secondaries were away")
	}
}

// The primary broadcasts to 1..4, then each bit is cleared from outside
// with no secondary code running. The sweep only lets go after the last one.
func TestSweepWaitsForEveryAcknowledge(t *testing.T) {
	m := newMachine(t)
	ic := m.Controller()
	b := NewBarrier(ic)
	m.Start(0, b.Release)
	waitForState(t, b, 0, StateSweep)

	for id := 1; id < tcore.MaxHarts; id++ {
		if !ic.IsPending(id) {
			t.Errorf("broadcast did not reach hart %d", id)
		}
	}
	for id := 1; id < tcore.MaxHarts-1; id++ {
		ic.Clear(id)
	}
	time.Sleep(20 * time.Millisecond)
	if b.State(0) != StateSweep {
		t.Errorf("primary left the sweep with hart 4 still pending: %s", b.State(0))
	}
	ic.Clear(tcore.MaxHarts - 1)
	if err := m.Wait(); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	for id := 1; id < tcore.MaxHarts; id++ {
		if ic.IsPending(id) {
			t.Errorf("hart %d pending after release", id)
		}
	}
	if b.State(0) != StateRunning {
		t.Errorf("primary should be running, is %s", b.State(0))
	}
}

func TestRoles(t *testing.T) {
	m := newMachine(t)
	b := NewBarrier(m.Controller(), WithPrimary(2))
	if err := b.Park(m.Hart(2)); !errors.Is(err, ErrPrimary) {
		t.Errorf("primary parked: %v", err)
	}
	if err := b.Release(m.Hart(0)); !errors.Is(err, ErrNotPrimary) {
		t.Errorf("secondary released: %v", err)
	}
}

func TestPowerOffDuringSweep(t *testing.T) {
	m := newMachine(t)
	b := NewBarrier(m.Controller())
	m.Start(0, b.Release)
	waitForState(t, b, 0, StateSweep)
	m.PowerOff()
	if err := m.Wait(); !errors.Is(err, riscv.ErrHalted) {
		t.Errorf("expected ErrHalted, got %v", err)
	}
}

func TestPowerOffWhileParked(t *testing.T) {
	m := newMachine(t)
	b := NewBarrier(m.Controller())
	m.Start(3, func(h riscv.Hart) error { return b.Boot(h, nil, nil) })
	waitForState(t, b, 3, StateParked)
	m.PowerOff()
	if err := m.Wait(); !errors.Is(err, riscv.ErrHalted) {
		t.Errorf("expected ErrHalted, got %v", err)
	}
	if b.State(3) != StateParked {
		t.Errorf("hart 3 should still be parked, is %s", b.State(3))
	}
}

func waitForState(t *testing.T, b *Barrier, id int, s State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for b.State(id) != s {
		if time.Now().After(deadline) {
			t.Fatalf("hart %d never reached %s (at %s)", id, s, b.State(id))
		}
		time.Sleep(time.Millisecond)
	}
}

// armedLog records whether a hart's bit was still set when it logged ARMED.
type armedLog struct {
	ic      *clint.Controller
	mu      sync.Mutex
	pending map[int]bool
}

func (l *armedLog) Errorf(string, ...interface{}) {}
func (l *armedLog) Warnf(string, ...interface{})  {}
func (l *armedLog) Infof(string, ...interface{})  {}

func (l *armedLog) Debugf(format string, params ...interface{}) {
	if len(params) != 2 || params[1] != StateArmed {
		return
	}
	id := params[0].(int)
	l.mu.Lock()
	l.pending[id] = l.ic.IsPending(id)
	l.mu.Unlock()
}

func TestArmedHasAcknowledged(t *testing.T) {
	m := newMachine(t)
	ic := m.Controller()
	log := &armedLog{ic: ic, pending: map[int]bool{}}
	b := NewBarrier(ic, WithLogger(log))
	if err := m.Run(func(h riscv.Hart) error { return b.Boot(h, nil, nil) }); err != nil {
		t.Fatalf("boot failed: %v", err)
	}
	for id := 1; id < tcore.MaxHarts; id++ {
		still, ok := log.pending[id]
		if !ok {
			t.Errorf("hart %d never armed", id)
		} else if still {
			t.Errorf("hart %d armed before clearing its bit", id)
		}
	}
}
