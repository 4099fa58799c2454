// Package smp brings the harts up together and gives them a way to signal
// each other.
//
// Boot is a one-shot barrier. Secondaries park with their software interrupt
// unmasked. The primary raises every hart's MSIP bit (itself included),
// waits for its own, then polls until every secondary has cleared its bit.
// When Release returns, no secondary is still between waking and
// acknowledging.
package smp

import (
	"errors"
	"fmt"
	"sync/atomic"

	"tcore/src/hardware/clint"
	"tcore/src/hardware/riscv"
	"tcore/src/lib/trust"
)

// State is where a hart is in the boot barrier.
type State int32

const (
	StateReset State = iota
	// secondary
	StateParked
	StateArmed
	// primary
	StateBroadcast
	StateWaitOwn
	StateSweep
	// both
	StateRunning
)

var stateNames = map[State]string{
	StateReset:     "RESET",
	StateParked:    "PARKED",
	StateArmed:     "ARMED",
	StateBroadcast: "BROADCAST",
	StateWaitOwn:   "WAIT-OWN",
	StateSweep:     "SWEEP",
	StateRunning:   "RUNNING",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

var ErrNotPrimary = errors.New("smp: only the primary hart can release the barrier")
var ErrPrimary = errors.New("smp: the primary hart cannot park")

type Barrier struct {
	ic      *clint.Controller
	primary int
	states  []atomic.Int32
	log     trust.Logger

	polls atomic.Uint64
}

type BarrierOption func(*Barrier)

// WithPrimary picks the releasing hart. The default is hart 0.
func WithPrimary(id int) BarrierOption {
	return func(b *Barrier) { b.primary = id }
}

func WithLogger(l trust.Logger) BarrierOption {
	return func(b *Barrier) { b.log = l }
}

func NewBarrier(ic *clint.Controller, opts ...BarrierOption) *Barrier {
	b := &Barrier{
		ic:     ic,
		states: make([]atomic.Int32, ic.Harts()),
		log:    trust.Discard,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Barrier) Primary() int { return b.primary }

// State reports where hart id is. Reads race with the hart by nature; use it
// for diagnostics and for checks after the hart is known to be done.
func (b *Barrier) State(id int) State {
	return State(b.states[id].Load())
}

func (b *Barrier) set(id int, s State) {
	b.states[id].Store(int32(s))
	b.log.Debugf("barrier: hart %d %s", id, s)
}

// Running is the set of harts that have passed the barrier.
func (b *Barrier) Running() HartSet {
	var s HartSet
	for id := range b.states {
		if b.State(id) == StateRunning {
			s.Set(id)
		}
	}
	return s
}

// SweepPolls is how many times the primary re-read a still-set bit.
func (b *Barrier) SweepPolls() uint64 {
	return b.polls.Load()
}

// Park is the secondary side: unmask the software interrupt, sleep until
// woken, acknowledge. The unmask must come first; a hart that sleeps with
// the line masked never wakes.
func (b *Barrier) Park(h riscv.Hart) error {
	id := h.ID()
	if id == b.primary {
		return ErrPrimary
	}
	b.set(id, StateParked)
	h.EnableSoftwareInterrupt()
	if err := Sleep(b.ic, h); err != nil {
		return err
	}
	b.ic.Clear(id)
	b.set(id, StateArmed)
	b.set(id, StateRunning)
	return nil
}

// Release is the primary side: broadcast, wait for its own bit, then sweep
// the others until all are clear. The sweep has no bound; a secondary that
// never acknowledges keeps the primary here for good.
func (b *Barrier) Release(h riscv.Hart) error {
	id := h.ID()
	if id != b.primary {
		return ErrNotPrimary
	}
	h.EnableSoftwareInterrupt()

	b.set(id, StateBroadcast)
	n := b.ic.Harts()
	AllHarts(n).Each(func(target int) { SendIPI(b.ic, target) })

	b.set(id, StateWaitOwn)
	if err := WaitIPI(b.ic, h); err != nil {
		return err
	}

	b.set(id, StateSweep)
	rest := AllHarts(n)
	rest.Clear(id)
	for {
		rest.Each(func(target int) {
			if !b.ic.IsPending(target) {
				rest.Clear(target)
			}
		})
		if rest.Empty() {
			break
		}
		b.polls.Add(1)
		if err := h.Pause(); err != nil {
			return err
		}
	}
	b.set(id, StateRunning)
	trust.Statsf("barrier", "released %d harts, %d sweep polls", n-1, b.polls.Load())
	return nil
}

// Boot is the common entry of every hart. The primary quiets all timer
// compares (so only an IPI can end a wfi), releases the barrier and runs
// primaryMain; every other hart parks until released and runs
// secondaryMain. Either main may be nil.
func (b *Barrier) Boot(h riscv.Hart, primaryMain, secondaryMain func(riscv.Hart) error) error {
	if h.ID() == b.primary {
		b.ic.QuietTimers()
		if err := b.Release(h); err != nil {
			return err
		}
		if primaryMain == nil {
			return nil
		}
		return primaryMain(h)
	}
	if err := b.Park(h); err != nil {
		return err
	}
	if secondaryMain == nil {
		return nil
	}
	return secondaryMain(h)
}
