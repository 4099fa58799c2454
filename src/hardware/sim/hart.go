package sim

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"tcore/src/hardware/mmio"
	"tcore/src/hardware/riscv"
	"tcore/src/lib/trap"
)

// Hart is one simulated hart. It implements riscv.Hart.
type Hart struct {
	m    *Machine
	id   int
	msie atomic.Bool

	wfis   atomic.Uint64
	pauses atomic.Uint64
}

var _ riscv.Hart = (*Hart)(nil)

func (h *Hart) ID() int { return h.id }

func (h *Hart) EnableSoftwareInterrupt() {
	h.msie.Store(true)
}

func (h *Hart) SoftwareInterruptEnabled() bool {
	return h.msie.Load()
}

// WaitForInterrupt returns once this hart has an enabled software interrupt
// pending. With the interrupt masked it never returns, until power off.
func (h *Hart) WaitForInterrupt() error {
	h.wfis.Add(1)
	m := h.m
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		if m.halted {
			return riscv.ErrHalted
		}
		if h.msie.Load() && m.clint.pending(h.id) {
			return nil
		}
		m.cond.Wait()
	}
}

func (h *Hart) Pause() error {
	h.pauses.Add(1)
	if h.m.Halted() {
		return riscv.ErrHalted
	}
	runtime.Gosched()
	return nil
}

// Counts reports how many wfi and pause instructions this hart executed.
func (h *Hart) Counts() (wfi, pause uint64) {
	return h.wfis.Load(), h.pauses.Load()
}

// FaultError is how a hart that took an access fault stops.
type FaultError struct {
	Frame *trap.Frame
	Fault *mmio.Fault
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("trap: %s, mepc %#x", e.Fault, e.Frame.Regs.MEPC)
}

func (e *FaultError) Unwrap() error { return e.Fault }

// run executes entry on this hart. A bus fault becomes a trap: the frame is
// built the way trap entry would, the handler runs on it, and the hart stops.
func (h *Hart) run(entry func(riscv.Hart) error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		f, ok := r.(*mmio.Fault)
		if !ok {
			panic(r)
		}
		var regs trap.Registers
		regs.X[trap.RegA0] = uint64(h.id)
		regs.MStatus = riscv.WithPreviousPrivilege(0, riscv.PrivilegeMachine)
		frame := trap.Enter(regs, trap.Info{
			Cause: riscv.Cause(f.Cause),
			Tval:  uint64(f.Addr),
		})
		h.m.trapHandler(frame)
		h.m.log.Errorf("hart %d: %s", h.id, f)
		err = &FaultError{Frame: frame, Fault: f}
	}()
	return entry(h)
}
