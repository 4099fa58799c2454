package smp

import (
	"tcore/src/hardware/clint"
	"tcore/src/hardware/riscv"
)

// WaitIPI sleeps until h's pending bit is set, then clears it. The hart's
// software interrupt must already be unmasked or this never returns.
//
// There is no timeout: a peer that never raises the bit leaves h here
// forever.
func WaitIPI(ic *clint.Controller, h riscv.Hart) error {
	if err := Sleep(ic, h); err != nil {
		return err
	}
	ic.Clear(h.ID())
	return nil
}

// Sleep is WaitIPI without the acknowledge.
func Sleep(ic *clint.Controller, h riscv.Hart) error {
	id := h.ID()
	for !ic.IsPending(id) {
		if err := h.WaitForInterrupt(); err != nil {
			return err
		}
	}
	return nil
}

// SendIPI raises target's pending bit.
func SendIPI(ic *clint.Controller, target int) {
	ic.Raise(target)
}
