package riscv

import "errors"

// ErrHalted is returned by a wait on a hart whose machine has been powered
// off. Real hardware never returns it.
var ErrHalted = errors.New("hart halted")

// Hart is the hart-local view a protocol needs: who am I, unmask my software
// interrupt line, sleep until an interrupt might be pending, and a spin hint.
//
// WaitForInterrupt may return without any interrupt pending (wfi is allowed
// to), so callers always loop on their own condition.
type Hart interface {
	ID() int
	EnableSoftwareInterrupt()
	WaitForInterrupt() error
	Pause() error
}
