//go:build tinygo && riscv64

package riscv

import (
	device "github.com/tinygo-org/tinygo/src/device/riscv"
)

// Local is the hart this code is executing on.
type Local struct{}

var _ Hart = Local{}

func (Local) ID() int {
	return int(device.MHARTID.Get())
}

// EnableSoftwareInterrupt sets mie.MSIE. Global interrupts (mstatus.MIE) stay
// off: wfi still wakes for a pending, locally enabled interrupt.
func (Local) EnableSoftwareInterrupt() {
	device.MIE.SetBits(MIE_MSIE)
}

// WaitForInterrupt skips the wfi when mip.MSIP is already up.
func (l Local) WaitForInterrupt() error {
	if !l.SoftwarePending() {
		device.Asm("wfi")
	}
	return nil
}

func (Local) Pause() error {
	device.Asm("pause")
	return nil
}

// SoftwarePending reads mip.MSIP directly.
func (Local) SoftwarePending() bool {
	return device.MIP.Get()&MIP_MSIP != 0
}
