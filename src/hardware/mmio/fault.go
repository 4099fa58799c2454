package mmio

import (
	"fmt"

	"tcore/src/hardware/riscv"
)

// Fault describes an access the bus would reject. Software backends panic
// with a *Fault; the panic stands in for the trap a real hart would take.
type Fault struct {
	Cause riscv.Cause
	Addr  uintptr
	Width int
}

func (f *Fault) Error() string {
	return fmt.Sprintf("mmio: %s at %#x (width %d)", f.Cause, f.Addr, f.Width)
}

// IsStore reports whether the fault came from a write.
func (f *Fault) IsStore() bool {
	return f.Cause == riscv.CauseMisalignedStore || f.Cause == riscv.CauseStoreAccess
}

func checkAccess(base, off uintptr, width int, size uintptr, store bool) {
	var cause riscv.Cause
	switch {
	case off%uintptr(width) != 0:
		cause = riscv.CauseMisalignedLoad
		if store {
			cause = riscv.CauseMisalignedStore
		}
	case off >= size || size-off < uintptr(width):
		cause = riscv.CauseLoadAccess
		if store {
			cause = riscv.CauseStoreAccess
		}
	default:
		return
	}
	panic(&Fault{Cause: cause, Addr: base + off, Width: width})
}
