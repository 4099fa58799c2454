//go:build tinygo && riscv64

package mmio

import (
	"unsafe"

	"github.com/tinygo-org/tinygo/src/device/riscv"
	"github.com/tinygo-org/tinygo/src/runtime/volatile"
)

// Physical is a window of the physical address space, accessed with volatile
// loads and stores. Bounds are not checked: a bad offset is a bus fault on
// the hart.
type Physical struct {
	base uintptr
	size uintptr
}

var _ Region = Physical{}

func NewPhysical(base, size uintptr) Physical {
	return Physical{base: base, size: size}
}

func (p Physical) Base() uintptr { return p.base }
func (p Physical) Size() uintptr { return p.size }

func (p Physical) Fence(f Fence) {
	if f == FenceWO {
		riscv.Asm("fence w,o")
		return
	}
	riscv.Asm("fence i,r")
}

func (p Physical) Load8(off uintptr) uint8 {
	return (*volatile.Register8)(unsafe.Pointer(p.base + off)).Get()
}

func (p Physical) Load16(off uintptr) uint16 {
	return (*volatile.Register16)(unsafe.Pointer(p.base + off)).Get()
}

func (p Physical) Load32(off uintptr) uint32 {
	return (*volatile.Register32)(unsafe.Pointer(p.base + off)).Get()
}

func (p Physical) Load64(off uintptr) uint64 {
	return (*volatile.Register64)(unsafe.Pointer(p.base + off)).Get()
}

func (p Physical) Store8(off uintptr, v uint8) {
	(*volatile.Register8)(unsafe.Pointer(p.base + off)).Set(v)
}

func (p Physical) Store16(off uintptr, v uint16) {
	(*volatile.Register16)(unsafe.Pointer(p.base + off)).Set(v)
}

func (p Physical) Store32(off uintptr, v uint32) {
	(*volatile.Register32)(unsafe.Pointer(p.base + off)).Set(v)
}

func (p Physical) Store64(off uintptr, v uint64) {
	(*volatile.Register64)(unsafe.Pointer(p.base + off)).Set(v)
}
