// Package mmio is typed access to memory-mapped device registers.
//
// Every ordered access goes through a Register: Set issues a write-ordering
// fence (fence w,o) before the store and Get issues a read-ordering fence
// (fence i,r) after the load. That is the only thing that keeps a shared
// memory write ahead of the interrupt that announces it, and keeps a shared
// memory read behind the pending-bit check that allowed it.
package mmio

// Fence selects one of the two ordering fences the accessors use.
type Fence int

const (
	// FenceWO orders prior memory writes before a following device write.
	FenceWO Fence = iota
	// FenceIR orders a device read before following memory reads.
	FenceIR
)

func (f Fence) String() string {
	if f == FenceWO {
		return "fence w,o"
	}
	return "fence i,r"
}

// Region is a window of device-adjacent memory. The raw accessors do no
// ordering; use the Register types for that. Offsets must be naturally
// aligned for the access size.
type Region interface {
	Load8(off uintptr) uint8
	Load16(off uintptr) uint16
	Load32(off uintptr) uint32
	Load64(off uintptr) uint64
	Store8(off uintptr, v uint8)
	Store16(off uintptr, v uint16)
	Store32(off uintptr, v uint32)
	Store64(off uintptr, v uint64)
	Fence(f Fence)
	Size() uintptr
}

// Register8 is an 8 bit register at a fixed offset of a region.
type Register8 struct {
	r   Region
	off uintptr
}

func Reg8(r Region, off uintptr) Register8 { return Register8{r: r, off: off} }

func (reg Register8) Get() uint8 {
	v := reg.r.Load8(reg.off)
	reg.r.Fence(FenceIR)
	return v
}

func (reg Register8) Set(v uint8) {
	reg.r.Fence(FenceWO)
	reg.r.Store8(reg.off, v)
}

// Register16 is a 16 bit register at a fixed offset of a region.
type Register16 struct {
	r   Region
	off uintptr
}

func Reg16(r Region, off uintptr) Register16 { return Register16{r: r, off: off} }

func (reg Register16) Get() uint16 {
	v := reg.r.Load16(reg.off)
	reg.r.Fence(FenceIR)
	return v
}

func (reg Register16) Set(v uint16) {
	reg.r.Fence(FenceWO)
	reg.r.Store16(reg.off, v)
}

// Register32 is a 32 bit register at a fixed offset of a region. The method
// set follows tinygo's volatile.Register32.
type Register32 struct {
	r   Region
	off uintptr
}

func Reg32(r Region, off uintptr) Register32 { return Register32{r: r, off: off} }

func (reg Register32) Get() uint32 {
	v := reg.r.Load32(reg.off)
	reg.r.Fence(FenceIR)
	return v
}

func (reg Register32) Set(v uint32) {
	reg.r.Fence(FenceWO)
	reg.r.Store32(reg.off, v)
}

// SetBits is a read-modify-write, not atomic with respect to other writers.
func (reg Register32) SetBits(v uint32) {
	reg.Set(reg.Get() | v)
}

// ClearBits is a read-modify-write, not atomic with respect to other writers.
func (reg Register32) ClearBits(v uint32) {
	reg.Set(reg.Get() &^ v)
}

func (reg Register32) HasBits(v uint32) bool {
	return reg.Get()&v > 0
}

// Register64 is a 64 bit register at a fixed offset of a region.
type Register64 struct {
	r   Region
	off uintptr
}

func Reg64(r Region, off uintptr) Register64 { return Register64{r: r, off: off} }

func (reg Register64) Get() uint64 {
	v := reg.r.Load64(reg.off)
	reg.r.Fence(FenceIR)
	return v
}

func (reg Register64) Set(v uint64) {
	reg.r.Fence(FenceWO)
	reg.r.Store64(reg.off, v)
}
