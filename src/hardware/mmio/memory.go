package mmio

import (
	"sync/atomic"
)

// Memory is a software register file. Each naturally aligned access is
// atomic, so harts running as goroutines can share it the way real harts
// share a device: torn values are impossible, ordering comes from the
// fences (which here are the atomics themselves and are only counted).
type Memory struct {
	base  uintptr
	size  uintptr
	words []uint64

	observer func(off uintptr, width int)

	loads  atomic.Uint64
	stores atomic.Uint64
	fences [2]atomic.Uint64
}

var _ Region = (*Memory)(nil)

// NewMemory returns a zeroed region of size bytes.
func NewMemory(size uintptr) *Memory {
	return NewMemoryAt(0, size)
}

// NewMemoryAt is NewMemory for a region that stands in for the physical
// window at base. The base only shows up in fault addresses.
func NewMemoryAt(base, size uintptr) *Memory {
	return &Memory{
		base:  base,
		size:  size,
		words: make([]uint64, (size+7)/8),
	}
}

// Observe installs fn to be called after every store. It must be called
// before the memory is shared.
func (m *Memory) Observe(fn func(off uintptr, width int)) {
	m.observer = fn
}

func (m *Memory) Base() uintptr { return m.base }
func (m *Memory) Size() uintptr { return m.size }

func (m *Memory) Fence(f Fence) {
	m.fences[f].Add(1)
}

func (m *Memory) load(off uintptr, width int) uint64 {
	checkAccess(m.base, off, width, m.size, false)
	m.loads.Add(1)
	w := atomic.LoadUint64(&m.words[off>>3])
	if width == 8 {
		return w
	}
	return (w >> ((off & 7) * 8)) & (uint64(1)<<(uint(width)*8) - 1)
}

func (m *Memory) store(off uintptr, width int, v uint64) {
	checkAccess(m.base, off, width, m.size, true)
	m.stores.Add(1)
	p := &m.words[off>>3]
	if width == 8 {
		atomic.StoreUint64(p, v)
	} else {
		shift := (off & 7) * 8
		mask := (uint64(1)<<(uint(width)*8) - 1) << shift
		for {
			old := atomic.LoadUint64(p)
			next := (old &^ mask) | ((v << shift) & mask)
			if atomic.CompareAndSwapUint64(p, old, next) {
				break
			}
		}
	}
	if m.observer != nil {
		m.observer(off, width)
	}
}

func (m *Memory) Load8(off uintptr) uint8   { return uint8(m.load(off, 1)) }
func (m *Memory) Load16(off uintptr) uint16 { return uint16(m.load(off, 2)) }
func (m *Memory) Load32(off uintptr) uint32 { return uint32(m.load(off, 4)) }
func (m *Memory) Load64(off uintptr) uint64 { return m.load(off, 8) }

func (m *Memory) Store8(off uintptr, v uint8)   { m.store(off, 1, uint64(v)) }
func (m *Memory) Store16(off uintptr, v uint16) { m.store(off, 2, uint64(v)) }
func (m *Memory) Store32(off uintptr, v uint32) { m.store(off, 4, uint64(v)) }
func (m *Memory) Store64(off uintptr, v uint64) { m.store(off, 8, v) }

// Snapshot copies n bytes starting at off without fences or counting.
func (m *Memory) Snapshot(off uintptr, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		a := off + uintptr(i)
		w := atomic.LoadUint64(&m.words[a>>3])
		out[i] = byte(w >> ((a & 7) * 8))
	}
	return out
}

// Stats is a count of accesses since the memory was created.
type Stats struct {
	Loads   uint64
	Stores  uint64
	FenceWO uint64
	FenceIR uint64
}

func (m *Memory) Stats() Stats {
	return Stats{
		Loads:   m.loads.Load(),
		Stores:  m.stores.Load(),
		FenceWO: m.fences[FenceWO].Load(),
		FenceIR: m.fences[FenceIR].Load(),
	}
}
