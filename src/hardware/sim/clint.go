package sim

import (
	"sync/atomic"
	"time"

	"tcore/src/hardware/clint"
	"tcore/src/hardware/mmio"
)

// CLINT is a software model of the core-local interruptor. Plain registers
// live in a Memory; mtime is computed from the host's monotonic clock, and
// MSIP writes are reported so sleeping harts can be woken.
type CLINT struct {
	*mmio.Memory
	harts  int
	start  time.Time
	tick   time.Duration
	offset atomic.Int64
	onMSIP func(hart int)
}

var _ mmio.Region = (*CLINT)(nil)

func newCLINT(base uintptr, harts int, tick time.Duration, onMSIP func(int)) *CLINT {
	c := &CLINT{
		Memory: mmio.NewMemoryAt(base, clint.Size),
		harts:  harts,
		start:  time.Now(),
		tick:   tick,
		onMSIP: onMSIP,
	}
	c.Memory.Observe(c.stored)
	return c
}

func (c *CLINT) ticks() uint64 {
	return uint64(int64(time.Since(c.start)/c.tick) + c.offset.Load())
}

func (c *CLINT) isMTime(off uintptr) bool {
	return off >= clint.MTimeOffset && off < clint.MTimeOffset+8
}

func (c *CLINT) Load32(off uintptr) uint32 {
	if c.isMTime(off) {
		c.Memory.Load32(off) // bounds, alignment, counting
		now := c.ticks()
		if off == clint.MTimeOffset {
			return uint32(now)
		}
		return uint32(now >> 32)
	}
	return c.Memory.Load32(off)
}

func (c *CLINT) Load64(off uintptr) uint64 {
	if off == clint.MTimeOffset {
		c.Memory.Load64(off)
		return c.ticks()
	}
	return c.Memory.Load64(off)
}

// Store64 to mtime moves the counter; it keeps ticking from there.
func (c *CLINT) Store64(off uintptr, v uint64) {
	if off == clint.MTimeOffset {
		c.Memory.Store64(off, v)
		c.offset.Store(int64(v) - int64(time.Since(c.start)/c.tick))
		return
	}
	c.Memory.Store64(off, v)
}

// Only bit 0 of an MSIP register exists.
func (c *CLINT) Store32(off uintptr, v uint32) {
	if off < clint.MSIPOffset+uintptr(c.harts)*clint.MSIPStride {
		v &= 1
	}
	c.Memory.Store32(off, v)
}

func (c *CLINT) stored(off uintptr, width int) {
	if off >= clint.MSIPOffset+uintptr(c.harts)*clint.MSIPStride {
		return
	}
	if c.onMSIP != nil {
		c.onMSIP(int(off / clint.MSIPStride))
	}
}

// pending is the hart-side view of MSIP, what mip.MSIP would show. It does
// not go through the bus.
func (c *CLINT) pending(hart int) bool {
	return c.Memory.Snapshot(clint.MSIPAddr(hart), 1)[0]&1 != 0
}
