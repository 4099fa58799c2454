// Package clint drives the core-local interruptor: one software interrupt
// pending bit (MSIP) and one timer compare register per hart, plus the
// shared mtime counter.
//
// Any hart may raise any hart's MSIP bit. Only the owner of a bit should
// observe and clear it.
package clint

import (
	"tcore/src/hardware/mmio"
)

// Register layout, relative to the CLINT base.
const (
	MSIPOffset     = 0x0000
	MSIPStride     = 0x4
	MTimeCmpOffset = 0x4000
	MTimeCmpStride = 0x8
	MTimeOffset    = 0xbff8
	Size           = 0x10000
)

// MSIP registers are one bit wide; the rest reads as zero.
const msipBit = 0x1

// TimeCmpNever is the compare value that keeps a hart's timer interrupt low.
const TimeCmpNever = ^uint64(0)

type Controller struct {
	regs  mmio.Region
	harts int
}

// New binds a controller to the CLINT register window. harts is the number
// of harts wired to it; a hart id at or above it is a configuration error
// and is not checked here.
func New(regs mmio.Region, harts int) *Controller {
	return &Controller{regs: regs, harts: harts}
}

func (c *Controller) Harts() int { return c.harts }

func MSIPAddr(hart int) uintptr {
	return MSIPOffset + uintptr(hart)*MSIPStride
}

func MTimeCmpAddr(hart int) uintptr {
	return MTimeCmpOffset + uintptr(hart)*MTimeCmpStride
}

func (c *Controller) msip(hart int) mmio.Register32 {
	return mmio.Reg32(c.regs, MSIPAddr(hart))
}

// Raise sets hart's pending bit. Raising a set bit does nothing more.
func (c *Controller) Raise(hart int) {
	c.msip(hart).Set(msipBit)
}

// Clear acknowledges hart's pending bit. Clearing a clear bit does nothing
// more.
func (c *Controller) Clear(hart int) {
	c.msip(hart).Set(0)
}

// IsPending reads hart's pending bit. It never blocks.
func (c *Controller) IsPending(hart int) bool {
	return c.msip(hart).HasBits(msipBit)
}

// Timer reads mtime.
func (c *Controller) Timer() uint64 {
	return mmio.Reg64(c.regs, MTimeOffset).Get()
}

func (c *Controller) SetTimerCompare(hart int, value uint64) {
	mmio.Reg64(c.regs, MTimeCmpAddr(hart)).Set(value)
}

func (c *Controller) TimerCompare(hart int) uint64 {
	return mmio.Reg64(c.regs, MTimeCmpAddr(hart)).Get()
}

// QuietTimers pushes every hart's compare value to the end of time, so a
// stale timer interrupt cannot satisfy a wfi meant for an IPI.
func (c *Controller) QuietTimers() {
	for h := 0; h < c.harts; h++ {
		c.SetTimerCompare(h, TimeCmpNever)
	}
}
