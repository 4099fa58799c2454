//go:build linux && !tinygo

package mmio

import (
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Device is a physical window mapped into this process through a memory
// device file (usually /dev/mem, or a UIO node). It lets a hosted program
// poke a real CLINT and mailbox. Every access is a single atomic load or
// store of the access width; Go's atomics are fully ordered, which subsumes
// both fences.
type Device struct {
	base uintptr
	mem  []byte
	size uintptr
	f    *os.File
}

var _ Region = (*Device)(nil)

// OpenDevice maps size bytes at physical address base of path. base must be
// page aligned.
func OpenDevice(path string, base, size uintptr) (*Device, error) {
	page := uintptr(unix.Getpagesize())
	if base%page != 0 {
		return nil, fmt.Errorf("mmio: base %#x is not page aligned", base)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("mmio: open %s: %w", path, err)
	}
	length := (size + page - 1) &^ (page - 1)
	mem, err := unix.Mmap(int(f.Fd()), int64(base), int(length),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmio: mmap %s at %#x: %w", path, base, err)
	}
	return &Device{base: base, mem: mem, size: size, f: f}, nil
}

func (d *Device) Close() error {
	err := unix.Munmap(d.mem)
	if cerr := d.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (d *Device) Base() uintptr { return d.base }
func (d *Device) Size() uintptr { return d.size }

func (d *Device) Fence(Fence) {}

func (d *Device) ptr(off uintptr, width int, store bool) unsafe.Pointer {
	checkAccess(d.base, off, width, d.size, store)
	return unsafe.Pointer(&d.mem[off])
}

// There is no 8 or 16 bit atomic in sync/atomic, so narrow accesses go
// through the containing 32 bit word.
func (d *Device) word(off uintptr) *uint32 {
	return (*uint32)(unsafe.Pointer(&d.mem[off&^3]))
}

func (d *Device) Load8(off uintptr) uint8 {
	checkAccess(d.base, off, 1, d.size, false)
	return uint8(atomic.LoadUint32(d.word(off)) >> ((off & 3) * 8))
}

func (d *Device) Load16(off uintptr) uint16 {
	checkAccess(d.base, off, 2, d.size, false)
	return uint16(atomic.LoadUint32(d.word(off)) >> ((off & 3) * 8))
}

func (d *Device) Load32(off uintptr) uint32 {
	return atomic.LoadUint32((*uint32)(d.ptr(off, 4, false)))
}

func (d *Device) Load64(off uintptr) uint64 {
	return atomic.LoadUint64((*uint64)(d.ptr(off, 8, false)))
}

func (d *Device) storeNarrow(off uintptr, width int, v uint32) {
	checkAccess(d.base, off, width, d.size, true)
	p := d.word(off)
	shift := (off & 3) * 8
	mask := (uint32(1)<<(uint(width)*8) - 1) << shift
	for {
		old := atomic.LoadUint32(p)
		if atomic.CompareAndSwapUint32(p, old, (old&^mask)|((v<<shift)&mask)) {
			return
		}
	}
}

func (d *Device) Store8(off uintptr, v uint8)   { d.storeNarrow(off, 1, uint32(v)) }
func (d *Device) Store16(off uintptr, v uint16) { d.storeNarrow(off, 2, uint32(v)) }

func (d *Device) Store32(off uintptr, v uint32) {
	atomic.StoreUint32((*uint32)(d.ptr(off, 4, true)), v)
}

func (d *Device) Store64(off uintptr, v uint64) {
	atomic.StoreUint64((*uint64)(d.ptr(off, 8, true)), v)
}
