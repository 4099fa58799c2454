// Package mailbox passes a NUL-terminated message from one hart to another
// through a shared memory region, announced with an IPI.
//
// The region holds one message. The sender writes every byte and the NUL,
// each write fenced, and only then raises the receiver's MSIP bit. The
// receiver reads nothing until it has seen that bit and cleared it. A token
// makes the one-message-in-flight rule checkable: Send takes it, the
// matching Receive gives it back after reading, and a Send while it is taken
// fails with ErrInFlight instead of overwriting the unread message.
package mailbox

import (
	"bytes"
	"errors"
	"fmt"
	"sync/atomic"

	"tcore/src/hardware/clint"
	"tcore/src/hardware/mmio"
	"tcore/src/hardware/riscv"
	"tcore/src/lib/smp"
	"tcore/src/lib/trust"
)

var ErrOutOfRange = errors.New("mailbox: message too long")
var ErrEmbeddedNUL = errors.New("mailbox: message contains a NUL byte")
var ErrInFlight = errors.New("mailbox: previous message not yet received")
var ErrNoMessage = errors.New("mailbox: woken without a message for this hart")

type Channel struct {
	ic       *clint.Controller
	region   mmio.Region
	capacity int
	log      trust.Logger

	// 0 when free, else (target+1)<<32 | (from+1), plus published once the
	// bytes are all written
	token atomic.Uint64

	sent     atomic.Uint64
	received atomic.Uint64
}

type Option func(*Channel)

// WithCapacity limits messages to n-1 bytes plus the NUL. n larger than the
// region is clamped to it.
func WithCapacity(n int) Option {
	return func(c *Channel) { c.capacity = n }
}

func WithLogger(l trust.Logger) Option {
	return func(c *Channel) { c.log = l }
}

// New builds a channel over region, signalling through ic. The channel
// borrows ic; it never binds a CLINT address of its own.
func New(ic *clint.Controller, region mmio.Region, opts ...Option) *Channel {
	c := &Channel{
		ic:       ic,
		region:   region,
		capacity: int(region.Size()),
		log:      trust.Discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.capacity > int(region.Size()) || c.capacity <= 0 {
		c.capacity = int(region.Size())
	}
	return c
}

// Capacity counts the NUL: the longest message is Capacity()-1 bytes.
func (c *Channel) Capacity() int { return c.capacity }

const published = uint64(1) << 63

func packToken(from, target int) uint64 {
	return uint64(target+1)<<32 | uint64(from+1)
}

// InFlight reports the sender and receiver of the unread message, if any.
func (c *Channel) InFlight() (from, target int, ok bool) {
	t := c.token.Load()
	if t == 0 {
		return 0, 0, false
	}
	return int(uint32(t)) - 1, int((t&^published)>>32) - 1, true
}

// Send writes msg into the mailbox and raises target's pending bit. On any
// error nothing has been written and no bit raised.
//
// Besides a message that does not fit, Send refuses one containing a NUL
// (ErrEmbeddedNUL): the receiver would stop at it and see a shorter message
// than was sent.
func (c *Channel) Send(from, target int, msg []byte) error {
	if len(msg) >= c.capacity {
		return fmt.Errorf("%w: %d bytes, capacity %d", ErrOutOfRange, len(msg), c.capacity)
	}
	if bytes.IndexByte(msg, 0) >= 0 {
		return ErrEmbeddedNUL
	}
	tok := packToken(from, target)
	if !c.token.CompareAndSwap(0, tok) {
		f, to, _ := c.InFlight()
		return fmt.Errorf("%w (hart %d to hart %d)", ErrInFlight, f, to)
	}
	for i, b := range msg {
		mmio.Reg8(c.region, uintptr(i)).Set(b)
	}
	mmio.Reg8(c.region, uintptr(len(msg))).Set(0)
	c.token.Store(tok | published)
	smp.SendIPI(c.ic, target)
	c.sent.Add(1)
	c.log.Debugf("mailbox: hart %d -> hart %d, %d bytes", from, target, len(msg))
	return nil
}

// Receive sleeps until h's pending bit is set, clears it, and returns the
// message. It does not tell the sender; see Acknowledge.
//
// If the bit was raised by something other than Send to h (a barrier
// broadcast, an acknowledge) the IPI is still consumed and ErrNoMessage is
// returned.
func (c *Channel) Receive(h riscv.Hart) ([]byte, error) {
	id := h.ID()
	if err := smp.Sleep(c.ic, h); err != nil {
		return nil, err
	}
	c.ic.Clear(id)
	t := c.token.Load()
	if t&published == 0 || int((t&^published)>>32)-1 != id {
		return nil, ErrNoMessage
	}
	msg := c.read()
	c.token.Store(0)
	c.received.Add(1)
	return msg, nil
}

func (c *Channel) read() []byte {
	msg := make([]byte, 0, 64)
	for i := 0; i < c.capacity; i++ {
		b := mmio.Reg8(c.region, uintptr(i)).Get()
		if b == 0 {
			break
		}
		msg = append(msg, b)
	}
	return msg
}

// Acknowledge raises the sender's bit after a Receive, the "finished
// receiving" signal the sender can wait for with smp.WaitIPI.
func (c *Channel) Acknowledge(from, to int) {
	c.log.Debugf("mailbox: hart %d acknowledges hart %d", from, to)
	smp.SendIPI(c.ic, to)
}

// Counts reports how many messages went in and came out.
func (c *Channel) Counts() (sent, received uint64) {
	return c.sent.Load(), c.received.Load()
}
