// Package trap is the saved-context contract between trap entry, a handler
// and trap exit.
//
// Entry fills a Frame, the handler may change it, exit restores it. Nothing
// is restored that entry did not save, and nothing saved is altered on the
// way out except by the handler.
package trap

import (
	"tcore/src/hardware/riscv"
)

const RegisterCount = 32

// Byte offsets of the Registers fields, for the assembly that saves them.
const (
	OffsetX       = 0
	OffsetMEPC    = RegisterCount * 8
	OffsetMStatus = OffsetMEPC + 8
	RegistersSize = OffsetMStatus + 8
)

// Registers is what trap entry saves: x0..x31, the exception pc and the
// status register as it was before the trap.
type Registers struct {
	X       [RegisterCount]uint64
	MEPC    uint64
	MStatus uint64
}

// Info is the trap cause record, read from the CSRs at entry.
type Info struct {
	EPC   uint64
	Cause riscv.Cause
	Tval  uint64
	Tval2 uint64
	Tinst uint64
}

// Frame lives for exactly one trap.
type Frame struct {
	Regs Registers
	Info Info
}

// Handler is attached to trap entry. It may mutate the frame.
type Handler func(f *Frame)

// Ignore is the handler the firmware ships with: it does nothing, so exit
// returns to the trapping instruction.
func Ignore(*Frame) {}

func Enter(regs Registers, info Info) *Frame {
	return &Frame{Regs: regs, Info: info}
}

// Exit returns the registers trap exit will load.
func (f *Frame) Exit() Registers {
	return f.Regs
}

// Dispatch is one full trap: entry, handler, exit.
func Dispatch(h Handler, regs Registers, info Info) Registers {
	f := Enter(regs, info)
	if h != nil {
		h(f)
	}
	return f.Exit()
}

// InstructionLength is 2 for a compressed encoding and 4 otherwise.
func InstructionLength(inst uint64) uint64 {
	if inst&0x3 != 0x3 {
		return 2
	}
	return 4
}

// SkipInstruction moves MEPC past the trapping instruction. Without a
// recorded encoding (tinst zero) a 4 byte instruction is assumed.
func (f *Frame) SkipInstruction() {
	n := uint64(4)
	if f.Info.Tinst != 0 {
		n = InstructionLength(f.Info.Tinst)
	}
	f.Regs.MEPC += n
}

func (f *Frame) PreviousPrivilege() riscv.Privilege {
	return riscv.PreviousPrivilege(f.Regs.MStatus)
}

// Reg returns general register i. x0 always reads zero.
func (f *Frame) Reg(i int) uint64 {
	if i == RegZero {
		return 0
	}
	return f.Regs.X[i]
}

// SetReg writes general register i. Writes to x0 are dropped.
func (f *Frame) SetReg(i int, v uint64) {
	if i == RegZero {
		return
	}
	f.Regs.X[i] = v
}
