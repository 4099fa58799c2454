package riscv

// Cause is the value of mcause. The top bit marks an interrupt, the rest is
// the exception or interrupt code.
type Cause uint64

const CauseInterruptBit = Cause(1 << 63)

// Synchronous exception codes.
const (
	CauseMisalignedFetch    Cause = 0
	CauseFetchAccess        Cause = 1
	CauseIllegalInstruction Cause = 2
	CauseBreakpoint         Cause = 3
	CauseMisalignedLoad     Cause = 4
	CauseLoadAccess         Cause = 5
	CauseMisalignedStore    Cause = 6
	CauseStoreAccess        Cause = 7
	CauseUserEcall          Cause = 8
	CauseSupervisorEcall    Cause = 9
	CauseMachineEcall       Cause = 11
	CauseFetchPageFault     Cause = 12
	CauseLoadPageFault      Cause = 13
	CauseStorePageFault     Cause = 15
)

// Interrupt builds the mcause value for interrupt code irq.
func Interrupt(irq uint64) Cause {
	return CauseInterruptBit | Cause(irq)
}

func (c Cause) IsInterrupt() bool {
	return c&CauseInterruptBit != 0
}

func (c Cause) Code() uint64 {
	return uint64(c &^ CauseInterruptBit)
}

var exceptionNames = map[Cause]string{
	CauseMisalignedFetch:    "instruction address misaligned",
	CauseFetchAccess:        "instruction access fault",
	CauseIllegalInstruction: "illegal instruction",
	CauseBreakpoint:         "breakpoint",
	CauseMisalignedLoad:     "load address misaligned",
	CauseLoadAccess:         "load access fault",
	CauseMisalignedStore:    "store/AMO address misaligned",
	CauseStoreAccess:        "store/AMO access fault",
	CauseUserEcall:          "environment call from U-mode",
	CauseSupervisorEcall:    "environment call from S-mode",
	CauseMachineEcall:       "environment call from M-mode",
	CauseFetchPageFault:     "instruction page fault",
	CauseLoadPageFault:      "load page fault",
	CauseStorePageFault:     "store/AMO page fault",
}

var interruptNames = map[uint64]string{
	IRQSupervisorSoft:  "supervisor software interrupt",
	IRQMachineSoft:     "machine software interrupt",
	IRQSupervisorTimer: "supervisor timer interrupt",
	IRQMachineTimer:    "machine timer interrupt",
	IRQSupervisorExt:   "supervisor external interrupt",
	IRQMachineExt:      "machine external interrupt",
}

func (c Cause) String() string {
	if c.IsInterrupt() {
		if s, ok := interruptNames[c.Code()]; ok {
			return s
		}
		return "unknown interrupt"
	}
	if s, ok := exceptionNames[c]; ok {
		return s
	}
	return "unknown exception"
}
