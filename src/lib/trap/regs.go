package trap

import (
	"tcore/src/lib/trust"
)

// ABI names of the general registers.
const (
	RegZero = iota
	RegRA
	RegSP
	RegGP
	RegTP
	RegT0
	RegT1
	RegT2
	RegS0
	RegS1
	RegA0
	RegA1
	RegA2
	RegA3
	RegA4
	RegA5
	RegA6
	RegA7
	RegS2
	RegS3
	RegS4
	RegS5
	RegS6
	RegS7
	RegS8
	RegS9
	RegS10
	RegS11
	RegT3
	RegT4
	RegT5
	RegT6
)

var registerNames = [RegisterCount]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

func RegisterName(i int) string {
	if i < 0 || i >= RegisterCount {
		return "x?"
	}
	return registerNames[i]
}

// Report prints a frame: the cause line, then the non-zero registers.
func Report(f *Frame, log trust.Logger) {
	kind := "exception"
	if f.Info.Cause.IsInterrupt() {
		kind = "interrupt"
	}
	log.Errorf("%s %d (%s) epc=%#x tval=%#x tval2=%#x tinst=%#x", kind,
		f.Info.Cause.Code(), f.Info.Cause, f.Info.EPC, f.Info.Tval, f.Info.Tval2, f.Info.Tinst)
	log.Errorf("mepc=%#x mstatus=%#x (from %s-mode)", f.Regs.MEPC, f.Regs.MStatus, f.PreviousPrivilege())
	for i := 1; i < RegisterCount; i++ {
		if f.Regs.X[i] != 0 {
			log.Debugf("%4s = %#016x", registerNames[i], f.Regs.X[i])
		}
	}
}
