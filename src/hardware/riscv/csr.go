package riscv

// ***************************************
// mip / mie, machine interrupt pending and enable registers.
// Bit positions are the interrupt codes below.
// ***************************************

const (
	IRQSupervisorSoft  = 1
	IRQMachineSoft     = 3
	IRQSupervisorTimer = 5
	IRQMachineTimer    = 7
	IRQSupervisorExt   = 9
	IRQMachineExt      = 11
)

const MIP_SSIP = 1 << IRQSupervisorSoft
const MIP_MSIP = 1 << IRQMachineSoft
const MIP_STIP = 1 << IRQSupervisorTimer
const MIP_MTIP = 1 << IRQMachineTimer
const MIP_SEIP = 1 << IRQSupervisorExt
const MIP_MEIP = 1 << IRQMachineExt

const MIE_MSIE = MIP_MSIP
const MIE_MTIE = MIP_MTIP
const MIE_MEIE = MIP_MEIP

// ***************************************
// mstatus
// ***************************************

const MSTATUS_SIE = 0x00000002
const MSTATUS_MIE = 0x00000008
const MSTATUS_SPIE = 0x00000020
const MSTATUS_MPIE = 0x00000080
const MSTATUS_SPP = 0x00000100
const MSTATUS_MPP = 0x00001800
const MSTATUS_FS = 0x00006000
const MSTATUS_MPRV = 0x00020000
const MSTATUS64_SD = 0x8000000000000000

const mstatusMPPShift = 11

// Privilege levels as encoded in mstatus.MPP.
type Privilege uint8

const (
	PrivilegeUser       Privilege = 0
	PrivilegeSupervisor Privilege = 1
	PrivilegeHypervisor Privilege = 2
	PrivilegeMachine    Privilege = 3
)

func (p Privilege) String() string {
	switch p {
	case PrivilegeUser:
		return "U"
	case PrivilegeSupervisor:
		return "S"
	case PrivilegeHypervisor:
		return "H"
	}
	return "M"
}

// PreviousPrivilege extracts MPP from an mstatus value.
func PreviousPrivilege(mstatus uint64) Privilege {
	return Privilege((mstatus & MSTATUS_MPP) >> mstatusMPPShift)
}

// WithPreviousPrivilege returns mstatus with MPP replaced by p.
func WithPreviousPrivilege(mstatus uint64, p Privilege) uint64 {
	return (mstatus &^ MSTATUS_MPP) | (uint64(p)<<mstatusMPPShift)&MSTATUS_MPP
}
