// Package tcore holds the fixed memory map of the tCore board: where the
// CLINT and the inter-hart mailbox live and how many harts there are.
package tcore

//This file is the memory map of the board as the firmware is linked for it.
//Nothing here is negotiated at runtime.

const CLINTBase = uintptr(0x02000000)
const CLINTSize = uintptr(0x10000)

const UART0Base = uintptr(0x10010000)
const UART1Base = uintptr(0x10011000)

const DTIMBase = uintptr(0x10000000)
const DTIMSize = uintptr(0x2000)

// MailboxBase is the shared memory used to pass a message along with an IPI.
const MailboxBase = uintptr(0x80100000)
const MailboxSize = uintptr(0x1000)

const DRAMBase = uintptr(0x80000000)

// MaxHarts is the number of harts on the board: the S7 monitor core (hart 0)
// and four application cores.
const MaxHarts = 5

// PrimaryHart is the hart that runs the boot path and releases the others.
const PrimaryHart = 0
