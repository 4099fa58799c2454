package tcore

import (
	"fmt"
)

// Config is the board memory map as a value, so hosted code (the simulator,
// tests, a /dev/mem client) can run with something other than the defaults.
type Config struct {
	CLINTBase   uintptr
	CLINTSize   uintptr
	MailboxBase uintptr
	MailboxSize uintptr
	Harts       int
	Primary     int
}

// Default returns the board's own memory map.
func Default() Config {
	return Config{
		CLINTBase:   CLINTBase,
		CLINTSize:   CLINTSize,
		MailboxBase: MailboxBase,
		MailboxSize: MailboxSize,
		Harts:       MaxHarts,
		Primary:     PrimaryHart,
	}
}

// ConfigError is a memory map that cannot work. On bare metal nobody checks;
// the constants are trusted.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("tcore: bad config %s: %s", e.Field, e.Reason)
}

// HartLimit is the largest hart count Config accepts: hart sets are one
// 64 bit word.
const HartLimit = 64

// MailboxLimit bounds MailboxSize so a capacity always fits an int.
const MailboxLimit = uintptr(1 << 20)

func (c Config) Validate() error {
	switch {
	case c.Harts <= 0 || c.Harts > HartLimit:
		return &ConfigError{"Harts", fmt.Sprintf("%d not in [1,%d]", c.Harts, HartLimit)}
	case c.Primary < 0 || c.Primary >= c.Harts:
		return &ConfigError{"Primary", fmt.Sprintf("%d not a hart id below %d", c.Primary, c.Harts)}
	case c.CLINTBase%8 != 0:
		return &ConfigError{"CLINTBase", fmt.Sprintf("%#x not 8 byte aligned", c.CLINTBase)}
	case c.CLINTSize < 0xc000:
		return &ConfigError{"CLINTSize", fmt.Sprintf("%#x too small to reach mtime", c.CLINTSize)}
	case c.CLINTBase+c.CLINTSize < c.CLINTBase:
		return &ConfigError{"CLINTSize", "window wraps past the top of the address space"}
	case c.MailboxSize < 2:
		return &ConfigError{"MailboxSize", "need room for at least one byte and the NUL"}
	case c.MailboxSize > MailboxLimit:
		return &ConfigError{"MailboxSize", fmt.Sprintf("%#x above the %#x limit", c.MailboxSize, MailboxLimit)}
	case c.MailboxBase+c.MailboxSize < c.MailboxBase:
		return &ConfigError{"MailboxBase", "window wraps past the top of the address space"}
	case c.MailboxBase < c.CLINTBase+c.CLINTSize && c.CLINTBase < c.MailboxBase+c.MailboxSize:
		return &ConfigError{"MailboxBase", "mailbox overlaps the CLINT"}
	}
	return nil
}
