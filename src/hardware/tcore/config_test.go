package tcore

import (
	"errors"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config rejected: %v", err)
	}
}

func TestBadConfigs(t *testing.T) {
	checkBad(t, "Harts", func(c *Config) { c.Harts = 0 })
	checkBad(t, "Harts", func(c *Config) { c.Harts = 65 })
	checkBad(t, "Primary", func(c *Config) { c.Primary = c.Harts })
	checkBad(t, "CLINTBase", func(c *Config) { c.CLINTBase = 0x2000004 })
	checkBad(t, "CLINTSize", func(c *Config) { c.CLINTSize = 0x1000 })
	checkBad(t, "MailboxSize", func(c *Config) { c.MailboxSize = 1 })
	checkBad(t, "MailboxSize", func(c *Config) { c.MailboxSize = ^uintptr(0) })
	checkBad(t, "MailboxSize", func(c *Config) { c.MailboxSize = MailboxLimit + 1 })
	checkBad(t, "MailboxBase", func(c *Config) { c.MailboxBase = ^uintptr(0) - 0xff })
	checkBad(t, "CLINTSize", func(c *Config) { c.CLINTBase = ^uintptr(0) - 0xfff })
	checkBad(t, "MailboxBase", func(c *Config) { c.MailboxBase = c.CLINTBase + 0x100 })
}

func checkBad(t *testing.T, field string, mutate func(*Config)) {
	t.Helper()
	c := Default()
	mutate(&c)
	err := c.Validate()
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConfigError for %s, got %v", field, err)
		return
	}
	if ce.Field != field {
		t.Errorf("expected complaint about %s, got %s", field, ce.Field)
	}
}
