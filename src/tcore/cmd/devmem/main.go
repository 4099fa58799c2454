//go:build linux && !tinygo

// Command devmem pokes a real CLINT through /dev/mem: read the pending bits
// and mtime, raise or clear one hart's bit, or quiet every timer compare.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"

	"tcore/src/hardware/clint"
	"tcore/src/hardware/mmio"
	"tcore/src/hardware/tcore"
	"tcore/src/lib/trust"
)

var memFlag = flag.String("mem", "/dev/mem", "physical memory device")
var baseFlag = flag.Uint64("clint", uint64(tcore.CLINTBase), "physical base address of the CLINT")
var hartsFlag = flag.Int("harts", tcore.MaxHarts, "harts wired to the CLINT")
var verbose = flag.Int("v", 1, "verbosity level: 0 warnings only, 1 info (default), 2 show everything")

func usage() {
	fmt.Fprintf(os.Stderr, "usage: devmem [flags] status | raise HART | clear HART | quiet\n")
	flag.PrintDefaults()
	os.Exit(1)
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
	}
	trust.Verbosity(*verbose)

	cfg := tcore.Default()
	cfg.CLINTBase = uintptr(*baseFlag)
	cfg.Harts = *hartsFlag
	if err := cfg.Validate(); err != nil {
		trust.Fatalf(1, "%v", err)
	}
	dev, err := mmio.OpenDevice(*memFlag, cfg.CLINTBase, cfg.CLINTSize)
	if err != nil {
		trust.Fatalf(1, "%v", err)
	}
	defer dev.Close()
	ic := clint.New(dev, cfg.Harts)

	switch flag.Arg(0) {
	case "status":
		status(ic)
	case "raise", "clear":
		h := hartArg(cfg)
		if flag.Arg(0) == "raise" {
			ic.Raise(h)
		} else {
			ic.Clear(h)
		}
		trust.Infof("hart %d pending=%v", h, ic.IsPending(h))
	case "quiet":
		ic.QuietTimers()
		trust.Infof("quieted %d timer compares", ic.Harts())
	default:
		usage()
	}
}

func hartArg(cfg tcore.Config) int {
	if flag.NArg() != 2 {
		usage()
	}
	h, err := strconv.Atoi(flag.Arg(1))
	if err != nil || h < 0 || h >= cfg.Harts {
		trust.Fatalf(1, "Hartid out of range!")
	}
	return h
}

func status(ic *clint.Controller) {
	on := color.New(color.FgGreen, color.Bold)
	off := color.New(color.Faint)
	fmt.Fprintf(color.Output, "mtime %d\n", ic.Timer())
	for h := 0; h < ic.Harts(); h++ {
		c := off
		if ic.IsPending(h) {
			c = on
		}
		c.Fprintf(color.Output, "hart %d msip=%v mtimecmp=%#x\n", h, ic.IsPending(h), ic.TimerCompare(h))
	}
}
