// Package sim is a software tCore: a CLINT model, the mailbox RAM and a set
// of harts that run as goroutines.
//
// A simulated hart sleeps in wfi on a condition variable. Any MSIP write
// wakes every sleeper; each re-checks whether its own bit is set and its
// software interrupt is unmasked, exactly as a wfi that may return early.
// There is no timeout. PowerOff is the only way a sleeping hart comes back
// without its interrupt, and it comes back with riscv.ErrHalted.
package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"tcore/src/hardware/clint"
	"tcore/src/hardware/mmio"
	"tcore/src/hardware/riscv"
	"tcore/src/hardware/tcore"
	"tcore/src/lib/trap"
	"tcore/src/lib/trust"
)

// DefaultTick is how much host time one mtime tick takes.
const DefaultTick = time.Microsecond

type Machine struct {
	cfg     tcore.Config
	clint   *CLINT
	mailbox *mmio.Memory
	ic      *clint.Controller
	harts   []*Hart

	mu     sync.Mutex
	cond   *sync.Cond
	halted bool
	wakes  uint64

	trapHandler trap.Handler
	log         trust.Logger

	wg   sync.WaitGroup
	errs []error
}

type Option func(*Machine) error

// WithTick sets the host duration of one mtime tick.
func WithTick(d time.Duration) Option {
	return func(m *Machine) error {
		if d <= 0 {
			return fmt.Errorf("sim: tick must be positive, got %v", d)
		}
		m.clint.tick = d
		return nil
	}
}

// WithTrapHandler installs the handler called when a hart faults.
func WithTrapHandler(h trap.Handler) Option {
	return func(m *Machine) error {
		m.trapHandler = h
		return nil
	}
}

func WithLogger(l trust.Logger) Option {
	return func(m *Machine) error {
		m.log = l
		return nil
	}
}

// NewMachine builds a powered-on machine with every hart parked at reset:
// MSIP clear, software interrupt masked, nothing running.
func NewMachine(cfg tcore.Config, opts ...Option) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Machine{
		cfg:         cfg,
		mailbox:     mmio.NewMemoryAt(cfg.MailboxBase, cfg.MailboxSize),
		trapHandler: trap.Ignore,
		log:         trust.Discard,
	}
	m.cond = sync.NewCond(&m.mu)
	m.clint = newCLINT(cfg.CLINTBase, cfg.Harts, DefaultTick, m.msipWritten)
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	m.ic = clint.New(m.clint, cfg.Harts)
	m.harts = make([]*Hart, cfg.Harts)
	for i := range m.harts {
		m.harts[i] = &Hart{m: m, id: i}
	}
	return m, nil
}

func (m *Machine) Config() tcore.Config { return m.cfg }

// CLINT is the bus view of the interrupt controller registers.
func (m *Machine) CLINT() *CLINT { return m.clint }

// Controller is a clint.Controller bound to this machine's CLINT.
func (m *Machine) Controller() *clint.Controller { return m.ic }

// Mailbox is the shared message RAM.
func (m *Machine) Mailbox() *mmio.Memory { return m.mailbox }

func (m *Machine) Hart(id int) *Hart { return m.harts[id] }

func (m *Machine) Harts() []*Hart { return m.harts }

func (m *Machine) msipWritten(hart int) {
	m.mu.Lock()
	m.wakes++
	m.cond.Broadcast()
	m.mu.Unlock()
}

// PowerOff wakes every sleeping hart with riscv.ErrHalted and makes every
// later wait fail the same way.
func (m *Machine) PowerOff() {
	m.mu.Lock()
	m.halted = true
	m.cond.Broadcast()
	m.mu.Unlock()
}

func (m *Machine) Halted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.halted
}

// Start runs entry on hart id in its own goroutine. Use Wait to collect the
// result.
func (m *Machine) Start(id int, entry func(h riscv.Hart) error) {
	h := m.harts[id]
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		err := h.run(entry)
		if err != nil {
			m.mu.Lock()
			m.errs = append(m.errs, fmt.Errorf("hart %d: %w", id, err))
			m.mu.Unlock()
		}
	}()
}

// StartAll runs entry on every hart.
func (m *Machine) StartAll(entry func(h riscv.Hart) error) {
	for id := range m.harts {
		m.Start(id, entry)
	}
}

// Wait blocks until every started hart has returned and reports their
// errors joined together.
func (m *Machine) Wait() error {
	m.wg.Wait()
	m.mu.Lock()
	defer m.mu.Unlock()
	err := errors.Join(m.errs...)
	m.errs = nil
	return err
}

// Run is StartAll followed by Wait.
func (m *Machine) Run(entry func(h riscv.Hart) error) error {
	m.StartAll(entry)
	return m.Wait()
}

// Stats reports bus traffic and wake-ups since power on.
func (m *Machine) Stats() (clintStats, mailboxStats mmio.Stats, wakes uint64) {
	m.mu.Lock()
	wakes = m.wakes
	m.mu.Unlock()
	return m.clint.Stats(), m.mailbox.Stats(), wakes
}
