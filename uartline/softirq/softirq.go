// Package softirq is a software interrupt controller for running uartline
// on a host. It models a single core: at most one handler runs at a time,
// and masking a line waits for that line's handler to return, the way
// foreground code on a real core can never observe a handler mid-flight.
//
// A line raised while masked becomes pending and its handler runs when the
// line is unmasked. A line may also have a level source; unmasking a line
// whose level is asserted runs the handler even without a pending edge.
package softirq

import (
	"sync"

	"github.com/jangala-dev/tinygo-uartline/uartline"
)

// Controller implements uartline.InterruptController.
type Controller struct {
	core sync.Mutex // held while a handler runs
	mu   sync.Mutex // guards lines
	lns  map[uartline.IRQ]*line
}

type line struct {
	enabled bool
	pending bool
	handler func()
	level   func() bool
	count   uint64
}

// New returns a Controller with every line masked.
func New() *Controller {
	return &Controller{lns: make(map[uartline.IRQ]*line)}
}

func (c *Controller) get(irq uartline.IRQ) *line {
	l, ok := c.lns[irq]
	if !ok {
		l = &line{}
		c.lns[irq] = l
	}
	return l
}

// Attach binds handler to irq. level, if non-nil, reports whether the
// source is still asserted. A nil handler unbinds the line.
func (c *Controller) Attach(irq uartline.IRQ, handler func(), level func() bool) {
	c.core.Lock()
	defer c.core.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.get(irq)
	l.handler = handler
	l.level = level
}

// EnableIRQ unmasks irq. A pending edge or asserted level is serviced
// before EnableIRQ returns.
func (c *Controller) EnableIRQ(irq uartline.IRQ) {
	c.mu.Lock()
	l := c.get(irq)
	l.enabled = true
	c.mu.Unlock()
	c.service(irq)
}

// DisableIRQ masks irq, waiting for a running handler to finish first.
// Handlers must not call DisableIRQ on the controller that runs them.
func (c *Controller) DisableIRQ(irq uartline.IRQ) {
	c.core.Lock()
	defer c.core.Unlock()
	c.mu.Lock()
	c.get(irq).enabled = false
	c.mu.Unlock()
}

// IRQEnabled reports whether irq is unmasked.
func (c *Controller) IRQEnabled(irq uartline.IRQ) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(irq).enabled
}

// Raise signals an edge on irq. The handler runs on the calling goroutine
// if the line is unmasked; otherwise the edge is left pending.
func (c *Controller) Raise(irq uartline.IRQ) {
	c.mu.Lock()
	c.get(irq).pending = true
	c.mu.Unlock()
	c.service(irq)
}

// Pending reports whether irq has an edge waiting for the line to unmask.
func (c *Controller) Pending(irq uartline.IRQ) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(irq).pending
}

// Count returns how many times the handler of irq has run.
func (c *Controller) Count(irq uartline.IRQ) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(irq).count
}

func (c *Controller) service(irq uartline.IRQ) {
	c.core.Lock()
	defer c.core.Unlock()

	c.mu.Lock()
	l := c.get(irq)
	if !l.enabled || l.handler == nil {
		c.mu.Unlock()
		return
	}
	fire := l.pending
	level := l.level
	c.mu.Unlock()
	if !fire && level != nil {
		fire = level()
	}
	if !fire {
		return
	}

	c.mu.Lock()
	l.pending = false
	l.count++
	handler := l.handler
	c.mu.Unlock()
	handler()
}
