// Package uarttest provides a simulated UART peripheral for testing code
// built on uartline, in the spirit of net/http/httptest.
package uarttest

import (
	"sync"

	"github.com/jangala-dev/tinygo-uartline/uartline"
	"github.com/jangala-dev/tinygo-uartline/uartline/softirq"
)

// DefaultFIFODepth matches the PL011 32-entry receive FIFO.
const DefaultFIFODepth = 32

// DefaultIRQ is the line used by New.
const DefaultIRQ uartline.IRQ = 20

// Peripheral is an in-memory uartline.Peripheral. Received bytes sit in a
// bounded hardware FIFO until the driver reads them; bytes that arrive when
// the FIFO is full are counted as overruns and lost. Transmitted bytes are
// captured and returned by Output.
type Peripheral struct {
	ctrl *softirq.Controller
	irq  uartline.IRQ

	mu       sync.Mutex
	fifo     []byte
	depth    int
	overruns int
	out      []byte
	blockTx  bool
	baud     uint32
	tx, rx   uartline.Pin
	cfgErr   error
	cfgCount int
	edge     bool
	errored  map[int]bool // fifo positions received with a line error
	rxErrors int
}

// New returns a Peripheral on DefaultIRQ with a DefaultFIFODepth FIFO.
func New(ctrl *softirq.Controller) *Peripheral {
	return NewWithDepth(ctrl, DefaultIRQ, DefaultFIFODepth)
}

// NewWithDepth returns a Peripheral on irq with a FIFO of depth bytes.
func NewWithDepth(ctrl *softirq.Controller, irq uartline.IRQ, depth int) *Peripheral {
	if depth < 1 {
		depth = 1
	}
	return &Peripheral{ctrl: ctrl, irq: irq, depth: depth}
}

// Inject places p in the receive FIFO and raises the RX interrupt once.
// It returns how many bytes fitted; the rest are overruns.
func (p *Peripheral) Inject(b []byte) int {
	p.mu.Lock()
	n := 0
	for _, c := range b {
		if len(p.fifo) == p.depth {
			p.overruns++
			continue
		}
		p.fifo = append(p.fifo, c)
		n++
	}
	p.mu.Unlock()
	p.raise()
	return n
}

// Feed delivers b one byte at a time, raising the RX interrupt after each,
// like a line arriving at wire speed.
func (p *Peripheral) Feed(b []byte) int {
	n := 0
	for _, c := range b {
		n += p.Inject([]byte{c})
	}
	return n
}

// FeedString is Feed for a string.
func (p *Peripheral) FeedString(s string) int {
	return p.Feed([]byte(s))
}

func (p *Peripheral) raise() {
	if p.ctrl != nil {
		p.ctrl.Raise(p.irq)
	}
}

// SetEdgeTriggered makes the RX interrupt fire only on Inject, like a PL011
// whose RX level/timeout interrupt was cleared with bytes still in the FIFO.
// By default unmasking the line with bytes waiting fires it again. Call it
// before the handler is attached.
func (p *Peripheral) SetEdgeTriggered(edge bool) {
	p.mu.Lock()
	p.edge = edge
	p.mu.Unlock()
}

// InjectErrored places b in the receive FIFO flagged with a framing error
// and raises the RX interrupt once. Readable discards flagged bytes, as the
// PL011 driver does.
func (p *Peripheral) InjectErrored(b []byte) int {
	p.mu.Lock()
	n := 0
	for _, c := range b {
		if len(p.fifo) == p.depth {
			p.overruns++
			continue
		}
		if p.errored == nil {
			p.errored = make(map[int]bool)
		}
		p.errored[len(p.fifo)] = true
		p.fifo = append(p.fifo, c)
		n++
	}
	p.mu.Unlock()
	p.raise()
	return n
}

// RxErrors returns how many errored bytes were discarded.
func (p *Peripheral) RxErrors() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rxErrors
}

// Pending returns how many bytes are waiting in the receive FIFO.
func (p *Peripheral) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.fifo)
}

// Overruns returns how many received bytes were lost to a full FIFO.
func (p *Peripheral) Overruns() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.overruns
}

// Output returns a copy of everything written with PutByte.
func (p *Peripheral) Output() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.out...)
}

// SetTxBlocked makes Writable report false until called with false.
func (p *Peripheral) SetTxBlocked(blocked bool) {
	p.mu.Lock()
	p.blockTx = blocked
	p.mu.Unlock()
}

// SetConfigureError makes the next Configure calls fail with err.
func (p *Peripheral) SetConfigureError(err error) {
	p.mu.Lock()
	p.cfgErr = err
	p.mu.Unlock()
}

// Baud returns the last rate passed to SetBaudRate.
func (p *Peripheral) Baud() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.baud
}

// Pins returns the pins passed to the last successful Configure.
func (p *Peripheral) Pins() (tx, rx uartline.Pin) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tx, p.rx
}

// Configured returns how many times Configure succeeded.
func (p *Peripheral) Configured() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfgCount
}

// ---------- uartline.Peripheral ----------

func (p *Peripheral) Configure(tx, rx uartline.Pin) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfgErr != nil {
		return p.cfgErr
	}
	p.tx, p.rx = tx, rx
	p.cfgCount++
	return nil
}

func (p *Peripheral) SetBaudRate(br uint32) {
	p.mu.Lock()
	p.baud = br
	p.mu.Unlock()
}

func (p *Peripheral) Readable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.fifo) > 0 && p.errored[0] {
		p.pop()
		p.rxErrors++
	}
	return len(p.fifo) > 0
}

func (p *Peripheral) GetByte() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.fifo) == 0 {
		return 0
	}
	return p.pop()
}

// pop removes the head of the FIFO and shifts the error flags with it.
func (p *Peripheral) pop() byte {
	c := p.fifo[0]
	p.fifo = p.fifo[1:]
	if len(p.errored) > 0 {
		shifted := make(map[int]bool, len(p.errored))
		for i := range p.errored {
			if i > 0 {
				shifted[i-1] = true
			}
		}
		p.errored = shifted
	}
	return c
}

func (p *Peripheral) Writable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.blockTx
}

func (p *Peripheral) PutByte(c byte) {
	p.mu.Lock()
	p.out = append(p.out, c)
	p.mu.Unlock()
}

func (p *Peripheral) IRQ() uartline.IRQ { return p.irq }

func (p *Peripheral) SetRxHandler(fn func()) {
	if p.ctrl == nil {
		return
	}
	if fn == nil {
		p.ctrl.Attach(p.irq, nil, nil)
		return
	}
	p.mu.Lock()
	edge := p.edge
	p.mu.Unlock()
	if edge {
		p.ctrl.Attach(p.irq, fn, nil)
		return
	}
	p.ctrl.Attach(p.irq, fn, p.Readable)
}
