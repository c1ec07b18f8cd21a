// uartline/uartline.go

// Package uartline provides an interrupt-driven, line-oriented UART receive
// driver. The RX interrupt drains the hardware FIFO into a software ring and
// the foreground extracts carriage-return terminated lines with ReceiveLine.
//
// The hardware is reached through the Peripheral and InterruptController
// interfaces. On RP2040/RP2350 builds the package provides UART0, UART1 and
// NVIC; host builds use the softirq, uarttest and hostport sub-packages.
//
// Only one goroutine may consume lines at a time.
package uartline

import (
	"fmt"
	"sync/atomic"
	"time"
)

// LineTerminator ends a line on the wire.
const LineTerminator byte = '\r'

// lineEnd is written into the caller's buffer in place of the terminator.
const lineEnd byte = 0

// DefaultBaudRate is used when Config.BaudRate is zero.
const DefaultBaudRate = 115200

// Config describes how a Manager sets up its peripheral.
type Config struct {
	// TX and RX select the pins. When both are zero the peripheral's
	// default pins are used.
	TX, RX Pin

	BaudRate uint32

	// Interrupts attaches the RX interrupt handler and enables the
	// peripheral's IRQ line. When false the application must call Poll.
	Interrupts bool

	// BufferSize is the number of RX ring slots (usable capacity is one
	// less). Zero means DefaultBufferSize.
	BufferSize int

	// Timeout bounds how long ReceiveLine waits for data. Zero waits forever.
	Timeout time.Duration

	// MaskLines are the lines masked by the critical section. Nil means the
	// peripheral's own IRQ line.
	MaskLines []IRQ
}

// Manager owns a UART peripheral, its RX ring buffer and the optional
// user receive callback.
type Manager struct {
	port Peripheral
	cs   *CriticalSection
	rx   *RingBuffer

	callbacks  callbackRegistry
	lineReady  atomic.Bool
	notify     chan struct{} // coalesced line-ready notifications
	interrupts bool
	timeout    time.Duration
	closed     atomic.Bool

	stats Stats
}

// New configures p and returns a Manager for it. ctrl may be nil only when
// cfg.Interrupts is false.
func New(p Peripheral, ctrl InterruptController, cfg Config) (*Manager, error) {
	if p == nil {
		return nil, ErrNilPeripheral
	}
	if cfg.Interrupts && ctrl == nil {
		return nil, ErrNilController
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = DefaultBufferSize
	}
	if cfg.BufferSize < 2 {
		return nil, ErrBufferSize
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.TX == 0 && cfg.RX == 0 {
		cfg.TX, cfg.RX = NoPin, NoPin
	}
	lines := cfg.MaskLines
	if lines == nil {
		lines = []IRQ{p.IRQ()}
	}
	cs, err := NewCriticalSection(ctrl, lines...)
	if err != nil {
		return nil, err
	}

	if err := p.Configure(cfg.TX, cfg.RX); err != nil {
		return nil, fmt.Errorf("uartline: configure peripheral: %w", err)
	}
	p.SetBaudRate(cfg.BaudRate)

	m := &Manager{
		port:       p,
		cs:         cs,
		rx:         NewRingBuffer(cfg.BufferSize),
		notify:     make(chan struct{}, 1),
		interrupts: cfg.Interrupts,
		timeout:    cfg.Timeout,
	}
	if m.interrupts {
		p.SetRxHandler(m.handleInterrupt)
		ctrl.EnableIRQ(p.IRQ())
	}
	return m, nil
}

// Close detaches the user callback and unbinds the RX handler from the
// peripheral. The peripheral stays configured and its IRQ line is left
// enabled. Close is idempotent.
func (m *Manager) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	m.DetachRx()
	if m.interrupts {
		m.port.SetRxHandler(nil)
	}
	return nil
}

// Peripheral returns the underlying peripheral for direct access.
func (m *Manager) Peripheral() Peripheral { return m.port }

// InterruptsEnabled reports whether the Manager was built with Interrupts set.
func (m *Manager) InterruptsEnabled() bool { return m.interrupts }

// AttachRx installs h to be called on every receive interrupt, replacing any
// previous handler. A nil h only detaches.
func (m *Manager) AttachRx(h Handler) {
	m.callbacks.attach(h)
}

// AttachRxFunc is AttachRx for a function or method value.
func (m *Manager) AttachRxFunc(fn func()) {
	if fn == nil {
		m.callbacks.detach()
		return
	}
	m.callbacks.attach(HandlerFunc(fn))
}

// DetachRx removes the receive handler, if any.
func (m *Manager) DetachRx() {
	m.callbacks.detach()
}

// ReceiveLine copies the next line into line and returns the number of bytes
// written. At most len(line) bytes are taken; a longer line is left in the
// buffer for the next call. When the terminator is consumed a zero byte is
// written in its place and is not counted. A nil line returns 0 with no side
// effects.
//
// ReceiveLine spins until data arrives. It only gives up when Config.Timeout
// is set (ErrTimeout) or the Manager is closed (ErrClosed).
func (m *Manager) ReceiveLine(line []byte) (int, error) {
	return m.receiveLine(nil, line)
}

// HaveRxSerialData reports whether a terminator has been received since the
// last ReceiveLine returned.
func (m *Manager) HaveRxSerialData() bool {
	return m.lineReady.Load()
}

// LineReady returns a coalesced notification sent whenever the RX handler
// stores a terminator. Callers must re-check HaveRxSerialData after waking.
func (m *Manager) LineReady() <-chan struct{} { return m.notify }

// Flush discards every byte currently readable from the peripheral. Bytes
// already moved into the RX ring are kept.
func (m *Manager) Flush() {
	state := m.cs.Enter()
	defer m.cs.Exit(state)
	for m.port.Readable() {
		m.port.GetByte()
	}
}

// PrintLine writes line to the peripheral one byte at a time, stopping at
// the first zero byte or after len(line) bytes. It waits for the transmitter
// between bytes and returns the number of bytes written.
func (m *Manager) PrintLine(line []byte) int {
	n := 0
	for n < len(line) && line[n] != lineEnd {
		m.putByte(line[n])
		n++
	}
	return n
}

// Read implements io.Reader without blocking: it copies up to len(p) bytes
// already in the RX ring, terminators included, and returns 0, nil when
// there are none. Taking a terminator this way clears HaveRxSerialData.
func (m *Manager) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		b, ok := m.rx.Get()
		if !ok {
			break
		}
		p[n] = b
		n++
		if b == LineTerminator {
			m.lineReady.Store(false)
		}
	}
	m.refill()
	return n, nil
}

// ReadByte reads one byte from the RX ring or returns ErrBufferEmpty.
func (m *Manager) ReadByte() (byte, error) {
	b, ok := m.rx.Get()
	if !ok {
		m.refill()
		return 0, ErrBufferEmpty
	}
	if b == LineTerminator {
		m.lineReady.Store(false)
	}
	m.refill()
	return b, nil
}

// Buffered returns the number of bytes waiting in the RX ring.
func (m *Manager) Buffered() int {
	return m.rx.Used()
}

// Write implements io.Writer. Every byte of p is written, zero bytes
// included, and Write returns once the last one is in the hardware FIFO.
func (m *Manager) Write(p []byte) (int, error) {
	for _, c := range p {
		m.putByte(c)
	}
	return len(p), nil
}

// WriteByte writes a single byte.
func (m *Manager) WriteByte(c byte) error {
	m.putByte(c)
	return nil
}

func (m *Manager) putByte(c byte) {
	for !m.port.Writable() {
	}
	m.port.PutByte(c)
}
