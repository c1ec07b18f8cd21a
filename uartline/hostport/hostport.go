// Package hostport turns a host serial device into a uartline.Peripheral.
//
// A pump goroutine reads the device into an emulated receive FIFO and raises
// the port's line on a softirq.Controller, so the uartline RX handler runs
// exactly as it would from a hardware interrupt. Any io.ReadWriteCloser can
// back a Port; OpenTTY and OpenTarm open real devices.
package hostport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/jangala-dev/tinygo-uartline/uartline"
	"github.com/jangala-dev/tinygo-uartline/uartline/softirq"
)

// Config holds serial device configuration.
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate applied when the device is opened
	Baud int

	// ReadTimeout bounds a single device read (0 = blocking). Openers that
	// cannot interrupt a blocking read use it to notice Close.
	ReadTimeout time.Duration

	// FIFODepth is the emulated hardware receive FIFO size (0 = 32).
	FIFODepth int

	// IRQ is the line raised on the controller (0 = DefaultIRQ).
	IRQ uartline.IRQ
}

// DefaultIRQ is the line a Port raises when Config.IRQ is zero.
const DefaultIRQ uartline.IRQ = 20

const (
	defaultFIFODepth = 32
	closeWait        = time.Second
)

// DefaultConfig returns a configuration for device at 115200 baud.
func DefaultConfig(device string) Config {
	return Config{
		Device:      device,
		Baud:        uartline.DefaultBaudRate,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// ErrClosed is returned by operations on a closed Port.
var ErrClosed = errors.New("hostport: port closed")

// Port is a uartline.Peripheral over an io.ReadWriteCloser.
type Port struct {
	rw   io.ReadWriteCloser
	ctrl *softirq.Controller
	irq  uartline.IRQ
	name string

	// setBaud reprograms the device, nil when it cannot be changed after open.
	setBaud func(int) error
	// idle reports whether a read error only means "no data yet".
	idle func(error) bool

	mu       sync.Mutex
	fifo     []byte
	depth    int
	overruns int
	baud     uint32
	writeErr error

	done      chan struct{}
	pumpDone  chan struct{}
	closeOnce sync.Once
}

// New wraps rw and starts the receive pump.
func New(rw io.ReadWriteCloser, ctrl *softirq.Controller, cfg Config) *Port {
	p := newPort(rw, ctrl, cfg)
	p.start()
	return p
}

func newPort(rw io.ReadWriteCloser, ctrl *softirq.Controller, cfg Config) *Port {
	depth := cfg.FIFODepth
	if depth <= 0 {
		depth = defaultFIFODepth
	}
	irq := cfg.IRQ
	if irq == 0 {
		irq = DefaultIRQ
	}
	return &Port{
		rw:       rw,
		ctrl:     ctrl,
		irq:      irq,
		name:     cfg.Device,
		depth:    depth,
		baud:     uint32(cfg.Baud),
		done:     make(chan struct{}),
		pumpDone: make(chan struct{}),
	}
}

func (p *Port) start() {
	go p.pump()
}

// pump moves device bytes into the FIFO and raises the RX line once per
// chunk.
func (p *Port) pump() {
	defer close(p.pumpDone)
	buf := make([]byte, 64)
	for {
		n, err := p.rw.Read(buf)
		if n > 0 {
			if glog.V(2) {
				glog.Infof("%s RX %q", p.name, buf[:n])
			}
			p.receive(buf[:n])
		}
		if err == nil {
			continue
		}
		select {
		case <-p.done:
			return
		default:
		}
		if p.idle != nil && p.idle(err) {
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
			glog.Infof("%s: receive pump stopped: %v", p.name, err)
			return
		}
		glog.Warningf("%s: read failed: %v", p.name, err)
		return
	}
}

func (p *Port) receive(b []byte) {
	p.mu.Lock()
	lost := 0
	for _, c := range b {
		if len(p.fifo) == p.depth {
			lost++
			continue
		}
		p.fifo = append(p.fifo, c)
	}
	p.overruns += lost
	p.mu.Unlock()
	if lost > 0 {
		glog.Warningf("%s: RX FIFO overrun, %d bytes lost", p.name, lost)
	}
	if p.ctrl != nil {
		p.ctrl.Raise(p.irq)
	}
}

// Overruns returns how many bytes were lost to a full receive FIFO.
func (p *Port) Overruns() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.overruns
}

// Baud returns the current baud rate.
func (p *Port) Baud() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.baud
}

// Err returns the first write error, if any.
func (p *Port) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writeErr
}

// Close stops the pump and closes the device. It is safe to call more than
// once.
func (p *Port) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		if p.ctrl != nil {
			p.ctrl.Attach(p.irq, nil, nil)
		}
		err = p.rw.Close()
		select {
		case <-p.pumpDone:
		case <-time.After(closeWait):
			glog.Warningf("%s: receive pump did not stop after close", p.name)
		}
	})
	return err
}

// ---------- uartline.Peripheral ----------

// Configure accepts any pins; a host device has none to mux.
func (p *Port) Configure(tx, rx uartline.Pin) error {
	select {
	case <-p.done:
		return ErrClosed
	default:
	}
	glog.V(1).Infof("%s: configure tx=%d rx=%d", p.name, tx, rx)
	return nil
}

// SetBaudRate reprograms the device when the opener supports it.
func (p *Port) SetBaudRate(br uint32) {
	p.mu.Lock()
	if p.baud == br {
		p.mu.Unlock()
		return
	}
	p.baud = br
	p.mu.Unlock()
	if p.setBaud == nil {
		glog.Warningf("%s: baud rate cannot be changed after open, keeping device setting", p.name)
		return
	}
	if err := p.setBaud(int(br)); err != nil {
		glog.Errorf("%s: set baud %d: %v", p.name, br, err)
	}
}

func (p *Port) Readable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.fifo) > 0
}

func (p *Port) GetByte() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.fifo) == 0 {
		return 0
	}
	c := p.fifo[0]
	p.fifo = p.fifo[1:]
	return c
}

// Writable is always true: PutByte blocks in the device write instead.
func (p *Port) Writable() bool { return true }

func (p *Port) PutByte(c byte) {
	if _, err := p.rw.Write([]byte{c}); err != nil {
		p.mu.Lock()
		if p.writeErr == nil {
			p.writeErr = fmt.Errorf("hostport: write %s: %w", p.name, err)
			glog.Errorf("%v", p.writeErr)
		}
		p.mu.Unlock()
	}
}

func (p *Port) IRQ() uartline.IRQ { return p.irq }

func (p *Port) SetRxHandler(fn func()) {
	if p.ctrl == nil {
		return
	}
	if fn == nil {
		p.ctrl.Attach(p.irq, nil, nil)
		return
	}
	p.ctrl.Attach(p.irq, fn, p.Readable)
}
