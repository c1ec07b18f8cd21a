package hostport

import (
	"errors"
	"fmt"
	"io"

	"github.com/tarm/serial"

	"github.com/jangala-dev/tinygo-uartline/uartline/softirq"
)

// OpenTarm opens a serial device with github.com/tarm/serial, which also
// works on macOS and Windows. The baud rate is fixed at open.
func OpenTarm(cfg Config, ctrl *softirq.Controller) (*Port, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("hostport: device path is required")
	}
	if cfg.Baud == 0 {
		cfg.Baud = DefaultConfig(cfg.Device).Baud
	}
	// A blocking tarm read cannot be interrupted by Close.
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultConfig(cfg.Device).ReadTimeout
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("hostport: open %s: %w", cfg.Device, err)
	}

	p := newPort(port, ctrl, cfg)
	// Timed reads return io.EOF when nothing arrived.
	p.idle = func(err error) bool { return errors.Is(err, io.EOF) }
	p.start()
	return p, nil
}
