//go:build linux

package hostport

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/jangala-dev/tinygo-uartline/uartline/softirq"
)

// ErrUnsupportedBaud is returned for rates without a termios constant.
var ErrUnsupportedBaud = errors.New("hostport: unsupported baud rate")

// OpenTTY opens a Linux tty in raw 8N1 mode. The descriptor is left
// non-blocking so that Close interrupts a pending read.
func OpenTTY(cfg Config, ctrl *softirq.Controller) (*Port, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("hostport: device path is required")
	}
	if cfg.Baud == 0 {
		cfg.Baud = DefaultConfig(cfg.Device).Baud
	}
	if _, err := baudToUnix(cfg.Baud); err != nil {
		return nil, err
	}

	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("hostport: open %s: %w", cfg.Device, err)
	}
	if err := setRaw(fd, cfg.Baud); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("hostport: configure %s: %w", cfg.Device, err)
	}

	file := os.NewFile(uintptr(fd), cfg.Device)
	p := newPort(file, ctrl, cfg)
	p.setBaud = func(baud int) error { return setRaw(fd, baud) }
	p.idle = func(err error) bool { return errors.Is(err, syscall.EAGAIN) }
	p.start()
	return p, nil
}

func setRaw(fd int, baud int) error {
	speed, err := baudToUnix(baud)
	if err != nil {
		return err
	}
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	// Raw mode
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB
	termios.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL

	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= speed
	termios.Ispeed = speed
	termios.Ospeed = speed

	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	return nil
}

func baudToUnix(baud int) (uint32, error) {
	switch baud {
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	case 460800:
		return unix.B460800, nil
	case 921600:
		return unix.B921600, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBaud, baud)
	}
}
