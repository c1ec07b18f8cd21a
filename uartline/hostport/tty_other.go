//go:build !linux

package hostport

import (
	"github.com/golang/glog"

	"github.com/jangala-dev/tinygo-uartline/uartline/softirq"
)

// OpenTTY falls back to OpenTarm where raw termios is not available.
func OpenTTY(cfg Config, ctrl *softirq.Controller) (*Port, error) {
	glog.V(1).Infof("%s: tty backend unavailable, using tarm", cfg.Device)
	return OpenTarm(cfg, ctrl)
}
