// uartline_monitor receives carriage-return terminated lines from a host
// serial device through the uartline driver and prints them. Lines typed on
// stdin are sent to the device with a terminator appended.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"
	"tinygo.org/x/drivers/gps"

	"github.com/jangala-dev/tinygo-uartline/uartline"
	"github.com/jangala-dev/tinygo-uartline/uartline/hostport"
	"github.com/jangala-dev/tinygo-uartline/uartline/softirq"
)

var (
	device  = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud    = flag.Int("baud", uartline.DefaultBaudRate, "Baud rate")
	backend = flag.String("backend", "tty", "Device backend: tty or tarm")
	timeout = flag.Duration("timeout", 0, "Per-line receive timeout (0 = wait forever)")
	maxLine = flag.Int("max", 256, "Longest line returned in one piece")
	reply   = flag.String("reply", "", "Send this line back after every received line")
	nmea    = flag.Bool("nmea", false, "Decode lines as NMEA sentences from a GPS receiver")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	if err := run(); err != nil {
		glog.Error(err)
		glog.Flush()
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := softirq.New()
	cfg := hostport.DefaultConfig(*device)
	cfg.Baud = *baud

	var (
		port *hostport.Port
		err  error
	)
	switch *backend {
	case "tty":
		port, err = hostport.OpenTTY(cfg, ctrl)
	case "tarm":
		port, err = hostport.OpenTarm(cfg, ctrl)
	default:
		return fmt.Errorf("unknown backend %q", *backend)
	}
	if err != nil {
		return err
	}
	defer port.Close()

	m, err := uartline.New(port, ctrl, uartline.Config{
		BaudRate:   uint32(*baud),
		Interrupts: true,
		Timeout:    *timeout,
	})
	if err != nil {
		return err
	}
	defer m.Close()
	glog.Infof("listening on %s at %d baud", *device, *baud)

	go forwardStdin(ctx, m)

	parser := gps.NewParser()
	line := make([]byte, *maxLine)
	for {
		n, err := m.ReceiveLineContext(ctx, line)
		switch {
		case err == nil:
		case errors.Is(err, uartline.ErrTimeout):
			glog.V(1).Infof("no line within %v (%d bytes pending)", *timeout, n)
			if n > 0 {
				fmt.Printf("%s", line[:n])
			}
			continue
		case errors.Is(err, context.Canceled):
			glog.Info("stop requested")
			return reportErr(port)
		default:
			return err
		}

		if *nmea {
			printFix(&parser, line[:n])
		} else {
			fmt.Printf("%s %s\n", time.Now().Format("15:04:05.000"), line[:n])
		}
		if *reply != "" {
			m.PrintLine([]byte(*reply + string(uartline.LineTerminator)))
		}
	}
}

// printFix decodes one NMEA sentence. GPS receivers end sentences with
// CRLF, so the '\n' of the previous one leads the line.
func printFix(parser *gps.Parser, line []byte) {
	s := strings.TrimLeft(string(line), "\n")
	if s == "" {
		return
	}
	fix, err := parser.Parse(s)
	if err != nil {
		glog.V(1).Infof("skip %q: %v", s, err)
		return
	}
	if !fix.Valid {
		fmt.Printf("%s no fix\n", s[1:6])
		return
	}
	fmt.Printf("%s %s lat=%.5f lon=%.5f", s[1:6], fix.Time.Format("15:04:05"), fix.Latitude, fix.Longitude)
	if fix.Satellites > 0 {
		fmt.Printf(" sats=%d alt=%dm", fix.Satellites, fix.Altitude)
	}
	if fix.Speed > 0 {
		fmt.Printf(" speed=%.1fkn heading=%.1f", fix.Speed, fix.Heading)
	}
	fmt.Println()
}

func forwardStdin(ctx context.Context, m *uartline.Manager) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		m.Write(scanner.Bytes())
		m.WriteByte(uartline.LineTerminator)
	}
	if err := scanner.Err(); err != nil {
		glog.Warningf("stdin: %v", err)
	}
}

func reportErr(port *hostport.Port) error {
	if n := port.Overruns(); n > 0 {
		glog.Warningf("%d bytes lost to FIFO overrun", n)
	}
	return port.Err()
}
