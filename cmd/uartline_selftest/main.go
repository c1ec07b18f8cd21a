//go:build rp2040 || rp2350

// uartline_selftest exercises the line driver on UART1 with TX wired to RX
// (Pico: GP8 to GP9). Results go to the USB console.
package main

import (
	"context"
	"time"

	"machine"

	"github.com/jangala-dev/tinygo-uartline/uartline"
)

var (
	uart = uartline.UART1
	baud = uint32(115200)
)

func ledBlink(times int, on time.Duration) {
	for i := 0; i < times; i++ {
		machine.LED.High()
		time.Sleep(on)
		machine.LED.Low()
		time.Sleep(on)
	}
}

// sendLine writes s followed by the terminator.
func sendLine(m *uartline.Manager, s string) {
	m.Write([]byte(s))
	m.WriteByte(uartline.LineTerminator)
}

// recvLine waits for a full line without spinning, then extracts it.
func recvLine(m *uartline.Manager, buf []byte, d time.Duration) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := m.WaitLineContext(ctx); err != nil {
		return "", false
	}
	n, err := m.ReceiveLineContext(ctx, buf)
	if err != nil {
		return "", false
	}
	return string(buf[:n]), true
}

// reset drops anything left over from a previous test.
func reset(m *uartline.Manager) {
	time.Sleep(5 * time.Millisecond)
	m.Flush()
	var tmp [64]byte
	for m.Buffered() > 0 {
		m.Read(tmp[:])
	}
	if m.HaveRxSerialData() {
		m.ReceiveLine(tmp[:0])
	}
}

func main() {
	// Give the monitor time to attach.
	time.Sleep(3 * time.Second)

	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	println("uartline self-test starting")

	m, err := uartline.Open(uart, uartline.Config{
		TX:         uartline.Pin(machine.UART1_TX_PIN),
		RX:         uartline.Pin(machine.UART1_RX_PIN),
		BaudRate:   baud,
		Interrupts: true,
	})
	if err != nil {
		println("Open failed:", err.Error())
		for {
			ledBlink(1, 500*time.Millisecond)
		}
	}

	pass, fail := 0, 0
	defer func() {
		println("")
		println("Summary")
		println("  passed =", pass)
		println("  failed =", fail)
		if fail == 0 {
			ledBlink(3, 120*time.Millisecond)
		} else {
			for {
				ledBlink(1, 600*time.Millisecond)
				time.Sleep(800 * time.Millisecond)
			}
		}
	}()

	run := func(name string, f func() string) {
		println("")
		println("[Test]", name)
		reset(m)
		if msg := f(); msg == "" {
			println("  PASS")
			pass++
		} else {
			println("  FAIL:", msg)
			fail++
		}
	}

	buf := make([]byte, 64)

	run("loopback: one line", func() string {
		sendLine(m, "hello, uartline")
		got, ok := recvLine(m, buf, time.Second)
		if !ok {
			return "timeout"
		}
		if got != "hello, uartline" {
			return "mismatch"
		}
		if buf[len(got)] != 0 {
			return "no end marker"
		}
		return ""
	})

	run("flag: set by terminator, cleared by ReceiveLine", func() string {
		if m.HaveRxSerialData() {
			return "flag set before data"
		}
		m.Write([]byte("abc"))
		time.Sleep(10 * time.Millisecond)
		if m.HaveRxSerialData() {
			return "flag set without terminator"
		}
		m.WriteByte(uartline.LineTerminator)
		time.Sleep(10 * time.Millisecond)
		if !m.HaveRxSerialData() {
			return "flag not set"
		}
		m.ReceiveLine(buf)
		if m.HaveRxSerialData() {
			return "flag not cleared"
		}
		return ""
	})

	run("truncate: rest stays buffered", func() string {
		sendLine(m, "abcdef")
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := m.WaitLineContext(ctx); err != nil {
			return "timeout"
		}
		n, _ := m.ReceiveLine(buf[:3])
		if string(buf[:n]) != "abc" {
			return "first part wrong"
		}
		n, _ = m.ReceiveLine(buf)
		if string(buf[:n]) != "def" {
			return "second part wrong"
		}
		return ""
	})

	run("callback: runs on receive, stops on detach", func() string {
		var calls int
		m.AttachRxFunc(func() { calls++ })
		sendLine(m, "cb")
		if _, ok := recvLine(m, buf, time.Second); !ok {
			m.DetachRx()
			return "timeout"
		}
		m.DetachRx()
		if calls == 0 {
			return "never called"
		}
		before := calls
		sendLine(m, "cb")
		recvLine(m, buf, time.Second)
		if calls != before {
			return "called after detach"
		}
		return ""
	})

	run("timeout: no data within 200ms", func() string {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		if _, err := m.ReceiveLineContext(ctx, buf); err != context.DeadlineExceeded {
			return "expected deadline"
		}
		return ""
	})

	run("print: PrintLine stops at end marker", func() string {
		if n := m.PrintLine([]byte("ok\r\x00ignored")); n != 3 {
			return "wrong count"
		}
		got, ok := recvLine(m, buf, time.Second)
		if !ok || got != "ok" {
			return "mismatch"
		}
		return ""
	})

	run("stress: 200 numbered lines", func() string {
		var line [16]byte
		for i := 0; i < 200; i++ {
			s := "n" + itoa(i)
			sendLine(m, s)
			got, ok := recvLine(m, line[:], time.Second)
			if !ok {
				return "timeout at " + itoa(i)
			}
			if got != s {
				return "mismatch at " + itoa(i)
			}
		}
		return ""
	})

	printStats(m)
	println("")
	println("All tests completed")
}

// --- tiny helpers (no fmt) ---

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + (n % 10))
		n /= 10
	}
	return string(buf[i:])
}
