// uartline/rp2_uart.go

//go:build rp2040 || rp2350

package uartline

import (
	"device/rp"
	"machine"
	"runtime/interrupt"
)

// UART is an RP2040/RP2350 PL011 instance driven as a Peripheral.
// The foreground and the RX interrupt both touch UARTDR only for reads;
// transmit is polled.
type UART struct {
	Bus       *rp.UART0_Type
	Interrupt interrupt.Interrupt

	irq     IRQ
	handler func()
	baud    uint32

	// One byte read ahead of GetByte, so that Readable can skip bytes
	// received with a line error.
	next     byte
	hasNext  bool
	rxErrors uint32
}

const rxErrorBits = rp.UART0_UARTDR_OE | rp.UART0_UARTDR_BE | rp.UART0_UARTDR_PE | rp.UART0_UARTDR_FE

// Configure resets the PL011, muxes the pins, selects 8N1 with FIFOs and
// unmasks the RX level and RX timeout interrupts at the peripheral. The NVIC
// line itself is left to the InterruptController.
func (uart *UART) Configure(tx, rx Pin) error {
	initUART(uart)
	uart.hasNext = false

	txPin, rxPin := machine.Pin(tx), machine.Pin(rx)
	if tx == NoPin && rx == NoPin {
		txPin = machine.UART_TX_PIN
		rxPin = machine.UART_RX_PIN
	}

	// 1) Disable UART while configuring.
	uart.Bus.UARTCR.ClearBits(rp.UART0_UARTCR_UARTEN | rp.UART0_UARTCR_RXE | rp.UART0_UARTCR_TXE)

	// 2) Mux pins before touching baud/format.
	if txPin != machine.NoPin {
		txPin.Configure(machine.PinConfig{Mode: machine.PinUART})
	}
	if rxPin != machine.NoPin {
		rxPin.Configure(machine.PinConfig{Mode: machine.PinUART})
	}

	// 3) Reset cleared the divisors; reprogram the last baud, then 8N1.
	br := uart.baud
	if br == 0 {
		br = DefaultBaudRate
	}
	uart.SetBaudRate(br)
	uart.setFormat8N1()

	// 4) Clear pending IRQs and purge the RX FIFO.
	uart.Bus.UARTICR.Set(0x7FF)
	for !uart.Bus.UARTFR.HasBits(rp.UART0_UARTFR_RXFE) {
		_ = uart.Bus.UARTDR.Get()
	}
	uart.Bus.UARTRSR.Set(0)

	// 5) Enable.
	uart.Bus.UARTCR.Set(rp.UART0_UARTCR_UARTEN | rp.UART0_UARTCR_RXE | rp.UART0_UARTCR_TXE)

	// 6) RX level at 1/8 and RX timeout so short lines still interrupt.
	uart.Interrupt.SetPriority(0x80)
	uart.Bus.UARTIFLS.Set(0)
	uart.Bus.UARTIMSC.Set(rp.UART0_UARTIMSC_RXIM | rp.UART0_UARTIMSC_RTIM)
	return nil
}

// SetBaudRate programs the PL011 integer and fractional divisors and performs
// the "dummy" LCR_H write required to latch them.
func (uart *UART) SetBaudRate(br uint32) {
	uart.baud = br
	div := 8 * machine.CPUFrequency() / br

	ibrd := div >> 7
	var fbrd uint32
	switch {
	case ibrd == 0:
		ibrd = 1
		fbrd = 0
	case ibrd >= 65535:
		ibrd = 65535
		fbrd = 0
	default:
		fbrd = ((div & 0x7f) + 1) / 2
	}

	uart.Bus.UARTIBRD.Set(ibrd)
	uart.Bus.UARTFBRD.Set(fbrd)
	uart.Bus.UARTLCR_H.Set(uart.Bus.UARTLCR_H.Get())
}

// Readable reports whether a good byte is waiting. Bytes flagged with
// overrun, break, parity or framing errors are dropped and counted.
func (uart *UART) Readable() bool {
	for !uart.hasNext {
		if uart.Bus.UARTFR.HasBits(rp.UART0_UARTFR_RXFE) {
			return false
		}
		r := uart.Bus.UARTDR.Get()
		if r&rxErrorBits != 0 {
			// Reading DR clears the per-byte error flags.
			uart.rxErrors++
			continue
		}
		uart.next, uart.hasNext = byte(r&0xFF), true
	}
	return true
}

// GetByte returns the byte Readable found. It must follow a true Readable.
func (uart *UART) GetByte() byte {
	if !uart.Readable() {
		return 0
	}
	uart.hasNext = false
	return uart.next
}

// RxErrors returns how many received bytes were dropped for line errors.
func (uart *UART) RxErrors() uint32 { return uart.rxErrors }

// Writable reports TXFF == 0.
func (uart *UART) Writable() bool {
	return !uart.Bus.UARTFR.HasBits(rp.UART0_UARTFR_TXFF)
}

// PutByte pushes one byte into the TX FIFO.
func (uart *UART) PutByte(c byte) {
	uart.Bus.UARTDR.Set(uint32(c))
}

// IRQ returns the NVIC line of this PL011.
func (uart *UART) IRQ() IRQ { return uart.irq }

// SetRxHandler binds fn to the RX level/timeout interrupt.
func (uart *UART) SetRxHandler(fn func()) {
	uart.handler = fn
}

func (uart *UART) setFormat8N1() {
	const wlen8 = 3 << rp.UART0_UARTLCR_H_WLEN_Pos
	uart.Bus.UARTLCR_H.Set(wlen8 | rp.UART0_UARTLCR_H_FEN)
}

// initUART asserts and releases the peripheral reset for the selected PL011.
func initUART(uart *UART) {
	var resetVal uint32
	switch {
	case uart.Bus == rp.UART0:
		resetVal = rp.RESETS_RESET_UART0
	case uart.Bus == rp.UART1:
		resetVal = rp.RESETS_RESET_UART1
	}

	rp.RESETS.RESET.SetBits(resetVal)
	rp.RESETS.RESET.ClearBits(resetVal)
	for !rp.RESETS.RESET_DONE.HasBits(resetVal) {
	}
}

// handleInterrupt runs the bound RX handler and acknowledges RX level and
// timeout. Bytes the handler left in the FIFO (ring full) do not raise the
// interrupt again; the Manager pulls them in when its consumer frees space.
func (uart *UART) handleInterrupt(interrupt.Interrupt) {
	if fn := uart.handler; fn != nil {
		fn()
	}
	uart.Bus.UARTICR.Set(rp.UART0_UARTICR_RXIC | rp.UART0_UARTICR_RTIC)
	uart.Bus.UARTRSR.Set(0)
}
