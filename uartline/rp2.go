// uartline/rp2.go

//go:build rp2040 || rp2350

package uartline

import (
	"device/arm"
	"device/rp"
	"runtime/interrupt"
)

// UART on the RP2040/RP2350.
var (
	UART0  = &_UART0
	_UART0 = UART{
		Bus: rp.UART0,
		irq: rp.IRQ_UART0_IRQ,
	}

	UART1  = &_UART1
	_UART1 = UART{
		Bus: rp.UART1,
		irq: rp.IRQ_UART1_IRQ,
	}
)

func init() {
	UART0.Interrupt = interrupt.New(rp.IRQ_UART0_IRQ, _UART0.handleInterrupt)
	UART1.Interrupt = interrupt.New(rp.IRQ_UART1_IRQ, _UART1.handleInterrupt)
}

// NVIC masks lines on the Cortex-M interrupt controller.
var NVIC InterruptController = nvic{}

type nvic struct{}

func (nvic) EnableIRQ(irq IRQ)  { arm.EnableIRQ(uint32(irq)) }
func (nvic) DisableIRQ(irq IRQ) { arm.DisableIRQ(uint32(irq)) }

func (nvic) IRQEnabled(irq IRQ) bool {
	return arm.NVIC.ISER[irq>>5].HasBits(1 << (irq & 31))
}

// UARTLines lists every PL011 line on the device, for callers that want the
// whole-device masking of a shared critical section.
var UARTLines = []IRQ{rp.IRQ_UART0_IRQ, rp.IRQ_UART1_IRQ}

// Open builds a Manager on one of the on-chip UARTs using the NVIC.
func Open(uart *UART, cfg Config) (*Manager, error) {
	return New(uart, NVIC, cfg)
}
