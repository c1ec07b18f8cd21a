// uartline/peripheral.go

package uartline

// Pin identifies a GPIO pin on the target. On TinyGo builds it converts
// directly to machine.Pin.
type Pin uint8

// NoPin marks an unused TX or RX pin.
const NoPin Pin = 0xff

// IRQ is an interrupt line number as understood by an InterruptController.
type IRQ uint32

// Peripheral is the hardware UART seen by a Manager.
//
// GetByte and PutByte move a single byte through the hardware FIFOs and must
// only be called after Readable or Writable respectively reported true.
// SetRxHandler binds fn to the peripheral's "receive data available" event;
// a nil fn unbinds it. The handler runs in interrupt context.
type Peripheral interface {
	Configure(tx, rx Pin) error
	SetBaudRate(br uint32)

	Readable() bool
	GetByte() byte
	Writable() bool
	PutByte(c byte)

	// IRQ reports the interrupt line the peripheral raises for RX events.
	IRQ() IRQ
	SetRxHandler(fn func())
}

// InterruptController masks and unmasks individual interrupt lines.
// Disabling an already disabled line is harmless.
type InterruptController interface {
	EnableIRQ(irq IRQ)
	DisableIRQ(irq IRQ)
	IRQEnabled(irq IRQ) bool
}
