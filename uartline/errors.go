package uartline

import "errors"

var (
	ErrBufferEmpty   = errors.New("uartline: RX buffer empty")
	ErrTimeout       = errors.New("uartline: receive timeout")
	ErrClosed        = errors.New("uartline: manager closed")
	ErrNilPeripheral = errors.New("uartline: nil peripheral")
	ErrNilController = errors.New("uartline: interrupts enabled without a controller")
	ErrBufferSize    = errors.New("uartline: buffer size must be at least 2")
	ErrTooManyLines  = errors.New("uartline: too many interrupt lines to mask")
)
