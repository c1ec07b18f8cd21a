package uartline

import "tinygo.org/x/drivers"

// Manager can stand in for machine.UART under TinyGo driver packages.
var _ drivers.UART = (*Manager)(nil)
