//go:build rp2040 || rp2350

// uartline_regs dumps the PL011 registers of UART0 before and after
// uartline.Open and checks the bits the line driver depends on.
package main

import (
	"device/rp"
	"time"

	"github.com/jangala-dev/tinygo-uartline/uartline"
)

func main() {
	time.Sleep(2 * time.Second)

	u := uartline.UART0.Bus

	println("Before Open:")
	report(u)

	m, err := uartline.Open(uartline.UART0, uartline.Config{
		BaudRate:   115200,
		Interrupts: true,
	})
	if err != nil {
		println("open failed:", err.Error())
		halt()
	}
	_ = m

	println("After Open:")
	report(u)

	check("FIFOs enabled (FEN)", u.UARTLCR_H.HasBits(rp.UART0_UARTLCR_H_FEN))
	check("8 data bits", u.UARTLCR_H.Get()&rp.UART0_UARTLCR_H_WLEN_Msk == rp.UART0_UARTLCR_H_WLEN_Msk)
	check("RX enabled", u.UARTCR.HasBits(rp.UART0_UARTCR_UARTEN|rp.UART0_UARTCR_RXE))
	check("RX level irq unmasked", u.UARTIMSC.HasBits(rp.UART0_UARTIMSC_RXIM))
	check("RX timeout irq unmasked", u.UARTIMSC.HasBits(rp.UART0_UARTIMSC_RTIM))
	check("NVIC line enabled", uartline.NVIC.IRQEnabled(uartline.UART0.IRQ()))
	check("divisor programmed", u.UARTIBRD.Get() != 0)

	halt()
}

func check(name string, ok bool) {
	if ok {
		println("  ok  ", name)
	} else {
		println("  FAIL", name)
	}
}

func report(u *rp.UART0_Type) {
	println("-----------------------------")
	print("UARTCR   = 0x")
	printlnHex(u.UARTCR.Get())
	print("UARTLCR_H= 0x")
	printlnHex(u.UARTLCR_H.Get())
	print("UARTFR   = 0x")
	printlnHex(u.UARTFR.Get())
	print("UARTIBRD = 0x")
	printlnHex(u.UARTIBRD.Get())
	print("UARTFBRD = 0x")
	printlnHex(u.UARTFBRD.Get())
	print("UARTIMSC = 0x")
	printlnHex(u.UARTIMSC.Get())
	print("UARTIFLS = 0x")
	printlnHex(u.UARTIFLS.Get())
}

func printlnHex(v uint32) {
	const hexdigits = "0123456789abcdef"
	var b [8]byte
	for i := 0; i < 8; i++ {
		shift := uint(28 - 4*i)
		b[i] = hexdigits[(v>>shift)&0xF]
	}
	println(string(b[:]))
}

func halt() {
	for {
		time.Sleep(time.Hour)
	}
}
