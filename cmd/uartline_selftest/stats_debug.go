//go:build (rp2040 || rp2350) && uartlinedebug

package main

import "github.com/jangala-dev/tinygo-uartline/uartline"

func printStats(m *uartline.Manager) {
	s := m.DebugStats()
	println("")
	println("Stats")
	println("  isr      =", s.ISRCount, "bytes =", s.ISRBytes, "max drain =", s.ISRMaxDrain)
	println("  lines    =", s.Lines, "callbacks =", s.Callbacks)
	println("  ring     = stalls", s.RingStalls, "max used", s.RingMaxUsed)
	println("  consumer = waits", s.ReadWaits, "timeouts", s.Timeouts)
}
