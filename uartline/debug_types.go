//go:build uartlinedebug

package uartline

import "sync/atomic"

// Stats holds counters since the last reset.
type Stats struct {
	// ISR-level
	ISRCount    uint32 // number of RX interrupts serviced
	ISRBytes    uint32 // total bytes drained in interrupts
	ISRMaxDrain uint32 // max bytes drained in a single interrupt
	Callbacks   uint32 // user handler invocations
	Lines       uint32 // terminators stored

	// Ring buffer
	RingStalls  uint32 // drains stopped by a full ring
	RingMaxUsed uint32 // high-water mark of ring occupancy

	// Consumer
	ReadWaits uint32 // times ReceiveLine had to spin
	Timeouts  uint32 // ReceiveLine/WaitLine gave up
}

func (m *Manager) DebugReset() {
	for _, c := range []*uint32{
		&m.stats.ISRCount, &m.stats.ISRBytes, &m.stats.ISRMaxDrain,
		&m.stats.Callbacks, &m.stats.Lines,
		&m.stats.RingStalls, &m.stats.RingMaxUsed,
		&m.stats.ReadWaits, &m.stats.Timeouts,
	} {
		atomic.StoreUint32(c, 0)
	}
}

func (m *Manager) DebugStats() Stats {
	return Stats{
		ISRCount:    atomic.LoadUint32(&m.stats.ISRCount),
		ISRBytes:    atomic.LoadUint32(&m.stats.ISRBytes),
		ISRMaxDrain: atomic.LoadUint32(&m.stats.ISRMaxDrain),
		Callbacks:   atomic.LoadUint32(&m.stats.Callbacks),
		Lines:       atomic.LoadUint32(&m.stats.Lines),

		RingStalls:  atomic.LoadUint32(&m.stats.RingStalls),
		RingMaxUsed: atomic.LoadUint32(&m.stats.RingMaxUsed),

		ReadWaits: atomic.LoadUint32(&m.stats.ReadWaits),
		Timeouts:  atomic.LoadUint32(&m.stats.Timeouts),
	}
}
