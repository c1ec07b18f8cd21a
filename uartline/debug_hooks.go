//go:build uartlinedebug

package uartline

import "sync/atomic"

// Called at the end of every RX interrupt with the number of bytes drained.
func (m *Manager) dbgISR(bytesDrained int) {
	atomic.AddUint32(&m.stats.ISRCount, 1)
	atomic.AddUint32(&m.stats.ISRBytes, uint32(bytesDrained))
	for {
		max := atomic.LoadUint32(&m.stats.ISRMaxDrain)
		if uint32(bytesDrained) <= max {
			break
		}
		if atomic.CompareAndSwapUint32(&m.stats.ISRMaxDrain, max, uint32(bytesDrained)) {
			break
		}
	}
	used := uint32(m.rx.Used())
	for {
		max := atomic.LoadUint32(&m.stats.RingMaxUsed)
		if used <= max {
			break
		}
		if atomic.CompareAndSwapUint32(&m.stats.RingMaxUsed, max, used) {
			break
		}
	}
}

// Called when the ring is full while the hardware still has data.
func (m *Manager) dbgStall() {
	atomic.AddUint32(&m.stats.RingStalls, 1)
}

func (m *Manager) dbgLine() {
	atomic.AddUint32(&m.stats.Lines, 1)
}

func (m *Manager) dbgCallback() {
	atomic.AddUint32(&m.stats.Callbacks, 1)
}

func (m *Manager) dbgReadWait() {
	atomic.AddUint32(&m.stats.ReadWaits, 1)
}

func (m *Manager) dbgTimeout() {
	atomic.AddUint32(&m.stats.Timeouts, 1)
}
