// uartline/isr.go

package uartline

// handleInterrupt services the RX interrupt: it runs the user handler, then
// moves bytes from the hardware FIFO into the RX ring until the FIFO is
// empty or the ring is full. Bytes left in hardware are picked up by the
// consumer once it frees space (see refill).
func (m *Manager) handleInterrupt() {
	if m.callbacks.invoke() {
		m.dbgCallback()
	}
	n := m.drain()
	m.dbgISR(n)
}

// Poll runs the receive loop from the foreground, without calling the user
// handler, and returns the number of bytes moved. It is how a Manager built
// without interrupts is fed.
func (m *Manager) Poll() int {
	state := m.cs.Enter()
	defer m.cs.Exit(state)
	return m.drain()
}

// refill moves bytes the RX interrupt had to leave in hardware because the
// ring was full. The PL011 does not raise its RX interrupt again for bytes
// it has already reported, so the consumer pulls them in once it has made
// room. Polling-mode Managers are fed only by Poll.
func (m *Manager) refill() {
	if !m.interrupts || m.closed.Load() || !m.port.Readable() {
		return
	}
	state := m.cs.Enter()
	m.drain()
	m.cs.Exit(state)
}

func (m *Manager) drain() int {
	n := 0
	terminated := false
	for m.port.Readable() {
		if m.rx.IsFull() {
			m.dbgStall()
			break
		}
		c := m.port.GetByte()
		m.rx.Push(c)
		n++
		if c == LineTerminator {
			m.lineReady.Store(true)
			terminated = true
			m.dbgLine()
		}
	}
	if terminated {
		select {
		case m.notify <- struct{}{}:
		default:
		}
	}
	return n
}
