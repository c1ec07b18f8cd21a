// uartline/uartline_blocking.go

package uartline

import (
	"context"
	"time"
)

// ReceiveLineContext is ReceiveLine that also gives up when ctx is done.
// On cancellation it returns the bytes already copied and ctx.Err().
func (m *Manager) ReceiveLineContext(ctx context.Context, line []byte) (int, error) {
	return m.receiveLine(ctx, line)
}

// receiveLine is the consumer side of the RX ring. Index updates happen
// inside the critical section; the section is released while spinning so
// the RX interrupt can refill the ring.
func (m *Manager) receiveLine(ctx context.Context, line []byte) (int, error) {
	if line == nil {
		return 0, nil
	}
	if m.closed.Load() {
		return 0, ErrClosed
	}
	var deadline time.Time
	if m.timeout > 0 {
		deadline = time.Now().Add(m.timeout)
	}

	n := 0
	state := m.cs.Enter()
	for n < len(line) {
		if m.rx.IsEmpty() && m.interrupts && m.port.Readable() {
			// Left behind by an interrupt that found the ring full.
			m.drain()
		}
		if m.rx.IsEmpty() {
			m.cs.Exit(state)
			if err := m.waitNotEmpty(ctx, deadline); err != nil {
				return n, err
			}
			state = m.cs.Enter()
		}
		c := m.rx.Pop()
		if c == LineTerminator {
			line[n] = lineEnd
			break
		}
		line[n] = c
		n++
	}
	m.lineReady.Store(false)
	m.cs.Exit(state)
	return n, nil
}

// waitNotEmpty spins until the RX ring has data. It never yields: on a
// single core the only thing that can fill the ring is the interrupt.
func (m *Manager) waitNotEmpty(ctx context.Context, deadline time.Time) error {
	m.dbgReadWait()
	var done <-chan struct{}
	if ctx != nil {
		done = ctx.Done()
	}
	for m.rx.IsEmpty() {
		if m.closed.Load() {
			return ErrClosed
		}
		if done != nil {
			select {
			case <-done:
				m.dbgTimeout()
				return ctx.Err()
			default:
			}
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			m.dbgTimeout()
			return ErrTimeout
		}
	}
	return nil
}

// WaitLineContext blocks until HaveRxSerialData is true or ctx is done.
// Unlike ReceiveLine it sleeps on LineReady rather than spinning.
func (m *Manager) WaitLineContext(ctx context.Context) error {
	for {
		if m.HaveRxSerialData() {
			return nil
		}
		select {
		case <-m.notify:
			// coalesced; re-check
		case <-ctx.Done():
			m.dbgTimeout()
			return ctx.Err()
		}
	}
}
