//go:build !uartlinedebug

package uartline

func (m *Manager) dbgISR(int)   {}
func (m *Manager) dbgStall()    {}
func (m *Manager) dbgLine()     {}
func (m *Manager) dbgCallback() {}
func (m *Manager) dbgReadWait() {}
func (m *Manager) dbgTimeout()  {}
