//go:build !uartlinedebug

package uartline

type Stats struct{}

func (m *Manager) DebugReset()       {}
func (m *Manager) DebugStats() Stats { return Stats{} }
