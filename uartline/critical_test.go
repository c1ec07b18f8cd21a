package uartline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeNVIC records every enable/disable it sees.
type fakeNVIC struct {
	enabled map[IRQ]bool
	log     []string
}

func newFakeNVIC(enabled ...IRQ) *fakeNVIC {
	f := &fakeNVIC{enabled: make(map[IRQ]bool)}
	for _, irq := range enabled {
		f.enabled[irq] = true
	}
	return f
}

func (f *fakeNVIC) EnableIRQ(irq IRQ) {
	f.enabled[irq] = true
	f.log = append(f.log, "on", string(rune('0'+irq)))
}

func (f *fakeNVIC) DisableIRQ(irq IRQ) {
	f.enabled[irq] = false
	f.log = append(f.log, "off", string(rune('0'+irq)))
}

func (f *fakeNVIC) IRQEnabled(irq IRQ) bool { return f.enabled[irq] }

func TestCriticalSection_MasksAndRestores(t *testing.T) {
	nvic := newFakeNVIC(1, 2)
	cs, err := NewCriticalSection(nvic, 1, 2)
	require.NoError(t, err)

	state := cs.Enter()
	require.False(t, nvic.IRQEnabled(1))
	require.False(t, nvic.IRQEnabled(2))

	cs.Exit(state)
	require.True(t, nvic.IRQEnabled(1))
	require.True(t, nvic.IRQEnabled(2))
	require.Equal(t, []string{"off", "1", "off", "2", "on", "2", "on", "1"}, nvic.log)
}

func TestCriticalSection_Nests(t *testing.T) {
	nvic := newFakeNVIC(3)
	cs, err := NewCriticalSection(nvic, 3)
	require.NoError(t, err)

	outer := cs.Enter()
	inner := cs.Enter()
	require.False(t, nvic.IRQEnabled(3))

	cs.Exit(inner)
	require.False(t, nvic.IRQEnabled(3), "inner exit must not unmask")

	cs.Exit(outer)
	require.True(t, nvic.IRQEnabled(3))
}

func TestCriticalSection_LeavesMaskedLineMasked(t *testing.T) {
	nvic := newFakeNVIC(1) // line 2 already masked elsewhere
	cs, err := NewCriticalSection(nvic, 1, 2)
	require.NoError(t, err)

	state := cs.Enter()
	cs.Exit(state)

	require.True(t, nvic.IRQEnabled(1))
	require.False(t, nvic.IRQEnabled(2))
}

func TestCriticalSection_RestoresOnEarlyReturn(t *testing.T) {
	nvic := newFakeNVIC(4)
	cs, err := NewCriticalSection(nvic, 4)
	require.NoError(t, err)

	f := func(bail bool) int {
		state := cs.Enter()
		defer cs.Exit(state)
		if bail {
			return 1
		}
		return 2
	}
	require.Equal(t, 1, f(true))
	require.True(t, nvic.IRQEnabled(4))
	require.Equal(t, 2, f(false))
	require.True(t, nvic.IRQEnabled(4))
}

func TestCriticalSection_NilControllerIsNoop(t *testing.T) {
	cs, err := NewCriticalSection(nil, 1)
	require.NoError(t, err)
	require.Zero(t, cs.Enter())
	cs.Exit(State(1))
}

func TestCriticalSection_TooManyLines(t *testing.T) {
	lines := make([]IRQ, MaxMaskLines+1)
	_, err := NewCriticalSection(newFakeNVIC(), lines...)
	require.ErrorIs(t, err, ErrTooManyLines)

	cs, err := NewCriticalSection(newFakeNVIC(), lines[:MaxMaskLines]...)
	require.NoError(t, err)
	require.Len(t, cs.Lines(), MaxMaskLines)
}
