// uartline/critical.go

package uartline

// MaxMaskLines is the largest number of lines a CriticalSection can mask.
const MaxMaskLines = 64

// State records which of a CriticalSection's lines were enabled on Enter.
type State uint64

// CriticalSection masks a fixed set of interrupt lines so that short
// sequences of shared-state updates appear atomic to the handlers on those
// lines. Enter saves the prior per-line state and Exit restores exactly that
// state, so sections nest and a section entered with a line already masked
// leaves it masked:
//
//	state := cs.Enter()
//	defer cs.Exit(state)
//
// A CriticalSection with a nil controller is a no-op.
type CriticalSection struct {
	ctrl  InterruptController
	lines []IRQ
}

// NewCriticalSection returns a section over lines. It returns ErrTooManyLines
// when more than MaxMaskLines are given.
func NewCriticalSection(ctrl InterruptController, lines ...IRQ) (*CriticalSection, error) {
	if len(lines) > MaxMaskLines {
		return nil, ErrTooManyLines
	}
	return &CriticalSection{ctrl: ctrl, lines: append([]IRQ(nil), lines...)}, nil
}

// Lines returns a copy of the masked lines.
func (cs *CriticalSection) Lines() []IRQ {
	return append([]IRQ(nil), cs.lines...)
}

// Enter masks every line that is currently enabled and returns which ones
// it masked.
func (cs *CriticalSection) Enter() State {
	if cs.ctrl == nil {
		return 0
	}
	var s State
	for i, irq := range cs.lines {
		if cs.ctrl.IRQEnabled(irq) {
			cs.ctrl.DisableIRQ(irq)
			s |= 1 << uint(i)
		}
	}
	return s
}

// Exit re-enables the lines recorded in s, in reverse order of masking.
func (cs *CriticalSection) Exit(s State) {
	if cs.ctrl == nil {
		return
	}
	for i := len(cs.lines) - 1; i >= 0; i-- {
		if s&(1<<uint(i)) != 0 {
			cs.ctrl.EnableIRQ(cs.lines[i])
		}
	}
}
