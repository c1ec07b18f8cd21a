// uartline/callback.go

package uartline

import "sync/atomic"

// Handler is invoked at the start of every receive interrupt, before the
// hardware FIFO is drained. It runs in interrupt context and must not block.
type Handler interface {
	HandleRx()
}

// HandlerFunc adapts a plain function or a method value to Handler.
type HandlerFunc func()

// HandleRx calls f.
func (f HandlerFunc) HandleRx() { f() }

// callbackRegistry holds at most one Handler. The slot is swapped atomically
// so the interrupt never observes a half-written value.
type callbackRegistry struct {
	slot atomic.Pointer[handlerBox]
}

type handlerBox struct{ h Handler }

func (r *callbackRegistry) attach(h Handler) {
	r.detach()
	if isNilHandler(h) {
		return
	}
	r.slot.Store(&handlerBox{h: h})
}

func (r *callbackRegistry) detach() {
	r.slot.Store(nil)
}

func (r *callbackRegistry) attached() bool {
	return r.slot.Load() != nil
}

// invoke calls the current handler and reports whether one was attached.
func (r *callbackRegistry) invoke() bool {
	b := r.slot.Load()
	if b == nil {
		return false
	}
	b.h.HandleRx()
	return true
}

func isNilHandler(h Handler) bool {
	if h == nil {
		return true
	}
	if f, ok := h.(HandlerFunc); ok && f == nil {
		return true
	}
	return false
}
