package realtime

import (
	"github.com/navid-fn/gasradar/gasprice"
)

// Handler receives the events of one stream, in arrival order, from the
// goroutine that called Run.
type Handler interface {
	OnData(estimates gasprice.FeeEstimateSet)
	OnError(err error)
	// OnClose gets the peer's close code (0 when absent) and reason. It is not
	// called for a close that carries neither.
	OnClose(code int, reason string)
}

// HandlerFuncs adapts plain functions to Handler. Nil functions are skipped.
type HandlerFuncs struct {
	Data  func(gasprice.FeeEstimateSet)
	Error func(error)
	Close func(code int, reason string)
}

// OnData calls Data when it is set.
func (h HandlerFuncs) OnData(estimates gasprice.FeeEstimateSet) {
	if h.Data != nil {
		h.Data(estimates)
	}
}

// OnError calls Error when it is set.
func (h HandlerFuncs) OnError(err error) {
	if h.Error != nil {
		h.Error(err)
	}
}

// OnClose calls Close when it is set.
func (h HandlerFuncs) OnClose(code int, reason string) {
	if h.Close != nil {
		h.Close(code, reason)
	}
}

// EventKind tells which callback produced an Event.
type EventKind int

// Event kinds, one per Handler callback.
const (
	EventData EventKind = iota
	EventError
	EventClose
)

func (k EventKind) String() string {
	switch k {
	case EventData:
		return "data"
	case EventError:
		return "error"
	case EventClose:
		return "close"
	}
	return "unknown"
}

// Event is one stream event. Only the fields of its Kind are set.
type Event struct {
	Kind      EventKind
	Estimates gasprice.FeeEstimateSet
	Err       error
	Code      int
	Reason    string
}

// ChannelHandler turns stream callbacks into Events on a channel. A full buffer
// blocks the stream until the consumer catches up.
type ChannelHandler struct {
	events chan Event
}

// NewChannelHandler creates a ChannelHandler whose channel holds up to buffer events.
func NewChannelHandler(buffer int) *ChannelHandler {
	return &ChannelHandler{events: make(chan Event, buffer)}
}

// Events returns the receive side of the channel.
func (h *ChannelHandler) Events() <-chan Event {
	return h.events
}

// Done closes the channel. Call it once Run has returned.
func (h *ChannelHandler) Done() {
	close(h.events)
}

// OnData sends an EventData.
func (h *ChannelHandler) OnData(estimates gasprice.FeeEstimateSet) {
	h.events <- Event{Kind: EventData, Estimates: estimates}
}

// OnError sends an EventError.
func (h *ChannelHandler) OnError(err error) {
	h.events <- Event{Kind: EventError, Err: err}
}

// OnClose sends an EventClose.
func (h *ChannelHandler) OnClose(code int, reason string) {
	h.events <- Event{Kind: EventClose, Code: code, Reason: reason}
}
