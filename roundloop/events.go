package roundloop

import (
	"sync"
	"time"
)

// EventKind identifies the type of loop event.
type EventKind string

const (
	// EventNewCompletion opens a round; Data carries the fresh round id.
	EventNewCompletion EventKind = "new_completion"
	// EventText carries the whole accumulated buffer so far, not a delta.
	// Consumers must treat each one as authoritative. The terminal text
	// event of an invocation sets Data["final"] = true.
	EventText EventKind = "text"
	// EventFunctionCall names the action with its code payload; the call id
	// equals the round id.
	EventFunctionCall EventKind = "function_call"
	// EventFunctionCallOutput carries the sandbox's raw textual result.
	EventFunctionCallOutput EventKind = "function_call_output"
)

// Event is a typed event emitted by the round loop. Events of one round
// never interleave with another round's; a round's terminal event always
// precedes the next round's EventNewCompletion.
type Event struct {
	Kind      EventKind              `json:"kind"`
	Timestamp time.Time              `json:"timestamp"`
	RoundID   string                 `json:"round_id"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// IsFinal reports whether this is the terminal event of the invocation.
func (e Event) IsFinal() bool {
	final, _ := e.Data["final"].(bool)
	return e.Kind == EventText && final
}

// eventEmitter delivers events to the host over a channel. Unlike a
// best-effort UI feed, the ordering here is contractual, so Emit blocks when
// the buffer is full instead of dropping.
type eventEmitter struct {
	ch     chan Event
	closed bool
	mu     sync.Mutex
}

func newEventEmitter(bufferSize int) *eventEmitter {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &eventEmitter{
		ch: make(chan Event, bufferSize),
	}
}

func (e *eventEmitter) emit(kind EventKind, roundID string, data map[string]interface{}) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	e.ch <- Event{
		Kind:      kind,
		Timestamp: time.Now(),
		RoundID:   roundID,
		Data:      data,
	}
}

func (e *eventEmitter) events() <-chan Event {
	return e.ch
}

// close closes the event channel. Safe to call multiple times.
func (e *eventEmitter) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.ch)
	}
}
