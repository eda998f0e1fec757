package core

import (
	"sync"
	"time"
)

// Event is one observable step of a flow: a transport round trip or a state
// transition. Events feed the TUI event pane.
type Event struct {
	Time     time.Time
	Kind     string // "http" or "flow"
	Method   string
	Path     string
	Status   int
	Duration time.Duration
	Detail   string
	Error    string
}

// EventHub is a fixed-capacity ring of recent events with fan-out to
// subscribers. Slow subscribers drop events rather than block the flow.
type EventHub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
	ring []Event
	cap  int
	head int
	size int
}

func NewEventHub(capacity int) *EventHub {
	return &EventHub{
		subs: make(map[chan Event]struct{}),
		ring: make([]Event, capacity),
		cap:  capacity,
	}
}

func (h *EventHub) Append(e Event) {
	if h == nil || h.cap == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ring[h.head] = e
	h.head = (h.head + 1) % h.cap
	if h.size < h.cap {
		h.size++
	}

	for ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

func (h *EventHub) Snapshot() []Event {
	if h == nil || h.size == 0 {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Event, h.size)
	start := (h.head - h.size + h.cap) % h.cap
	for i := 0; i < h.size; i++ {
		out[i] = h.ring[(start+i)%h.cap]
	}
	return out
}

func (h *EventHub) Subscribe() chan Event {
	ch := make(chan Event, 64)
	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[chan Event]struct{})
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventHub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	close(ch)
}
