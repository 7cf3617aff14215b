package sse

import (
	"sync"
)

// Event is one message on a company's stream.
type Event struct {
	CompanyID string
	Event     string
	Data      interface{}
}

// Hub fans events out to every open stream of a company.
type Hub struct {
	mu          sync.RWMutex
	buffer      int
	subscribers map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		buffer:      16,
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe opens a stream for companyID. The returned cleanup closes the
// channel and must be called exactly once.
func (h *Hub) Subscribe(companyID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.subscribers[companyID] == nil {
		h.subscribers[companyID] = make(map[chan Event]struct{})
	}
	h.subscribers[companyID][ch] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[companyID], ch)
			close(ch)
			if len(h.subscribers[companyID]) == 0 {
				delete(h.subscribers, companyID)
			}
		})
	}

	return ch, cleanup
}

// Publish never blocks: a subscriber whose buffer is full misses the event.
func (h *Hub) Publish(companyID string, event string, data interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	msg := Event{CompanyID: companyID, Event: event, Data: data}
	for ch := range h.subscribers[companyID] {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (h *Hub) SubscriberCount(companyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[companyID])
}
