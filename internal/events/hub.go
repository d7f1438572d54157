package events

import "sync"

// subscriberBuffer is how many events a subscriber may fall behind before
// newer ones are dropped for it.
const subscriberBuffer = 16

type subscriber struct {
	ch   chan string
	once sync.Once
}

// Hub broadcasts encoded events. Publish never blocks on a slow reader.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[*subscriber]struct{}{}}
}

// Subscribe registers a reader. The returned cancel func removes it and
// closes the channel; it may be called more than once.
func (h *Hub) Subscribe() (<-chan string, func()) {
	s := &subscriber{ch: make(chan string, subscriberBuffer)}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		s.once.Do(func() {
			h.mu.Lock()
			delete(h.subs, s)
			h.mu.Unlock()
			close(s.ch)
		})
	}
	return s.ch, cancel
}

// Publish hands evt to every subscriber with room for it and reports how many
// received it.
func (h *Hub) Publish(evt string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for s := range h.subs {
		select {
		case s.ch <- evt:
			sent++
		default:
		}
	}
	return sent
}

// Subscribers is the number of open streams.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
