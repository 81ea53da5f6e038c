package worker

import (
	"sync"

	"audioforge/model"
)

// Hub fans job updates out to websocket subscribers. Publish never
// blocks: a subscriber that cannot keep up drops updates, which is
// fine because the polling API remains the source of truth.
type Hub struct {
	mu   sync.Mutex
	subs map[chan *model.ProcessingJob]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan *model.ProcessingJob]struct{})}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. The channel is closed on unsubscribe.
func (h *Hub) Subscribe() (<-chan *model.ProcessingJob, func()) {
	ch := make(chan *model.ProcessingJob, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the job snapshot to every subscriber.
func (h *Hub) Publish(job *model.ProcessingJob) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- job:
		default:
		}
	}
}
