package Engine

import (
	"fmt"
	"sync"
	"time"
)

// Topic names a change feed for one table within one tenant.
func Topic(table string, tenantID uint) string {
	return fmt.Sprintf("%s:%d", table, tenantID)
}

// Hub is an edge-triggered change feed. Signals carry no payload;
// subscribers re-fetch authoritative state on every signal, so out-of-order
// or coalesced delivery is harmless.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[int]chan struct{}
	next int
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]chan struct{})}
}

// Subscribe returns a signal channel and its cancel func. The channel has a
// one-slot buffer so a pending signal is coalesced and Notify never blocks.
func (h *Hub) Subscribe(topic string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan struct{}, 1)
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]chan struct{})
	}
	id := h.next
	h.next++
	h.subs[topic][id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[topic], id)
	}
	return ch, cancel
}

// Notify signals every subscriber on the topic without blocking.
func (h *Hub) Notify(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Debounce coalesces rapid repeated signals into one emission after a quiet
// period of d. Coalescing is a performance concern only; consumers re-fetch
// wholesale either way.
func Debounce(in <-chan struct{}, d time.Duration) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case _, ok := <-in:
				if !ok {
					return
				}
				if timer == nil {
					timer = time.NewTimer(d)
					fire = timer.C
				} else {
					if !timer.Stop() {
						<-fire
					}
					timer.Reset(d)
				}
			case <-fire:
				timer = nil
				fire = nil
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out
}
