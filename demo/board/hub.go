package board

import "sync"

// Event is pushed to every open stream after a successful change to the board.
type Event struct {
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
}

const (
	ActionAppend   = "rpush"
	ActionPrepend  = "lpush"
	ActionPopLast  = "rpop"
	ActionPopFirst = "lpop"
)

// Hub fans events out to subscribers. A subscriber that falls behind loses events
// instead of blocking the broadcaster.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new listener. The returned func unregisters it and closes the
// channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
