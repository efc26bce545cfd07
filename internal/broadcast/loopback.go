package broadcast

import "sync"

// Hub is an in-process fan-out used when multiple store instances live in
// one process (tests, single-node mode). Delivery is synchronous, which
// keeps behavior deterministic; real cross-window delivery is asynchronous
// and the stores self-heal via periodic resync either way.
type Hub struct {
	mu      sync.Mutex
	members []*Loopback
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{}
}

// Attach returns a new transport connected to the hub.
func (h *Hub) Attach() *Loopback {
	h.mu.Lock()
	defer h.mu.Unlock()

	lb := &Loopback{hub: h}
	h.members = append(h.members, lb)
	return lb
}

func (h *Hub) publish(from *Loopback, payload []byte) {
	h.mu.Lock()
	var targets []func(payload []byte)
	for _, m := range h.members {
		if m != from && m.handler != nil {
			targets = append(targets, m.handler)
		}
	}
	h.mu.Unlock()

	for _, fn := range targets {
		fn(payload)
	}
}

// Loopback is one hub membership. The publisher never receives its own
// messages.
type Loopback struct {
	hub     *Hub
	handler func(payload []byte)
}

func (l *Loopback) Publish(payload []byte) error {
	l.hub.publish(l, payload)
	return nil
}

func (l *Loopback) Subscribe(handler func(payload []byte)) {
	l.hub.mu.Lock()
	defer l.hub.mu.Unlock()
	l.handler = handler
}

func (l *Loopback) Close() error {
	l.hub.mu.Lock()
	defer l.hub.mu.Unlock()

	for i, m := range l.hub.members {
		if m == l {
			l.hub.members = append(l.hub.members[:i], l.hub.members[i+1:]...)
			break
		}
	}
	l.handler = nil
	return nil
}
