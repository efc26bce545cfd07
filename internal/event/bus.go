package event

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lexilens/lexilens-go/internal/broadcast"
)

// listener pairs a subscription id with its callback. Listeners are kept in
// a slice so dispatch order matches registration order.
type listener struct {
	id int
	fn func(Event)
}

// Bus is the subscribe/emit registry. Emission is synchronous: every
// listener for the kind runs before Emit returns, in registration order,
// and a panicking listener never prevents the others from running.
type Bus struct {
	mu        sync.Mutex
	listeners map[Kind][]listener
	taps      []func(Event)
	nextID    int

	origin    string
	transport broadcast.Transport
	log       zerolog.Logger
}

// NewBus creates a bus forwarding broadcastable events to the transport
// under the given origin id. A nil transport disables forwarding.
func NewBus(origin string, transport broadcast.Transport, log zerolog.Logger) *Bus {
	return &Bus{
		listeners: make(map[Kind][]listener),
		origin:    origin,
		transport: transport,
		log:       log,
	}
}

// Origin returns the instance id stamped on outgoing envelopes.
func (b *Bus) Origin() string {
	return b.origin
}

// Subscribe registers a listener for one kind and returns its subscription
// id.
func (b *Bus) Subscribe(kind Kind, fn func(Event)) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.listeners[kind] = append(b.listeners[kind], listener{id: b.nextID, fn: fn})
	return b.nextID
}

// Unsubscribe removes one listener. Unknown ids are ignored.
func (b *Bus) Unsubscribe(kind Kind, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ls := b.listeners[kind]
	for i, l := range ls {
		if l.id == id {
			b.listeners[kind] = append(ls[:i], ls[i+1:]...)
			return
		}
	}
}

// Tap registers a listener invoked for every event regardless of kind,
// after the kind's own listeners. Used by the websocket feed and metrics.
func (b *Bus) Tap(fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.taps = append(b.taps, fn)
}

// Emit dispatches the event locally and forwards it to other windows.
func (b *Bus) Emit(kind Kind, data any) {
	b.emit(kind, data, true)
}

// EmitLocal dispatches without forwarding. Used when applying an event
// that arrived from another window, which must not echo back out.
func (b *Bus) EmitLocal(kind Kind, data any) {
	b.emit(kind, data, false)
}

func (b *Bus) emit(kind Kind, data any, forward bool) {
	ev := Event{Type: kind, Data: data, Timestamp: Now()}

	b.mu.Lock()
	ls := make([]listener, len(b.listeners[kind]))
	copy(ls, b.listeners[kind])
	taps := make([]func(Event), len(b.taps))
	copy(taps, b.taps)
	b.mu.Unlock()

	for _, l := range ls {
		b.dispatch(l.fn, ev)
	}
	for _, fn := range taps {
		b.dispatch(fn, ev)
	}

	if forward && b.transport != nil && kind.Broadcastable() {
		b.forward(ev)
	}
}

// dispatch runs one listener, containing panics.
func (b *Bus) dispatch(fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Interface("panic", r).Str("kind", string(ev.Type)).
				Msg("event listener panicked")
		}
	}()
	fn(ev)
}

// forward publishes the envelope form of an event. Broadcast is
// best-effort: failures are logged, never surfaced to the emitter.
func (b *Bus) forward(ev Event) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		b.log.Error().Err(err).Str("kind", string(ev.Type)).Msg("event payload not serializable")
		return
	}

	env := Envelope{
		Origin:    b.origin,
		Type:      ev.Type,
		Data:      data,
		Timestamp: ev.Timestamp,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		b.log.Error().Err(err).Msg("envelope marshal failed")
		return
	}

	if err := b.transport.Publish(payload); err != nil {
		b.log.Warn().Err(err).Str("kind", string(ev.Type)).Msg("broadcast publish failed")
	}
}
