// Package broadcast carries mutation events between windows of the same
// user: separate daemon instances reconcile through a shared channel
// instead of re-querying the remote store.
package broadcast

// Transport is a best-effort pub/sub channel. Publish never blocks on
// delivery guarantees; Subscribe registers the single handler invoked for
// every message posted by other publishers on the same channel.
type Transport interface {
	Publish(payload []byte) error
	Subscribe(handler func(payload []byte))
	Close() error
}

// Disabled is the no-op transport used when broadcasting is turned off or
// the underlying channel is unavailable. The system degrades to "no
// cross-window consistency", not to a crash.
type Disabled struct{}

func (Disabled) Publish([]byte) error          { return nil }
func (Disabled) Subscribe(func(payload []byte)) {}
func (Disabled) Close() error                  { return nil }
