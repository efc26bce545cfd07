package broadcast

import "testing"

func TestLoopback_FanOutSkipsPublisher(t *testing.T) {
	hub := NewHub()
	a := hub.Attach()
	b := hub.Attach()
	c := hub.Attach()

	var gotA, gotB, gotC [][]byte
	a.Subscribe(func(p []byte) { gotA = append(gotA, p) })
	b.Subscribe(func(p []byte) { gotB = append(gotB, p) })
	c.Subscribe(func(p []byte) { gotC = append(gotC, p) })

	if err := a.Publish([]byte("hello")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(gotA) != 0 {
		t.Errorf("publisher received its own message: %d", len(gotA))
	}
	if len(gotB) != 1 || string(gotB[0]) != "hello" {
		t.Errorf("member b got %v, want [hello]", gotB)
	}
	if len(gotC) != 1 {
		t.Errorf("member c got %d messages, want 1", len(gotC))
	}
}

func TestLoopback_ClosedMemberStopsReceiving(t *testing.T) {
	hub := NewHub()
	a := hub.Attach()
	b := hub.Attach()

	var gotB int
	b.Subscribe(func([]byte) { gotB++ })

	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := a.Publish([]byte("x")); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if gotB != 0 {
		t.Errorf("closed member received %d messages, want 0", gotB)
	}
}

func TestLoopback_NoSubscriberIsFine(t *testing.T) {
	hub := NewHub()
	a := hub.Attach()
	hub.Attach() // never subscribes

	if err := a.Publish([]byte("x")); err != nil {
		t.Fatalf("publish with silent member: %v", err)
	}
}

func TestDisabled_NoOps(t *testing.T) {
	var d Disabled
	if err := d.Publish([]byte("x")); err != nil {
		t.Errorf("disabled publish returned %v", err)
	}
	d.Subscribe(func([]byte) { t.Error("disabled transport invoked handler") })
	if err := d.Close(); err != nil {
		t.Errorf("disabled close returned %v", err)
	}
}
