package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lexilens/lexilens-go/internal/event"
)

func dialTestHub(t *testing.T) (*Hub, *event.Bus, *websocket.Conn) {
	t.Helper()

	hub := NewHub(zerolog.Nop())
	t.Cleanup(hub.Close)

	bus := event.NewBus("test-origin", nil, zerolog.Nop())
	hub.Attach(bus)

	srv := httptest.NewServer(hub.Serve())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// wait for registration before emitting
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return hub, bus, conn
}

func readEvent(t *testing.T, conn *websocket.Conn) event.Event {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev event.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return ev
}

func TestHub_StreamsBusEvents(t *testing.T) {
	_, bus, conn := dialTestHub(t)

	bus.Emit(event.KindWordAdded, map[string]string{"id": "w1", "word": "hund"})

	ev := readEvent(t, conn)
	if ev.Type != event.KindWordAdded {
		t.Fatalf("type = %q, want %q", ev.Type, event.KindWordAdded)
	}
	if ev.Timestamp == "" {
		t.Fatal("event missing timestamp")
	}
}

func TestHub_SubscriptionFilters(t *testing.T) {
	_, bus, conn := dialTestHub(t)

	cmd := clientCommand{Action: "subscribe", Kinds: []string{string(event.KindSyncCompleted)}}
	payload, _ := json.Marshal(cmd)
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	// the filter applies once the read pump has processed the command
	time.Sleep(50 * time.Millisecond)

	bus.Emit(event.KindNoteAdded, nil)
	bus.Emit(event.KindSyncCompleted, nil)

	ev := readEvent(t, conn)
	if ev.Type != event.KindSyncCompleted {
		t.Fatalf("filter leaked event %q", ev.Type)
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	hub, _, conn := dialTestHub(t)

	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return // connection torn down as expected
		}
	}
}
