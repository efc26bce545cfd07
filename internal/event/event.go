// Package event is the in-process event bus tying the sync store to its UI
// collaborators and to the cross-window broadcast channel.
package event

import (
	"encoding/json"
	"time"
)

// Kind names one event in the closed set the system emits. Adding a kind
// means updating Kinds, the reconciliation switch in the store, and nothing
// else.
type Kind string

const (
	KindConnectionChanged Kind = "connection:changed"
	KindUserLogin         Kind = "user:login"
	KindUserLogout        Kind = "user:logout"

	KindNoteAdded   Kind = "note:added"
	KindNoteUpdated Kind = "note:updated"
	KindNoteDeleted Kind = "note:deleted"
	KindNotesSynced Kind = "notes:synced"

	KindChatAdded   Kind = "chat:added"
	KindChatUpdated Kind = "chat:updated"
	KindChatDeleted Kind = "chat:deleted"
	KindChatsSynced Kind = "chats:synced"

	KindWordAdded   Kind = "word:added"
	KindWordUpdated Kind = "word:updated"
	KindWordDeleted Kind = "word:deleted"
	KindWordsSynced Kind = "words:synced"

	KindWordlistAdded   Kind = "wordlist:added"
	KindWordlistUpdated Kind = "wordlist:updated"
	KindWordlistDeleted Kind = "wordlist:deleted"
	KindWordlistsSynced Kind = "wordlists:synced"

	KindUserDataSynced Kind = "userData:synced"

	KindSyncStarted   Kind = "sync:started"
	KindSyncCompleted Kind = "sync:completed"
	KindSyncFailed    Kind = "sync:failed"
)

// Kinds lists every valid kind, in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindConnectionChanged, KindUserLogin, KindUserLogout,
		KindNoteAdded, KindNoteUpdated, KindNoteDeleted, KindNotesSynced,
		KindChatAdded, KindChatUpdated, KindChatDeleted, KindChatsSynced,
		KindWordAdded, KindWordUpdated, KindWordDeleted, KindWordsSynced,
		KindWordlistAdded, KindWordlistUpdated, KindWordlistDeleted, KindWordlistsSynced,
		KindUserDataSynced,
		KindSyncStarted, KindSyncCompleted, KindSyncFailed,
	}
}

// Valid reports whether k belongs to the closed set.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Broadcastable reports whether k is forwarded to other windows.
// Connection and auth state are window-local: each window tracks its own
// connectivity and session.
func (k Kind) Broadcastable() bool {
	switch k {
	case KindConnectionChanged, KindUserLogin, KindUserLogout:
		return false
	}
	return true
}

// Event is what local listeners receive.
type Event struct {
	Type      Kind   `json:"type"`
	Data      any    `json:"data"`
	Timestamp string `json:"timestamp"` // RFC3339
}

// Envelope is the wire form shared by the broadcast channel and the
// websocket feed. Origin identifies the emitting store instance so
// receivers can drop their own messages.
type Envelope struct {
	Origin    string          `json:"origin"`
	Type      Kind            `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// Now returns the timestamp format used on every event.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
