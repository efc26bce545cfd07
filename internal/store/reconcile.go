package store

import (
	"context"
	"encoding/json"

	"github.com/lexilens/lexilens-go/internal/event"
	"github.com/lexilens/lexilens-go/internal/model"
)

// handleBroadcast applies an envelope from another window to local state.
// Entity events carry the full document and are applied directly;
// collection-level synced events trigger a refetch. Reconciled events are
// re-emitted locally so this window's listeners see them, but never
// forwarded, which would echo between windows.
func (s *Store) handleBroadcast(payload []byte) {
	var env event.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		s.log.Warn().Err(err).Msg("store: dropping malformed broadcast envelope")
		return
	}
	if env.Origin == s.bus.Origin() {
		return
	}
	if !env.Type.Valid() {
		s.log.Warn().Str("type", string(env.Type)).Msg("store: dropping broadcast with unknown kind")
		return
	}

	switch env.Type {
	case event.KindNoteAdded, event.KindNoteUpdated:
		var n model.Note
		if err := json.Unmarshal(env.Data, &n); err != nil || n.ID == "" {
			return
		}
		s.applyNote(&n)
		s.bus.EmitLocal(env.Type, n)

	case event.KindNoteDeleted:
		var ref model.DeletedRef
		if err := json.Unmarshal(env.Data, &ref); err != nil || ref.ID == "" {
			return
		}
		s.removeNoteLocal(ref.ID)
		s.bus.EmitLocal(env.Type, ref)

	case event.KindChatAdded, event.KindChatUpdated:
		var c model.Chat
		if err := json.Unmarshal(env.Data, &c); err != nil || c.ID == "" {
			return
		}
		s.mu.Lock()
		s.chats[c.ID] = &c
		s.persistLocked(ColChats)
		s.mu.Unlock()
		s.bus.EmitLocal(env.Type, c)

	case event.KindChatDeleted:
		var ref model.DeletedRef
		if err := json.Unmarshal(env.Data, &ref); err != nil || ref.ID == "" {
			return
		}
		s.mu.Lock()
		delete(s.chats, ref.ID)
		s.persistLocked(ColChats)
		s.mu.Unlock()
		s.bus.EmitLocal(env.Type, ref)

	case event.KindWordAdded, event.KindWordUpdated:
		var w model.SavedWord
		if err := json.Unmarshal(env.Data, &w); err != nil || w.ID == "" {
			return
		}
		s.mu.Lock()
		s.words[w.ID] = &w
		s.persistLocked(ColWords)
		s.mu.Unlock()
		s.bus.EmitLocal(env.Type, w)

	case event.KindWordDeleted:
		var ref model.DeletedRef
		if err := json.Unmarshal(env.Data, &ref); err != nil || ref.ID == "" {
			return
		}
		s.mu.Lock()
		delete(s.words, ref.ID)
		for _, wl := range s.wordlists {
			removeID(&wl.WordIDs, ref.ID)
		}
		s.persistLocked(ColWords)
		s.persistLocked(ColWordlists)
		s.mu.Unlock()
		s.bus.EmitLocal(env.Type, ref)

	case event.KindWordlistAdded, event.KindWordlistUpdated:
		var wl model.Wordlist
		if err := json.Unmarshal(env.Data, &wl); err != nil || wl.ID == "" {
			return
		}
		s.mu.Lock()
		s.wordlists[wl.ID] = &wl
		s.persistLocked(ColWordlists)
		s.mu.Unlock()
		s.bus.EmitLocal(env.Type, wl)

	case event.KindWordlistDeleted:
		var ref model.DeletedRef
		if err := json.Unmarshal(env.Data, &ref); err != nil || ref.ID == "" {
			return
		}
		s.mu.Lock()
		delete(s.wordlists, ref.ID)
		s.persistLocked(ColWordlists)
		s.mu.Unlock()
		s.bus.EmitLocal(env.Type, ref)

	// Refetches prompted by another window's sync announce their own
	// synced event locally only; re-broadcasting it would prompt that
	// window to refetch in turn, without end.
	case event.KindNotesSynced:
		go s.fetchNotes(context.Background(), s.bus.EmitLocal)
	case event.KindChatsSynced:
		go s.fetchChats(context.Background(), s.bus.EmitLocal)
	case event.KindWordsSynced:
		go s.fetchWords(context.Background(), s.bus.EmitLocal)
	case event.KindWordlistsSynced:
		go s.fetchWordlists(context.Background(), s.bus.EmitLocal)
	case event.KindUserDataSynced:
		go s.fetchUserData(context.Background(), s.bus.EmitLocal)

	case event.KindSyncStarted, event.KindSyncCompleted, event.KindSyncFailed:
		// Another window's sync lifecycle; nothing to apply here.
	}
}

// applyNote inserts or replaces a note received from another window and
// regroups its video.
func (s *Store) applyNote(n *model.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Last write wins: an older note never overwrites a newer local copy.
	if cur := s.notes[n.ID]; cur != nil && cur.UpdatedAt.After(n.UpdatedAt) {
		return
	}
	s.notes[n.ID] = n
	s.rebuildVideoGroupLocked(n.VideoID, n.VideoTitle)
	s.persistLocked(ColNotes)
}

// removeNoteLocal drops a note and cascades into its video grouping
// without touching the remote store; the originating window already did.
func (s *Store) removeNoteLocal(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.notes[id]
	if n == nil {
		return
	}
	videoID := n.VideoID
	delete(s.notes, id)
	s.rebuildVideoGroupLocked(videoID, nil)
	s.persistLocked(ColNotes)
}
