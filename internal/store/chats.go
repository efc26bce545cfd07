package store

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lexilens/lexilens-go/internal/docstore"
	"github.com/lexilens/lexilens-go/internal/event"
	"github.com/lexilens/lexilens-go/internal/model"
)

// GetChat returns one conversation by id, or nil.
func (s *Store) GetChat(id string) *model.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.chats[id]
	if c == nil {
		return nil
	}
	cc := *c
	cc.Messages = append([]model.ChatMessage(nil), c.Messages...)
	return &cc
}

// GetAllChats returns every conversation, most recently updated first.
func (s *Store) GetAllChats() []model.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Chat, 0, len(s.chats))
	for _, c := range s.chats {
		cc := *c
		cc.Messages = append([]model.ChatMessage(nil), c.Messages...)
		out = append(out, cc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SaveChat writes a conversation through to the remote store. The user's
// saved-chat list tracks the Saved flag. Returns nil on failure.
func (s *Store) SaveChat(ctx context.Context, c *model.Chat) *model.Chat {
	if c == nil {
		return nil
	}
	uid, ok := s.readyForWrite()
	if !ok {
		return nil
	}

	saved := *c
	saved.Messages = append([]model.ChatMessage(nil), c.Messages...)
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	saved.UserID = uid
	now := time.Now().UTC()
	if saved.CreatedAt.IsZero() {
		s.mu.RLock()
		prev := s.chats[saved.ID]
		s.mu.RUnlock()
		if prev != nil {
			saved.CreatedAt = prev.CreatedAt
		} else {
			saved.CreatedAt = now
		}
	}
	saved.UpdatedAt = now

	data, err := json.Marshal(&saved)
	if err != nil {
		s.failWrite(ColChats, "save chat", err)
		return nil
	}
	if err := s.remote.Put(ctx, docstore.DocPath(uid, "chats", saved.ID), data); err != nil {
		s.failWrite(ColChats, "save chat", err)
		return nil
	}

	s.mu.Lock()
	_, existed := s.chats[saved.ID]
	stored := saved
	s.chats[saved.ID] = &stored
	if !existed {
		s.bumpStatsLocked(func(st *model.UsageStats) { st.TotalChats++ })
	}
	s.updateSavedChatLocked(saved.ID, saved.Saved)
	s.touchUserLocked(now)
	s.persistLocked(ColChats)
	s.mu.Unlock()

	s.putUserData(ctx)
	s.clearWriteError(ColChats)

	kind := event.KindChatUpdated
	if !existed {
		kind = event.KindChatAdded
	}
	s.bus.Emit(kind, saved)

	out := saved
	return &out
}

// DeleteChat removes a conversation. Returns false on remote failure.
func (s *Store) DeleteChat(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	uid, ok := s.readyForWrite()
	if !ok {
		return false
	}

	if err := s.remote.Delete(ctx, docstore.DocPath(uid, "chats", id)); err != nil {
		s.failWrite(ColChats, "delete chat", err)
		return false
	}

	s.mu.Lock()
	if _, existed := s.chats[id]; existed {
		delete(s.chats, id)
		s.bumpStatsLocked(func(st *model.UsageStats) {
			if st.TotalChats > 0 {
				st.TotalChats--
			}
		})
		s.updateSavedChatLocked(id, false)
		s.touchUserLocked(time.Now().UTC())
		s.persistLocked(ColChats)
	}
	s.mu.Unlock()

	s.putUserData(ctx)
	s.clearWriteError(ColChats)
	s.bus.Emit(event.KindChatDeleted, model.DeletedRef{ID: id})
	return true
}

// updateSavedChatLocked maintains the user's saved-chat id list. Caller
// holds mu.
func (s *Store) updateSavedChatLocked(chatID string, saved bool) {
	if s.userData == nil {
		return
	}
	ids := s.userData.SavedChatIDs
	idx := -1
	for i, id := range ids {
		if id == chatID {
			idx = i
			break
		}
	}
	switch {
	case saved && idx < 0:
		s.userData.SavedChatIDs = append(ids, chatID)
	case !saved && idx >= 0:
		s.userData.SavedChatIDs = append(ids[:idx], ids[idx+1:]...)
	}
}
