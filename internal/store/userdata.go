package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lexilens/lexilens-go/internal/docstore"
	"github.com/lexilens/lexilens-go/internal/event"
	"github.com/lexilens/lexilens-go/internal/model"
)

// GetUserData returns the current user's profile document, or nil.
func (s *Store) GetUserData() *model.UserData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.userData == nil {
		return nil
	}
	ud := *s.userData
	ud.SavedChatIDs = append([]string(nil), s.userData.SavedChatIDs...)
	ud.WordlistIDs = append([]string(nil), s.userData.WordlistIDs...)
	return &ud
}

// UpdateSettings writes the user's settings through to the remote store.
// Returns the updated profile, or nil on failure.
func (s *Store) UpdateSettings(ctx context.Context, settings model.Settings) *model.UserData {
	uid, ok := s.readyForWrite()
	if !ok {
		return nil
	}

	now := time.Now().UTC()
	s.mu.RLock()
	var ud model.UserData
	if s.userData != nil {
		ud = *s.userData
		ud.SavedChatIDs = append([]string(nil), s.userData.SavedChatIDs...)
		ud.WordlistIDs = append([]string(nil), s.userData.WordlistIDs...)
	} else {
		ud = newUserData(uid, now)
	}
	s.mu.RUnlock()

	ud.Settings = settings
	ud.Stats.LastActiveAt = now
	ud.UpdatedAt = now

	data, err := json.Marshal(&ud)
	if err != nil {
		s.failWrite(ColUserData, "update settings", err)
		return nil
	}
	if err := s.remote.Put(ctx, docstore.UserDoc(uid), data); err != nil {
		s.failWrite(ColUserData, "update settings", err)
		return nil
	}

	s.mu.Lock()
	stored := ud
	s.userData = &stored
	s.mu.Unlock()

	s.clearWriteError(ColUserData)
	s.bus.Emit(event.KindUserDataSynced, model.SyncedCount{Collection: string(ColUserData), Count: 1})

	out := ud
	return &out
}

// RecomputeStats corrects the derived counters and membership indexes from
// the in-memory collections, then mirrors the profile remotely.
func (s *Store) RecomputeStats(ctx context.Context) {
	s.mu.Lock()
	if s.userData == nil {
		s.mu.Unlock()
		return
	}
	s.userData.Stats.TotalNotes = len(s.notes)
	s.userData.Stats.TotalChats = len(s.chats)
	s.userData.Stats.TotalSavedWords = len(s.words)

	saved := make([]string, 0)
	for id, c := range s.chats {
		if c.Saved {
			saved = append(saved, id)
		}
	}
	s.userData.SavedChatIDs = saved

	lists := make([]string, 0, len(s.wordlists))
	for id := range s.wordlists {
		lists = append(lists, id)
	}
	s.userData.WordlistIDs = lists
	s.mu.Unlock()

	s.putUserData(ctx)
}

// newUserData builds a fresh profile for a first-time user.
func newUserData(uid string, now time.Time) model.UserData {
	return model.UserData{
		UserID: uid,
		Stats: model.UsageStats{
			JoinedAt:     now,
			LastActiveAt: now,
		},
		SavedChatIDs: []string{},
		WordlistIDs:  []string{},
		Settings:     model.DefaultSettings(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// bumpStatsLocked mutates the usage counters, creating the profile on
// first use. Caller holds mu.
func (s *Store) bumpStatsLocked(mutate func(*model.UsageStats)) {
	if s.userData == nil {
		ud := newUserData(s.userID, time.Now().UTC())
		s.userData = &ud
	}
	mutate(&s.userData.Stats)
}

// touchUserLocked stamps last-activity. Caller holds mu.
func (s *Store) touchUserLocked(now time.Time) {
	if s.userData == nil {
		return
	}
	s.userData.Stats.LastActiveAt = now
	s.userData.UpdatedAt = now
}

// putUserData mirrors the profile document remotely. Best-effort; the
// periodic resync corrects any drift.
func (s *Store) putUserData(ctx context.Context) {
	s.mu.RLock()
	if s.userData == nil || s.userID == "" || s.remote == nil {
		s.mu.RUnlock()
		return
	}
	uid := s.userID
	ud := *s.userData
	s.mu.RUnlock()

	data, err := json.Marshal(&ud)
	if err != nil {
		s.log.Warn().Err(err).Msg("store: user profile encode failed")
		return
	}
	if err := s.remote.Put(ctx, docstore.UserDoc(uid), data); err != nil {
		s.log.Warn().Err(err).Msg("store: user profile update failed")
	}
}
