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

// GetAllSavedWords returns every saved word, most recently updated first.
func (s *Store) GetAllSavedWords() []model.SavedWord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.SavedWord, 0, len(s.words))
	for _, w := range s.words {
		wc := *w
		wc.Examples = append([]string(nil), w.Examples...)
		out = append(out, wc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SaveWord writes a saved word through to the remote store. Returns nil on
// failure.
func (s *Store) SaveWord(ctx context.Context, w *model.SavedWord) *model.SavedWord {
	if w == nil || w.Word == "" {
		s.log.Warn().Msg("store: save word rejected, empty word")
		return nil
	}
	uid, ok := s.readyForWrite()
	if !ok {
		return nil
	}

	saved := *w
	saved.Examples = append([]string(nil), w.Examples...)
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	saved.UserID = uid
	now := time.Now().UTC()
	if saved.CreatedAt.IsZero() {
		s.mu.RLock()
		prev := s.words[saved.ID]
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
		s.failWrite(ColWords, "save word", err)
		return nil
	}
	if err := s.remote.Put(ctx, docstore.DocPath(uid, "savedWords", saved.ID), data); err != nil {
		s.failWrite(ColWords, "save word", err)
		return nil
	}

	s.mu.Lock()
	_, existed := s.words[saved.ID]
	stored := saved
	s.words[saved.ID] = &stored
	if !existed {
		s.bumpStatsLocked(func(st *model.UsageStats) { st.TotalSavedWords++ })
	}
	s.touchUserLocked(now)
	s.persistLocked(ColWords)
	s.mu.Unlock()

	s.clearWriteError(ColWords)

	kind := event.KindWordUpdated
	if !existed {
		kind = event.KindWordAdded
	}
	s.bus.Emit(kind, saved)

	out := saved
	return &out
}

// DeleteWord removes a saved word and drops it from every wordlist that
// references it. Returns false on remote failure.
func (s *Store) DeleteWord(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	uid, ok := s.readyForWrite()
	if !ok {
		return false
	}

	if err := s.remote.Delete(ctx, docstore.DocPath(uid, "savedWords", id)); err != nil {
		s.failWrite(ColWords, "delete word", err)
		return false
	}

	var touched []*model.Wordlist
	s.mu.Lock()
	if _, existed := s.words[id]; existed {
		delete(s.words, id)
		s.bumpStatsLocked(func(st *model.UsageStats) {
			if st.TotalSavedWords > 0 {
				st.TotalSavedWords--
			}
		})
		s.touchUserLocked(time.Now().UTC())
		s.persistLocked(ColWords)
	}
	for _, wl := range s.wordlists {
		if removeID(&wl.WordIDs, id) {
			wl.UpdatedAt = time.Now().UTC()
			touched = append(touched, wl)
		}
	}
	if len(touched) > 0 {
		s.persistLocked(ColWordlists)
	}
	s.mu.Unlock()

	// Mirror the wordlist membership change remotely; failures converge on
	// the next full fetch.
	for _, wl := range touched {
		data, err := json.Marshal(wl)
		if err != nil {
			continue
		}
		if err := s.remote.Put(ctx, docstore.DocPath(uid, "wordlists", wl.ID), data); err != nil {
			s.log.Warn().Err(err).Str("wordlist_id", wl.ID).Msg("store: wordlist membership update failed")
		}
	}

	s.clearWriteError(ColWords)
	s.bus.Emit(event.KindWordDeleted, model.DeletedRef{ID: id})
	return true
}

// GetWordlist returns one wordlist by id, or nil.
func (s *Store) GetWordlist(id string) *model.Wordlist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wl := s.wordlists[id]
	if wl == nil {
		return nil
	}
	wc := *wl
	wc.WordIDs = append([]string(nil), wl.WordIDs...)
	return &wc
}

// GetAllWordlists returns every wordlist, most recently updated first.
func (s *Store) GetAllWordlists() []model.Wordlist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Wordlist, 0, len(s.wordlists))
	for _, wl := range s.wordlists {
		wc := *wl
		wc.WordIDs = append([]string(nil), wl.WordIDs...)
		out = append(out, wc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SaveWordlist writes a wordlist through to the remote store and keeps the
// user's wordlist id index current. Returns nil on failure.
func (s *Store) SaveWordlist(ctx context.Context, wl *model.Wordlist) *model.Wordlist {
	if wl == nil || wl.Name == "" {
		s.log.Warn().Msg("store: save wordlist rejected, empty name")
		return nil
	}
	uid, ok := s.readyForWrite()
	if !ok {
		return nil
	}

	saved := *wl
	saved.WordIDs = append([]string(nil), wl.WordIDs...)
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	saved.UserID = uid
	now := time.Now().UTC()
	if saved.CreatedAt.IsZero() {
		s.mu.RLock()
		prev := s.wordlists[saved.ID]
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
		s.failWrite(ColWordlists, "save wordlist", err)
		return nil
	}
	if err := s.remote.Put(ctx, docstore.DocPath(uid, "wordlists", saved.ID), data); err != nil {
		s.failWrite(ColWordlists, "save wordlist", err)
		return nil
	}

	s.mu.Lock()
	_, existed := s.wordlists[saved.ID]
	stored := saved
	s.wordlists[saved.ID] = &stored
	s.updateWordlistIndexLocked(saved.ID, true)
	s.touchUserLocked(now)
	s.persistLocked(ColWordlists)
	s.mu.Unlock()

	s.putUserData(ctx)
	s.clearWriteError(ColWordlists)

	kind := event.KindWordlistUpdated
	if !existed {
		kind = event.KindWordlistAdded
	}
	s.bus.Emit(kind, saved)

	out := saved
	return &out
}

// DeleteWordlist removes a wordlist. The words themselves stay saved.
// Returns false on remote failure.
func (s *Store) DeleteWordlist(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	uid, ok := s.readyForWrite()
	if !ok {
		return false
	}

	if err := s.remote.Delete(ctx, docstore.DocPath(uid, "wordlists", id)); err != nil {
		s.failWrite(ColWordlists, "delete wordlist", err)
		return false
	}

	s.mu.Lock()
	if _, existed := s.wordlists[id]; existed {
		delete(s.wordlists, id)
		s.updateWordlistIndexLocked(id, false)
		s.touchUserLocked(time.Now().UTC())
		s.persistLocked(ColWordlists)
	}
	s.mu.Unlock()

	s.putUserData(ctx)
	s.clearWriteError(ColWordlists)
	s.bus.Emit(event.KindWordlistDeleted, model.DeletedRef{ID: id})
	return true
}

// updateWordlistIndexLocked maintains the user's wordlist id index.
// Caller holds mu.
func (s *Store) updateWordlistIndexLocked(id string, present bool) {
	if s.userData == nil {
		return
	}
	ids := s.userData.WordlistIDs
	idx := -1
	for i, existing := range ids {
		if existing == id {
			idx = i
			break
		}
	}
	switch {
	case present && idx < 0:
		s.userData.WordlistIDs = append(ids, id)
	case !present && idx >= 0:
		s.userData.WordlistIDs = append(ids[:idx], ids[idx+1:]...)
	}
}

func removeID(ids *[]string, id string) bool {
	for i, existing := range *ids {
		if existing == id {
			*ids = append((*ids)[:i], (*ids)[i+1:]...)
			return true
		}
	}
	return false
}
