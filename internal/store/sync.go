package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/lexilens/lexilens-go/internal/docstore"
	"github.com/lexilens/lexilens-go/internal/event"
	"github.com/lexilens/lexilens-go/internal/model"
)

// beginFetch bumps the collection's fetch generation and marks it syncing.
// The returned generation guards against a slow fetch replacing the result
// of a newer one.
func (s *Store) beginFetch(col Collection) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen[col]++
	s.info[col].IsSyncing = true
	return s.gen[col]
}

// endFetchError records a fetch failure. The previous in-memory state is
// kept: stale data beats no data.
func (s *Store) endFetchError(col Collection, err error) {
	s.mu.Lock()
	inf := s.info[col]
	inf.IsSyncing = false
	inf.Error = err.Error()
	s.persistSyncStateLocked()
	s.mu.Unlock()
	s.log.Error().Err(err).Str("collection", string(col)).Msg("store: fetch failed, keeping stale state")
}

// FetchNotes replaces the notes and video groupings with the remote state.
func (s *Store) FetchNotes(ctx context.Context) bool {
	return s.fetchNotes(ctx, s.bus.Emit)
}

// fetchNotes takes the synced-event emitter as a parameter: a fetch started
// locally announces itself to other windows, while a fetch triggered by
// another window's announcement must stay local or the windows refetch each
// other forever.
func (s *Store) fetchNotes(ctx context.Context, emit func(event.Kind, any)) bool {
	uid := s.CurrentUser()
	if uid == "" || s.remote == nil {
		return false
	}
	gen := s.beginFetch(ColNotes)

	docs, err := s.remote.List(ctx, docstore.CollectionPath(uid, "notes"))
	if err != nil {
		s.endFetchError(ColNotes, err)
		return false
	}
	notes := make(map[string]*model.Note, len(docs))
	for _, d := range docs {
		var n model.Note
		if err := json.Unmarshal(d.Data, &n); err != nil {
			s.log.Warn().Err(err).Str("doc_id", d.ID).Msg("store: skipping malformed note document")
			continue
		}
		notes[n.ID] = &n
	}

	// Grouping metadata carries titles and URLs the notes alone may lack.
	meta := make(map[string]model.VideoGroup)
	if groupDocs, gerr := s.remote.List(ctx, docstore.CollectionPath(uid, "videos")); gerr == nil {
		for _, d := range groupDocs {
			var g model.VideoGroup
			if err := json.Unmarshal(d.Data, &g); err == nil {
				meta[g.VideoID] = g
			}
		}
	}

	s.mu.Lock()
	if s.gen[ColNotes] != gen {
		s.mu.Unlock()
		s.log.Debug().Msg("store: dropping stale notes fetch")
		return false
	}
	s.notes = notes
	s.rebuildAllVideosLocked(meta)
	count := len(notes)
	s.finishFetchLocked(ColNotes)
	s.persistLocked(ColNotes)
	s.persistSyncStateLocked()
	s.mu.Unlock()

	emit(event.KindNotesSynced, model.SyncedCount{Collection: string(ColNotes), Count: count})
	return true
}

// FetchChats replaces the conversations with the remote state.
func (s *Store) FetchChats(ctx context.Context) bool {
	return s.fetchChats(ctx, s.bus.Emit)
}

func (s *Store) fetchChats(ctx context.Context, emit func(event.Kind, any)) bool {
	uid := s.CurrentUser()
	if uid == "" || s.remote == nil {
		return false
	}
	gen := s.beginFetch(ColChats)

	docs, err := s.remote.List(ctx, docstore.CollectionPath(uid, "chats"))
	if err != nil {
		s.endFetchError(ColChats, err)
		return false
	}
	chats := make(map[string]*model.Chat, len(docs))
	for _, d := range docs {
		var c model.Chat
		if err := json.Unmarshal(d.Data, &c); err != nil {
			s.log.Warn().Err(err).Str("doc_id", d.ID).Msg("store: skipping malformed chat document")
			continue
		}
		chats[c.ID] = &c
	}

	s.mu.Lock()
	if s.gen[ColChats] != gen {
		s.mu.Unlock()
		s.log.Debug().Msg("store: dropping stale chats fetch")
		return false
	}
	s.chats = chats
	count := len(chats)
	s.finishFetchLocked(ColChats)
	s.persistLocked(ColChats)
	s.persistSyncStateLocked()
	s.mu.Unlock()

	emit(event.KindChatsSynced, model.SyncedCount{Collection: string(ColChats), Count: count})
	return true
}

// FetchWords replaces the saved words with the remote state.
func (s *Store) FetchWords(ctx context.Context) bool {
	return s.fetchWords(ctx, s.bus.Emit)
}

func (s *Store) fetchWords(ctx context.Context, emit func(event.Kind, any)) bool {
	uid := s.CurrentUser()
	if uid == "" || s.remote == nil {
		return false
	}
	gen := s.beginFetch(ColWords)

	docs, err := s.remote.List(ctx, docstore.CollectionPath(uid, "savedWords"))
	if err != nil {
		s.endFetchError(ColWords, err)
		return false
	}
	words := make(map[string]*model.SavedWord, len(docs))
	for _, d := range docs {
		var w model.SavedWord
		if err := json.Unmarshal(d.Data, &w); err != nil {
			s.log.Warn().Err(err).Str("doc_id", d.ID).Msg("store: skipping malformed word document")
			continue
		}
		words[w.ID] = &w
	}

	s.mu.Lock()
	if s.gen[ColWords] != gen {
		s.mu.Unlock()
		s.log.Debug().Msg("store: dropping stale words fetch")
		return false
	}
	s.words = words
	count := len(words)
	s.finishFetchLocked(ColWords)
	s.persistLocked(ColWords)
	s.persistSyncStateLocked()
	s.mu.Unlock()

	emit(event.KindWordsSynced, model.SyncedCount{Collection: string(ColWords), Count: count})
	return true
}

// FetchWordlists replaces the wordlists with the remote state.
func (s *Store) FetchWordlists(ctx context.Context) bool {
	return s.fetchWordlists(ctx, s.bus.Emit)
}

func (s *Store) fetchWordlists(ctx context.Context, emit func(event.Kind, any)) bool {
	uid := s.CurrentUser()
	if uid == "" || s.remote == nil {
		return false
	}
	gen := s.beginFetch(ColWordlists)

	docs, err := s.remote.List(ctx, docstore.CollectionPath(uid, "wordlists"))
	if err != nil {
		s.endFetchError(ColWordlists, err)
		return false
	}
	lists := make(map[string]*model.Wordlist, len(docs))
	for _, d := range docs {
		var wl model.Wordlist
		if err := json.Unmarshal(d.Data, &wl); err != nil {
			s.log.Warn().Err(err).Str("doc_id", d.ID).Msg("store: skipping malformed wordlist document")
			continue
		}
		lists[wl.ID] = &wl
	}

	s.mu.Lock()
	if s.gen[ColWordlists] != gen {
		s.mu.Unlock()
		s.log.Debug().Msg("store: dropping stale wordlists fetch")
		return false
	}
	s.wordlists = lists
	count := len(lists)
	s.finishFetchLocked(ColWordlists)
	s.persistLocked(ColWordlists)
	s.persistSyncStateLocked()
	s.mu.Unlock()

	emit(event.KindWordlistsSynced, model.SyncedCount{Collection: string(ColWordlists), Count: count})
	return true
}

// FetchUserData loads the user's profile document, creating a fresh one
// remotely for a first-time user.
func (s *Store) FetchUserData(ctx context.Context) bool {
	return s.fetchUserData(ctx, s.bus.Emit)
}

func (s *Store) fetchUserData(ctx context.Context, emit func(event.Kind, any)) bool {
	uid := s.CurrentUser()
	if uid == "" || s.remote == nil {
		return false
	}
	gen := s.beginFetch(ColUserData)

	var ud model.UserData
	data, err := s.remote.Get(ctx, docstore.UserDoc(uid))
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		ud = newUserData(uid, time.Now().UTC())
		fresh, merr := json.Marshal(&ud)
		if merr != nil {
			s.endFetchError(ColUserData, merr)
			return false
		}
		if perr := s.remote.Put(ctx, docstore.UserDoc(uid), fresh); perr != nil {
			s.endFetchError(ColUserData, perr)
			return false
		}
	case err != nil:
		s.endFetchError(ColUserData, err)
		return false
	default:
		if uerr := json.Unmarshal(data, &ud); uerr != nil {
			s.endFetchError(ColUserData, uerr)
			return false
		}
	}

	s.mu.Lock()
	if s.gen[ColUserData] != gen {
		s.mu.Unlock()
		s.log.Debug().Msg("store: dropping stale user profile fetch")
		return false
	}
	s.userData = &ud
	s.finishFetchLocked(ColUserData)
	s.persistSyncStateLocked()
	s.mu.Unlock()

	emit(event.KindUserDataSynced, model.SyncedCount{Collection: string(ColUserData), Count: 1})
	return true
}

// finishFetchLocked clears syncing state and stamps the sync time. Caller
// holds mu.
func (s *Store) finishFetchLocked(col Collection) {
	now := time.Now().UTC()
	inf := s.info[col]
	inf.IsSyncing = false
	inf.Error = ""
	inf.LastSynced = &now
}

// rebuildAllVideosLocked regroups every note by video, merging in grouping
// metadata when present. Caller holds mu.
func (s *Store) rebuildAllVideosLocked(meta map[string]model.VideoGroup) {
	s.videos = make(map[string]*model.VideoWithNotes)
	for _, n := range s.notes {
		v := s.videos[n.VideoID]
		if v == nil {
			v = &model.VideoWithNotes{VideoID: n.VideoID}
			if g, ok := meta[n.VideoID]; ok {
				v.Title = g.Title
				v.URL = g.URL
			}
			s.videos[n.VideoID] = v
		}
		if v.Title == "" && n.VideoTitle != nil {
			v.Title = *n.VideoTitle
		}
		v.Notes = append(v.Notes, *n)
		if n.UpdatedAt.After(v.UpdatedAt) {
			v.UpdatedAt = n.UpdatedAt
		}
	}
	for _, v := range s.videos {
		sortNotes(v.Notes)
	}
}

// SyncAll fetches every collection concurrently. It refuses to run while
// offline, unauthenticated, or when a full sync is already in flight, and
// returns false without touching the remote store.
func (s *Store) SyncAll(ctx context.Context) bool {
	if s.CurrentUser() == "" || s.remote == nil || !s.IsConnected() {
		return false
	}

	s.mu.Lock()
	if s.global.IsSyncing {
		s.mu.Unlock()
		return false
	}
	s.global.IsSyncing = true
	s.global.Error = ""
	s.mu.Unlock()

	start := time.Now()
	s.bus.Emit(event.KindSyncStarted, nil)

	fetches := []func(context.Context) bool{
		s.FetchUserData,
		s.FetchNotes,
		s.FetchChats,
		s.FetchWords,
		s.FetchWordlists,
	}
	oks := make([]bool, len(fetches))
	var wg sync.WaitGroup
	for i, fetch := range fetches {
		wg.Add(1)
		go func(i int, fetch func(context.Context) bool) {
			defer wg.Done()
			oks[i] = fetch(ctx)
		}(i, fetch)
	}
	wg.Wait()

	ok := true
	for _, o := range oks {
		ok = ok && o
	}
	duration := time.Since(start)
	now := time.Now().UTC()

	s.mu.Lock()
	s.global.IsSyncing = false
	if ok {
		s.global.LastSynced = &now
		s.global.Error = ""
	} else {
		s.global.Error = "one or more collections failed to sync"
	}
	summary := model.SyncSummary{
		Counts: map[string]int{
			string(ColNotes):     len(s.notes),
			string(ColChats):     len(s.chats),
			string(ColWords):     len(s.words),
			string(ColWordlists): len(s.wordlists),
		},
		Duration: duration.Milliseconds(),
	}
	s.persistSyncStateLocked()
	s.mu.Unlock()

	if ok {
		s.log.Info().Dur("duration", duration).Msg("store: full sync completed")
		s.bus.Emit(event.KindSyncCompleted, summary)
	} else {
		summary.Error = "one or more collections failed to sync"
		s.log.Warn().Dur("duration", duration).Msg("store: full sync failed")
		s.bus.Emit(event.KindSyncFailed, summary)
	}
	return ok
}
