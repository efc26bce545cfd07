package store

import (
	"context"

	"github.com/lexilens/lexilens-go/internal/localcache"
	"github.com/lexilens/lexilens-go/internal/model"
)

// persistLocked writes the snapshot for one collection to the local cache.
// Cache writes are best-effort; the cache layer logs its own failures.
// Caller holds mu.
func (s *Store) persistLocked(col Collection) {
	if !s.cacheOn {
		return
	}
	ctx := context.Background()

	switch col {
	case ColNotes:
		vids := make([]model.VideoWithNotes, 0, len(s.videos))
		for _, v := range s.videos {
			vids = append(vids, *v)
		}
		s.cache.Put(ctx, localcache.KeyVideosWithNotes, vids)
	case ColChats:
		chats := make([]model.Chat, 0, len(s.chats))
		for _, c := range s.chats {
			chats = append(chats, *c)
		}
		s.cache.Put(ctx, localcache.KeyChats, chats)
	case ColWords:
		words := make([]model.SavedWord, 0, len(s.words))
		for _, w := range s.words {
			words = append(words, *w)
		}
		s.cache.Put(ctx, localcache.KeySavedWords, words)
	case ColWordlists:
		lists := make([]model.Wordlist, 0, len(s.wordlists))
		for _, wl := range s.wordlists {
			lists = append(lists, *wl)
		}
		s.cache.Put(ctx, localcache.KeyWordlists, lists)
	}
}

// persistSyncStateLocked snapshots the sync bookkeeping. Caller holds mu.
func (s *Store) persistSyncStateLocked() {
	if !s.cacheOn {
		return
	}
	s.cache.Put(context.Background(), localcache.KeySyncState, s.syncStateLocked())
}

// restoreSnapshots loads cached collections before the first remote fetch,
// so a restarting instance serves stale-but-available data while offline.
// The notes map is rebuilt from the cached video groupings.
func (s *Store) restoreSnapshots(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var vids []model.VideoWithNotes
	if s.cache.Get(ctx, localcache.KeyVideosWithNotes, &vids) {
		for i := range vids {
			v := vids[i]
			s.videos[v.VideoID] = &v
			for j := range v.Notes {
				n := v.Notes[j]
				s.notes[n.ID] = &n
			}
		}
	}

	var chats []model.Chat
	if s.cache.Get(ctx, localcache.KeyChats, &chats) {
		for i := range chats {
			c := chats[i]
			s.chats[c.ID] = &c
		}
	}

	var words []model.SavedWord
	if s.cache.Get(ctx, localcache.KeySavedWords, &words) {
		for i := range words {
			w := words[i]
			s.words[w.ID] = &w
		}
	}

	var lists []model.Wordlist
	if s.cache.Get(ctx, localcache.KeyWordlists, &lists) {
		for i := range lists {
			wl := lists[i]
			s.wordlists[wl.ID] = &wl
		}
	}

	// Only the LastSynced timestamps survive a restart; syncing flags and
	// errors describe the previous process.
	var state model.SyncState
	if s.cache.Get(ctx, localcache.KeySyncState, &state) {
		for col, inf := range state.Collections {
			if cur, ok := s.info[Collection(col)]; ok {
				cur.LastSynced = inf.LastSynced
			}
		}
		s.global.LastSynced = state.Global.LastSynced
	}

	s.log.Info().
		Int("videos", len(s.videos)).
		Int("notes", len(s.notes)).
		Int("chats", len(s.chats)).
		Int("words", len(s.words)).
		Int("wordlists", len(s.wordlists)).
		Msg("store: restored local snapshots")
}
