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

// GetNotes returns the notes for one video, timed notes first in ascending
// video-time order, then untimed notes by creation time.
func (s *Store) GetNotes(videoID string) []model.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Note, 0)
	for _, n := range s.notes {
		if n.VideoID == videoID {
			out = append(out, *n)
		}
	}
	sortNotes(out)
	return out
}

// GetAllVideosWithNotes returns every video grouping, most recently
// updated first.
func (s *Store) GetAllVideosWithNotes() []model.VideoWithNotes {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.VideoWithNotes, 0, len(s.videos))
	for _, v := range s.videos {
		vc := *v
		vc.Notes = append([]model.Note(nil), v.Notes...)
		out = append(out, vc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].VideoID < out[j].VideoID
	})
	return out
}

// SaveNote writes a note through to the remote store and updates the video
// grouping. Returns the saved note, or nil when the write failed.
func (s *Store) SaveNote(ctx context.Context, n *model.Note) *model.Note {
	if n == nil || n.VideoID == "" || n.Content == "" {
		s.log.Warn().Msg("store: save note rejected, missing video id or content")
		return nil
	}
	uid, ok := s.readyForWrite()
	if !ok {
		return nil
	}

	saved := *n
	if saved.ID == "" {
		saved.ID = uuid.New().String()
	}
	saved.UserID = uid
	now := time.Now().UTC()
	if saved.CreatedAt.IsZero() {
		s.mu.RLock()
		prev := s.notes[saved.ID]
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
		s.failWrite(ColNotes, "save note", err)
		return nil
	}
	if err := s.remote.Put(ctx, docstore.DocPath(uid, "notes", saved.ID), data); err != nil {
		s.failWrite(ColNotes, "save note", err)
		return nil
	}

	s.mu.Lock()
	_, existed := s.notes[saved.ID]
	stored := saved
	s.notes[saved.ID] = &stored
	group := s.rebuildVideoGroupLocked(saved.VideoID, saved.VideoTitle)
	if !existed {
		s.bumpStatsLocked(func(st *model.UsageStats) { st.TotalNotes++ })
	}
	s.touchUserLocked(now)
	s.persistLocked(ColNotes)
	s.mu.Unlock()

	s.putVideoGroup(ctx, uid, group)
	s.clearWriteError(ColNotes)

	kind := event.KindNoteUpdated
	if !existed {
		kind = event.KindNoteAdded
	}
	s.bus.Emit(kind, saved)

	out := saved
	return &out
}

// DeleteNote removes a note and cascades into the video grouping; the
// grouping itself is removed when its last note goes. Returns false when
// the remote delete failed.
func (s *Store) DeleteNote(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	uid, ok := s.readyForWrite()
	if !ok {
		return false
	}

	if err := s.remote.Delete(ctx, docstore.DocPath(uid, "notes", id)); err != nil {
		s.failWrite(ColNotes, "delete note", err)
		return false
	}

	var videoID string
	var group *model.VideoGroup
	var existed bool
	s.mu.Lock()
	if n := s.notes[id]; n != nil {
		existed = true
		videoID = n.VideoID
		delete(s.notes, id)
		group = s.rebuildVideoGroupLocked(videoID, nil)
		s.bumpStatsLocked(func(st *model.UsageStats) {
			if st.TotalNotes > 0 {
				st.TotalNotes--
			}
		})
		s.touchUserLocked(time.Now().UTC())
		s.persistLocked(ColNotes)
	}
	s.mu.Unlock()

	if existed {
		if group == nil {
			s.deleteVideoGroup(ctx, uid, videoID)
		} else {
			s.putVideoGroup(ctx, uid, group)
		}
	}
	s.clearWriteError(ColNotes)
	s.bus.Emit(event.KindNoteDeleted, model.DeletedRef{ID: id, VideoID: videoID})
	return true
}

// rebuildVideoGroupLocked recomputes the grouping for one video from the
// notes map. Returns the secondary-index document to mirror remotely, or
// nil when the grouping became empty and was dropped. Caller holds mu.
func (s *Store) rebuildVideoGroupLocked(videoID string, title *string) *model.VideoGroup {
	var notes []model.Note
	var latest time.Time
	for _, n := range s.notes {
		if n.VideoID == videoID {
			notes = append(notes, *n)
			if n.UpdatedAt.After(latest) {
				latest = n.UpdatedAt
			}
		}
	}
	if len(notes) == 0 {
		delete(s.videos, videoID)
		return nil
	}
	sortNotes(notes)

	v := s.videos[videoID]
	if v == nil {
		v = &model.VideoWithNotes{VideoID: videoID}
		s.videos[videoID] = v
	}
	if title != nil && *title != "" {
		v.Title = *title
	}
	if v.Title == "" {
		for _, n := range notes {
			if n.VideoTitle != nil && *n.VideoTitle != "" {
				v.Title = *n.VideoTitle
				break
			}
		}
	}
	v.Notes = notes
	v.UpdatedAt = latest

	doc := &model.VideoGroup{
		VideoID:   videoID,
		Title:     v.Title,
		URL:       v.URL,
		NoteIDs:   make(map[string]bool, len(notes)),
		UpdatedAt: latest,
	}
	for _, n := range notes {
		doc.NoteIDs[n.ID] = true
	}
	return doc
}

// putVideoGroup mirrors a grouping document remotely. Best-effort: a
// failure here leaves the notes intact and the grouping converges on the
// next full fetch.
func (s *Store) putVideoGroup(ctx context.Context, uid string, g *model.VideoGroup) {
	if g == nil {
		return
	}
	data, err := json.Marshal(g)
	if err != nil {
		s.log.Warn().Err(err).Msg("store: video grouping encode failed")
		return
	}
	if err := s.remote.Put(ctx, docstore.DocPath(uid, "videos", g.VideoID), data); err != nil {
		s.log.Warn().Err(err).Str("video_id", g.VideoID).Msg("store: video grouping update failed")
	}
}

func (s *Store) deleteVideoGroup(ctx context.Context, uid, videoID string) {
	if err := s.remote.Delete(ctx, docstore.DocPath(uid, "videos", videoID)); err != nil {
		s.log.Warn().Err(err).Str("video_id", videoID).Msg("store: video grouping delete failed")
	}
}

// sortNotes orders timed notes ascending by video time ahead of untimed
// notes, which sort by creation time.
func sortNotes(notes []model.Note) {
	sort.Slice(notes, func(i, j int) bool {
		ti, tj := notes[i].VideoTime, notes[j].VideoTime
		switch {
		case ti != nil && tj != nil:
			if *ti != *tj {
				return *ti < *tj
			}
			return notes[i].CreatedAt.Before(notes[j].CreatedAt)
		case ti != nil:
			return true
		case tj != nil:
			return false
		default:
			return notes[i].CreatedAt.Before(notes[j].CreatedAt)
		}
	})
}
