package model

import "time"

// Note is a free-text annotation anchored to a video, optionally at a
// specific playback offset.
type Note struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Content    string    `json:"content"`
	VideoID    string    `json:"videoId"`
	VideoTitle *string   `json:"videoTitle,omitempty"`
	VideoTime  *float64  `json:"videoTime,omitempty"` // seconds into playback
	Favorite   bool      `json:"favorite,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Color      *string   `json:"color,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// VideoWithNotes groups all notes for one video. It exists only while at
// least one note references the video and is rebuilt whenever its notes
// change.
type VideoWithNotes struct {
	VideoID   string    `json:"videoId"`
	Title     string    `json:"title,omitempty"`
	URL       string    `json:"url,omitempty"`
	Notes     []Note    `json:"notes"`
	UpdatedAt time.Time `json:"updatedAt"` // most recent note update
}

// VideoGroup is the secondary-index document stored at
// users/{userId}/videos/{videoId}: the set of note IDs for the video plus
// display metadata. The full notes live in the notes collection.
type VideoGroup struct {
	VideoID   string          `json:"videoId"`
	Title     string          `json:"title,omitempty"`
	URL       string          `json:"url,omitempty"`
	NoteIDs   map[string]bool `json:"noteIds"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
