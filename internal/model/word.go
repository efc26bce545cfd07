package model

import "time"

// SourceKind records where a saved word was captured.
type SourceKind string

const (
	SourceVideo SourceKind = "video"
	SourceChat  SourceKind = "chat"
)

// SavedWord is a vocabulary entry captured from a caption or a chat.
type SavedWord struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Word        string     `json:"word"`
	Language    string     `json:"language"`
	Translation *string    `json:"translation,omitempty"`
	Definition  *string    `json:"definition,omitempty"`
	Examples    []string   `json:"examples,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	SourceID    string     `json:"sourceId,omitempty"`
	SourceKind  SourceKind `json:"sourceKind,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Wordlist is a named collection of saved words in one language.
type Wordlist struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language"`
	Favorite    bool      `json:"favorite,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	WordIDs     []string  `json:"wordIds,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
