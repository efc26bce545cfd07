package model

import "time"

// UsageStats holds derived per-user counters. They are bumped on each write
// and fully recomputed by the resync worker, so they may lag briefly.
type UsageStats struct {
	TotalChats      int       `json:"totalChats"`
	TotalNotes      int       `json:"totalNotes"`
	TotalSavedWords int       `json:"totalSavedWords"`
	JoinedAt        time.Time `json:"joinedAt"`
	LastActiveAt    time.Time `json:"lastActiveAt"`
}

// Settings are per-user preferences mirrored to every window.
type Settings struct {
	Language      string `json:"language"`
	DarkMode      bool   `json:"darkMode"`
	FontSize      int    `json:"fontSize"`
	Autosave      bool   `json:"autosave"`
	Notifications bool   `json:"notifications"`
}

// UserData is the per-user aggregate stored at users/{userId}.
type UserData struct {
	UserID       string     `json:"userId"`
	Stats        UsageStats `json:"stats"`
	SavedChatIDs []string   `json:"savedChatIds,omitempty"`
	WordlistIDs  []string   `json:"wordlistIds,omitempty"`
	Settings     Settings   `json:"settings"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// DefaultSettings are applied when a user document is created for the
// first time.
func DefaultSettings() Settings {
	return Settings{
		Language:      "en",
		FontSize:      14,
		Autosave:      true,
		Notifications: true,
	}
}
