package model

import "time"

// SyncInfo is the per-collection sync bookkeeping: when the collection last
// synced successfully, whether a sync is in flight, and the last error text.
type SyncInfo struct {
	LastSynced *time.Time `json:"lastSynced,omitempty"`
	IsSyncing  bool       `json:"isSyncing"`
	Error      string     `json:"error,omitempty"`
}

// SyncState is the snapshot returned to UI collaborators polling sync
// status.
type SyncState struct {
	Connected   bool                `json:"connected"`
	Global      SyncInfo            `json:"global"`
	Collections map[string]SyncInfo `json:"collections"`
}

// DeletedRef identifies a deleted entity in events and broadcasts. VideoID
// is set only for notes so receiving windows can cascade the grouping
// cleanup without a lookup.
type DeletedRef struct {
	ID      string `json:"id"`
	VideoID string `json:"videoId,omitempty"`
}

// SyncedCount is the payload of <collection>:synced events.
type SyncedCount struct {
	Collection string `json:"collection"`
	Count      int    `json:"count"`
}

// SyncSummary is the payload of sync:completed / sync:failed events.
type SyncSummary struct {
	Counts   map[string]int `json:"counts,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration int64          `json:"durationMs"`
}
