// Package localcache is the local persistence adapter: a namespaced
// key-value snapshot of the in-memory state, restored at startup so the UI
// has data before the first remote fetch completes.
package localcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	_ "modernc.org/sqlite"
)

// Snapshot keys. Each holds one serialized collection; notes are restored
// from the videosWithNotes groupings.
const (
	KeyVideosWithNotes = "videosWithNotes"
	KeyChats           = "chats"
	KeySavedWords      = "savedWords"
	KeyWordlists       = "wordlists"
	KeySyncState       = "syncState"
)

// Cache is a SQLite-backed KV store. All operations are best-effort: a
// broken cache degrades to a cache miss, never to a failed save.
type Cache struct {
	db     *sql.DB
	prefix string
	log    zerolog.Logger
}

// Open opens (creating if needed) the cache database at path. Keys are
// namespaced with the given prefix.
func Open(path, prefix string, log zerolog.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{db: db, prefix: prefix, log: log}, nil
}

func (c *Cache) key(k string) string {
	return c.prefix + ":" + k
}

// Put serializes v under the namespaced key. Failures are logged and
// swallowed.
func (c *Cache) Put(ctx context.Context, k string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Error().Err(err).Str("key", k).Msg("localcache: marshal failed")
		return
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		c.key(k), data, time.Now().Unix())
	if err != nil {
		c.log.Warn().Err(err).Str("key", k).Msg("localcache: write failed")
	}
}

// Get deserializes the value under the namespaced key into out. Returns
// false on miss; serialization errors are logged and treated as a miss.
func (c *Cache) Get(ctx context.Context, k string, out any) bool {
	var data []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, c.key(k)).Scan(&data)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", k).Msg("localcache: read failed")
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		c.log.Warn().Err(err).Str("key", k).Msg("localcache: corrupt snapshot, treating as miss")
		return false
	}
	return true
}

// Delete removes one key.
func (c *Cache) Delete(ctx context.Context, k string) {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, c.key(k)); err != nil {
		c.log.Warn().Err(err).Str("key", k).Msg("localcache: delete failed")
	}
}

// Clear removes every key under the cache's prefix. Used on logout.
func (c *Cache) Clear(ctx context.Context) {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM kv WHERE key LIKE ?`, c.prefix+":%"); err != nil {
		c.log.Warn().Err(err).Msg("localcache: clear failed")
	}
}

func (c *Cache) Close() error {
	return c.db.Close()
}
