package localcache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"), "lexilens", zerolog.Nop())
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	type snapshot struct {
		IDs   []string `json:"ids"`
		Count int      `json:"count"`
	}

	c.Put(ctx, KeyChats, snapshot{IDs: []string{"c1", "c2"}, Count: 2})

	var got snapshot
	if !c.Get(ctx, KeyChats, &got) {
		t.Fatal("expected hit after put")
	}
	if got.Count != 2 || len(got.IDs) != 2 || got.IDs[0] != "c1" {
		t.Errorf("got %+v", got)
	}
}

func TestCache_MissOnUnknownKey(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	var out map[string]any
	if c.Get(ctx, "never-written", &out) {
		t.Error("expected miss for unknown key")
	}
}

func TestCache_Overwrite(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	c.Put(ctx, KeySavedWords, []string{"a"})
	c.Put(ctx, KeySavedWords, []string{"b", "c"})

	var got []string
	if !c.Get(ctx, KeySavedWords, &got) {
		t.Fatal("expected hit")
	}
	if len(got) != 2 || got[0] != "b" {
		t.Errorf("got %v, want [b c]", got)
	}
}

func TestCache_CorruptValueIsMiss(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	// Write raw garbage under the namespaced key, bypassing Put.
	if _, err := c.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, 0)`,
		c.key(KeyWordlists), []byte("{not json")); err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	var out []string
	if c.Get(ctx, KeyWordlists, &out) {
		t.Error("corrupt snapshot should read as a miss")
	}
}

func TestCache_ClearRemovesOnlyPrefix(t *testing.T) {
	ctx := context.Background()
	c := openTestCache(t)

	c.Put(ctx, KeyChats, []string{"c1"})

	// A second namespace sharing the same file survives Clear.
	other := &Cache{db: c.db, prefix: "otherapp", log: c.log}
	other.Put(ctx, KeyChats, []string{"x"})

	c.Clear(ctx)

	var out []string
	if c.Get(ctx, KeyChats, &out) {
		t.Error("cleared namespace should miss")
	}
	if !other.Get(ctx, KeyChats, &out) {
		t.Error("other namespace should survive clear")
	}
}
