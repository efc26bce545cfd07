package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lexilens/lexilens-go/internal/auth"
	"github.com/lexilens/lexilens-go/internal/broadcast"
	"github.com/lexilens/lexilens-go/internal/docstore"
)

// newLinkedStores builds two store instances for the same user sharing one
// remote and one broadcast hub, like two extension windows.
func newLinkedStores(t *testing.T, remote docstore.Store) (*Store, *Store) {
	t.Helper()

	hub := broadcast.NewHub()
	build := func() *Store {
		session := auth.NewSession()
		session.Login("user-1")
		s := New(Options{
			Remote:          remote,
			Session:         session,
			Transport:       hub.Attach(),
			EnableBroadcast: true,
			Logger:          zerolog.Nop(),
		})
		if err := s.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize: %v", err)
		}
		t.Cleanup(s.Shutdown)
		s.SetConnected(true)
		return s
	}
	return build(), build()
}

func TestReconcile_NoteAddedAppliedWithoutRefetch(t *testing.T) {
	remote := &countingStore{Store: docstore.NewMemory()}
	a, b := newLinkedStores(t, remote)

	saved := a.SaveNote(context.Background(), noteFixture("vid-1", "delt", timePtr(7)))
	if saved == nil {
		t.Fatal("save failed")
	}
	before := remote.count()

	// loopback delivery is synchronous, so b already has the note
	notes := b.GetNotes("vid-1")
	if len(notes) != 1 || notes[0].Content != "delt" {
		t.Fatalf("note not reconciled: %+v", notes)
	}
	if len(b.GetAllVideosWithNotes()) != 1 {
		t.Fatal("grouping not rebuilt on the receiving side")
	}
	if remote.count() != before {
		t.Fatal("reconciliation touched the remote store")
	}
}

func TestReconcile_NoteDeletedCascades(t *testing.T) {
	a, b := newLinkedStores(t, docstore.NewMemory())
	ctx := context.Background()

	n := a.SaveNote(ctx, noteFixture("vid-1", "borte", nil))
	if n == nil {
		t.Fatal("save failed")
	}
	if len(b.GetNotes("vid-1")) != 1 {
		t.Fatal("note not reconciled")
	}

	if !a.DeleteNote(ctx, n.ID) {
		t.Fatal("delete failed")
	}
	if len(b.GetNotes("vid-1")) != 0 {
		t.Fatal("delete not reconciled")
	}
	if len(b.GetAllVideosWithNotes()) != 0 {
		t.Fatal("empty grouping survived reconciled delete")
	}
}

func TestReconcile_ChatAndWordFlows(t *testing.T) {
	a, b := newLinkedStores(t, docstore.NewMemory())
	ctx := context.Background()

	c := a.SaveChat(ctx, chatFixture("delt samtale", false))
	w := a.SaveWord(ctx, wordFixture("hund"))
	wl := a.SaveWordlist(ctx, wordlistFixture("dyr", w.ID))
	if c == nil || w == nil || wl == nil {
		t.Fatal("saves failed")
	}

	if b.GetChat(c.ID) == nil {
		t.Fatal("chat not reconciled")
	}
	if len(b.GetAllSavedWords()) != 1 {
		t.Fatal("word not reconciled")
	}
	if b.GetWordlist(wl.ID) == nil {
		t.Fatal("wordlist not reconciled")
	}

	// deleting the word on one side trims the other side's wordlist too
	if !a.DeleteWord(ctx, w.ID) {
		t.Fatal("delete failed")
	}
	if got := b.GetWordlist(wl.ID); len(got.WordIDs) != 0 {
		t.Fatalf("wordlist members on b = %v, want empty", got.WordIDs)
	}
}

func TestReconcile_OwnMessagesDropped(t *testing.T) {
	hub := broadcast.NewHub()
	session := auth.NewSession()
	session.Login("user-1")

	s := New(Options{
		Remote:          docstore.NewMemory(),
		Session:         session,
		Transport:       hub.Attach(),
		EnableBroadcast: true,
		Logger:          zerolog.Nop(),
	})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer s.Shutdown()
	s.SetConnected(true)

	// a lone member of the hub never hears its own publishes; saving must
	// leave exactly one copy of the note
	if s.SaveNote(context.Background(), noteFixture("vid-1", "en gang", nil)) == nil {
		t.Fatal("save failed")
	}
	if len(s.GetNotes("vid-1")) != 1 {
		t.Fatal("own broadcast echoed back")
	}
}

func TestReconcile_MalformedEnvelopeIgnored(t *testing.T) {
	a, _ := newLinkedStores(t, docstore.NewMemory())

	// feed garbage straight into the handler; it must not panic or mutate
	a.handleBroadcast([]byte("not json"))
	a.handleBroadcast([]byte(`{"origin":"x","type":"unknown:kind","data":null,"timestamp":""}`))

	if len(a.GetAllVideosWithNotes()) != 0 {
		t.Fatal("malformed envelope mutated state")
	}
}

func TestReconcile_StaleUpdateLoses(t *testing.T) {
	a, b := newLinkedStores(t, docstore.NewMemory())
	ctx := context.Background()

	first := a.SaveNote(ctx, noteFixture("vid-1", "versjon en", nil))
	if first == nil {
		t.Fatal("save failed")
	}
	second := *first
	second.Content = "versjon to"
	if a.SaveNote(ctx, &second) == nil {
		t.Fatal("update failed")
	}

	// replay the older version at b; last write wins, so it must not regress
	stale := *first
	b.applyNote(&stale)
	notes := b.GetNotes("vid-1")
	if len(notes) != 1 || notes[0].Content != "versjon to" {
		t.Fatalf("stale update overwrote newer state: %+v", notes)
	}
}

func TestReconcile_SyncedRefetchDoesNotEcho(t *testing.T) {
	remote := &countingStore{Store: docstore.NewMemory()}
	a, b := newLinkedStores(t, remote)
	ctx := context.Background()

	// let the connect-time syncs and their cross-window refetches settle
	time.Sleep(50 * time.Millisecond)

	n := noteFixture("vid-1", "ekko", nil)
	n.ID = "note-1"
	n.UserID = "user-1"
	raw, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := remote.Put(ctx, docstore.DocPath("user-1", "notes", "note-1"), raw); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if !a.FetchNotes(ctx) {
		t.Fatal("fetch failed")
	}

	// b's refetch runs on its own goroutine; wait until it lands
	deadline := time.Now().Add(2 * time.Second)
	for len(b.GetNotes("vid-1")) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("receiving window never refetched")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// one fetch and one refetch, then quiet: the refetch's synced event
	// must not bounce back and prompt a to fetch again
	mid := remote.count()
	time.Sleep(150 * time.Millisecond)
	if end := remote.count(); end != mid {
		t.Fatalf("remote call count still growing after one fetch: %d -> %d", mid, end)
	}
}
