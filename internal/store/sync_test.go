package store

import (
	"context"
	"testing"

	"github.com/lexilens/lexilens-go/internal/docstore"
	"github.com/lexilens/lexilens-go/internal/model"
)

func TestSyncAll_OfflineReturnsFalseWithoutRemoteCalls(t *testing.T) {
	remote := &countingStore{Store: docstore.NewMemory()}
	s := newTestStore(t, remote)

	s.SetConnected(false)
	before := remote.count()

	if s.SyncAll(context.Background()) {
		t.Fatal("SyncAll succeeded while offline")
	}
	if remote.count() != before {
		t.Fatalf("remote touched while offline: %d calls", remote.count()-before)
	}
}

func TestSyncAll_WithoutUserReturnsFalse(t *testing.T) {
	remote := docstore.NewMemory()
	s := newTestStore(t, remote)
	s.session.Logout()

	if s.SyncAll(context.Background()) {
		t.Fatal("SyncAll succeeded without a user")
	}
}

func TestSyncAll_PopulatesEveryCollection(t *testing.T) {
	remote := docstore.NewMemory()
	seed := newTestStore(t, remote)
	ctx := context.Background()

	seed.SaveNote(ctx, noteFixture("vid-1", "hei", timePtr(3)))
	seed.SaveChat(ctx, chatFixture("grammatikk", false))
	seed.SaveWord(ctx, wordFixture("hund"))
	seed.SaveWordlist(ctx, wordlistFixture("dyr"))

	// a second instance over the same remote starts empty and hydrates
	fresh := newTestStore(t, remote)
	if !fresh.SyncAll(ctx) {
		t.Fatal("SyncAll failed")
	}

	if len(fresh.GetNotes("vid-1")) != 1 {
		t.Fatal("notes not hydrated")
	}
	if len(fresh.GetAllChats()) != 1 {
		t.Fatal("chats not hydrated")
	}
	if len(fresh.GetAllSavedWords()) != 1 {
		t.Fatal("words not hydrated")
	}
	if len(fresh.GetAllWordlists()) != 1 {
		t.Fatal("wordlists not hydrated")
	}
	if fresh.GetUserData() == nil {
		t.Fatal("user profile not hydrated")
	}

	state := fresh.GetSyncState()
	if state.Global.LastSynced == nil {
		t.Fatal("global sync time not stamped")
	}
	for _, col := range []string{"notes", "chats", "savedWords", "wordlists", "userData"} {
		inf := state.Collections[col]
		if inf.LastSynced == nil {
			t.Fatalf("collection %s has no sync time", col)
		}
		if inf.IsSyncing {
			t.Fatalf("collection %s still marked syncing", col)
		}
	}
}

func TestFetchNotes_ErrorKeepsStaleState(t *testing.T) {
	remote := &failingStore{Store: docstore.NewMemory()}
	s := newTestStore(t, remote)
	ctx := context.Background()

	if s.SaveNote(ctx, noteFixture("vid-1", "beholdt", nil)) == nil {
		t.Fatal("save failed")
	}

	remote.arm()
	if s.FetchNotes(ctx) {
		t.Fatal("fetch succeeded against a failing remote")
	}

	// stale data beats no data
	if len(s.GetNotes("vid-1")) != 1 {
		t.Fatal("stale notes dropped on fetch failure")
	}
	if s.GetSyncState().Collections["notes"].Error == "" {
		t.Fatal("fetch error not recorded")
	}
}

func TestFetchNotes_FullReplaceDropsLocalOrphans(t *testing.T) {
	remote := docstore.NewMemory()
	s := newTestStore(t, remote)
	ctx := context.Background()

	n := s.SaveNote(ctx, noteFixture("vid-1", "fjernslettet", nil))
	if n == nil {
		t.Fatal("save failed")
	}

	// another client removed the note remotely
	if err := remote.Delete(ctx, docstore.DocPath("user-1", "notes", n.ID)); err != nil {
		t.Fatalf("remote delete: %v", err)
	}
	if err := remote.Delete(ctx, docstore.DocPath("user-1", "videos", "vid-1")); err != nil {
		t.Fatalf("remote delete: %v", err)
	}

	if !s.FetchNotes(ctx) {
		t.Fatal("fetch failed")
	}
	if len(s.GetNotes("vid-1")) != 0 {
		t.Fatal("fetch did not replace local state")
	}
}

func TestFetchUserData_CreatesProfileForNewUser(t *testing.T) {
	remote := docstore.NewMemory()
	s := newTestStore(t, remote)

	if !s.FetchUserData(context.Background()) {
		t.Fatal("fetch failed")
	}
	ud := s.GetUserData()
	if ud == nil {
		t.Fatal("no profile created")
	}
	if ud.UserID != "user-1" {
		t.Fatalf("profile user = %q", ud.UserID)
	}
	if ud.Settings != (model.DefaultSettings()) {
		t.Fatalf("profile settings = %+v, want defaults", ud.Settings)
	}
	// the fresh profile was mirrored remotely
	if _, err := remote.Get(context.Background(), docstore.UserDoc("user-1")); err != nil {
		t.Fatalf("profile not stored remotely: %v", err)
	}
}
