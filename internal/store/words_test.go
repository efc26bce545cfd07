package store

import (
	"context"
	"testing"

	"github.com/lexilens/lexilens-go/internal/docstore"
	"github.com/lexilens/lexilens-go/internal/model"
)

func wordFixture(word string) *model.SavedWord {
	translation := "dog"
	return &model.SavedWord{
		Word:        word,
		Language:    "no",
		Translation: &translation,
		SourceID:    "vid-1",
		SourceKind:  model.SourceVideo,
	}
}

func wordlistFixture(name string, wordIDs ...string) *model.Wordlist {
	return &model.Wordlist{
		Name:     name,
		Language: "no",
		WordIDs:  wordIDs,
	}
}

func TestSaveWord_RoundTrip(t *testing.T) {
	s := newTestStore(t, docstore.NewMemory())

	saved := s.SaveWord(context.Background(), wordFixture("hund"))
	if saved == nil {
		t.Fatal("SaveWord returned nil")
	}
	words := s.GetAllSavedWords()
	if len(words) != 1 || words[0].Word != "hund" {
		t.Fatalf("words = %+v", words)
	}
	if ud := s.GetUserData(); ud == nil || ud.Stats.TotalSavedWords != 1 {
		t.Fatalf("stats not bumped: %+v", ud)
	}
}

func TestSaveWord_RejectsEmptyWord(t *testing.T) {
	s := newTestStore(t, docstore.NewMemory())

	if s.SaveWord(context.Background(), &model.SavedWord{Language: "no"}) != nil {
		t.Fatal("saved a word without text")
	}
}

func TestDeleteWord_RemovesFromWordlists(t *testing.T) {
	s := newTestStore(t, docstore.NewMemory())
	ctx := context.Background()

	w1 := s.SaveWord(ctx, wordFixture("hund"))
	w2 := s.SaveWord(ctx, wordFixture("katt"))
	if w1 == nil || w2 == nil {
		t.Fatal("saves failed")
	}
	wl := s.SaveWordlist(ctx, wordlistFixture("dyr", w1.ID, w2.ID))
	if wl == nil {
		t.Fatal("wordlist save failed")
	}

	if !s.DeleteWord(ctx, w1.ID) {
		t.Fatal("delete failed")
	}

	got := s.GetWordlist(wl.ID)
	if got == nil {
		t.Fatal("wordlist gone")
	}
	if len(got.WordIDs) != 1 || got.WordIDs[0] != w2.ID {
		t.Fatalf("wordlist members = %v, want [%s]", got.WordIDs, w2.ID)
	}
}

func TestSaveWordlist_TracksUserIndex(t *testing.T) {
	s := newTestStore(t, docstore.NewMemory())
	ctx := context.Background()

	// ensure the profile exists before the wordlist write
	if s.SaveWord(ctx, wordFixture("hund")) == nil {
		t.Fatal("word save failed")
	}
	wl := s.SaveWordlist(ctx, wordlistFixture("dyr"))
	if wl == nil {
		t.Fatal("wordlist save failed")
	}

	ud := s.GetUserData()
	if len(ud.WordlistIDs) != 1 || ud.WordlistIDs[0] != wl.ID {
		t.Fatalf("wordlist ids = %v, want [%s]", ud.WordlistIDs, wl.ID)
	}

	if !s.DeleteWordlist(ctx, wl.ID) {
		t.Fatal("delete failed")
	}
	if ud := s.GetUserData(); len(ud.WordlistIDs) != 0 {
		t.Fatalf("wordlist ids = %v, want empty", ud.WordlistIDs)
	}
}

func TestDeleteWordlist_KeepsWords(t *testing.T) {
	s := newTestStore(t, docstore.NewMemory())
	ctx := context.Background()

	w := s.SaveWord(ctx, wordFixture("hund"))
	wl := s.SaveWordlist(ctx, wordlistFixture("dyr", w.ID))
	if !s.DeleteWordlist(ctx, wl.ID) {
		t.Fatal("delete failed")
	}

	if len(s.GetAllWordlists()) != 0 {
		t.Fatal("wordlist survived delete")
	}
	if len(s.GetAllSavedWords()) != 1 {
		t.Fatal("word deleted with its wordlist")
	}
}

func TestSaveWordlist_FailureReturnsNil(t *testing.T) {
	remote := &failingStore{Store: docstore.NewMemory()}
	s := newTestStore(t, remote)

	remote.arm()
	if s.SaveWordlist(context.Background(), wordlistFixture("tapt")) != nil {
		t.Fatal("save succeeded against a failing remote")
	}
	if len(s.GetAllWordlists()) != 0 {
		t.Fatal("wordlist cached despite failed write")
	}
}
