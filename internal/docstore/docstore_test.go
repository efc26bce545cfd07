package docstore

import (
	"context"
	"errors"
	"testing"
)

func TestPathParity(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		docOK  bool
		collOK bool
	}{
		{"user document", "users/u1", true, false},
		{"notes collection", "users/u1/notes", false, true},
		{"note document", "users/u1/notes/n1", true, false},
		{"top collection", "users", false, true},
		{"empty", "", false, false},
		{"leading slash", "/users/u1", false, false},
		{"trailing slash", "users/u1/", false, false},
		{"empty segment", "users//notes/n1", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateDocPath(tt.path) == nil; got != tt.docOK {
				t.Errorf("ValidateDocPath(%q) ok = %v, want %v", tt.path, got, tt.docOK)
			}
			if got := ValidateCollectionPath(tt.path) == nil; got != tt.collOK {
				t.Errorf("ValidateCollectionPath(%q) ok = %v, want %v", tt.path, got, tt.collOK)
			}
		})
	}
}

func TestPathHelpers(t *testing.T) {
	if got := UserDoc("u1"); got != "users/u1" {
		t.Errorf("UserDoc = %q", got)
	}
	if got := CollectionPath("u1", "notes"); got != "users/u1/notes" {
		t.Errorf("CollectionPath = %q", got)
	}
	if got := DocPath("u1", "notes", "n1"); got != "users/u1/notes/n1" {
		t.Errorf("DocPath = %q", got)
	}
	if got := parentCollection("users/u1/notes/n1"); got != "users/u1/notes" {
		t.Errorf("parentCollection = %q", got)
	}
	if got := docID("users/u1/notes/n1"); got != "n1" {
		t.Errorf("docID = %q", got)
	}
}

func TestMemory_CRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	path := DocPath("u1", "notes", "n1")
	if err := m.Put(ctx, path, []byte(`{"id":"n1"}`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	doc, err := m.Get(ctx, path)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(doc) != `{"id":"n1"}` {
		t.Errorf("get = %s", doc)
	}

	// Overwrite
	if err := m.Put(ctx, path, []byte(`{"id":"n1","v":2}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	doc, _ = m.Get(ctx, path)
	if string(doc) != `{"id":"n1","v":2}` {
		t.Errorf("after overwrite = %s", doc)
	}
	if m.Len() != 1 {
		t.Errorf("len = %d, want 1 (overwrite, not append)", m.Len())
	}

	if err := m.Delete(ctx, path); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Get(ctx, path); !errors.Is(err, ErrNotFound) {
		t.Errorf("get after delete err = %v, want ErrNotFound", err)
	}

	// Deleting a missing document is not an error
	if err := m.Delete(ctx, path); err != nil {
		t.Errorf("delete missing: %v", err)
	}
}

func TestMemory_ListScopedToCollection(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	m.Put(ctx, DocPath("u1", "notes", "n1"), []byte(`1`))
	m.Put(ctx, DocPath("u1", "notes", "n2"), []byte(`2`))
	m.Put(ctx, DocPath("u1", "chats", "c1"), []byte(`3`))
	m.Put(ctx, DocPath("u2", "notes", "n9"), []byte(`4`))

	docs, err := m.List(ctx, CollectionPath("u1", "notes"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("list returned %d docs, want 2", len(docs))
	}
	ids := map[string]bool{}
	for _, d := range docs {
		ids[d.ID] = true
	}
	if !ids["n1"] || !ids["n2"] {
		t.Errorf("listed ids = %v, want n1 and n2", ids)
	}
}

func TestMemory_ParityRejected(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Put(ctx, "users/u1/notes", []byte(`{}`)); err == nil {
		t.Error("put to collection path should fail parity check")
	}
	if _, err := m.List(ctx, "users/u1/notes/n1"); err == nil {
		t.Error("list of document path should fail parity check")
	}
}
