package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/lexilens/lexilens-go/internal/auth"
	"github.com/lexilens/lexilens-go/internal/broadcast"
	"github.com/lexilens/lexilens-go/internal/docstore"
	"github.com/lexilens/lexilens-go/internal/event"
)

// newTestStore builds an initialized store with an in-memory remote and a
// logged-in user.
func newTestStore(t *testing.T, remote docstore.Store) *Store {
	t.Helper()

	session := auth.NewSession()
	session.Login("user-1")

	s := New(Options{
		Remote:  remote,
		Session: session,
		Logger:  zerolog.Nop(),
	})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(s.Shutdown)
	s.SetConnected(true)
	return s
}

// failingStore wraps a docstore and fails every call once armed.
type failingStore struct {
	docstore.Store
	mu   sync.Mutex
	fail bool
}

func (f *failingStore) arm() {
	f.mu.Lock()
	f.fail = true
	f.mu.Unlock()
}

func (f *failingStore) failing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail
}

func (f *failingStore) Put(ctx context.Context, path string, doc []byte) error {
	if f.failing() {
		return errors.New("remote unavailable")
	}
	return f.Store.Put(ctx, path, doc)
}

func (f *failingStore) Delete(ctx context.Context, path string) error {
	if f.failing() {
		return errors.New("remote unavailable")
	}
	return f.Store.Delete(ctx, path)
}

func (f *failingStore) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	if f.failing() {
		return nil, errors.New("remote unavailable")
	}
	return f.Store.List(ctx, collection)
}

// countingStore counts remote calls.
type countingStore struct {
	docstore.Store
	mu    sync.Mutex
	calls int
}

func (c *countingStore) bump() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingStore) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *countingStore) Get(ctx context.Context, path string) ([]byte, error) {
	c.bump()
	return c.Store.Get(ctx, path)
}

func (c *countingStore) Put(ctx context.Context, path string, doc []byte) error {
	c.bump()
	return c.Store.Put(ctx, path, doc)
}

func (c *countingStore) Delete(ctx context.Context, path string) error {
	c.bump()
	return c.Store.Delete(ctx, path)
}

func (c *countingStore) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	c.bump()
	return c.Store.List(ctx, collection)
}

func TestStore_LogoutClearsState(t *testing.T) {
	remote := docstore.NewMemory()
	session := auth.NewSession()
	session.Login("user-1")

	s := New(Options{Remote: remote, Session: session, Logger: zerolog.Nop()})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer s.Shutdown()
	s.SetConnected(true)

	if s.SaveWord(context.Background(), wordFixture("hund")) == nil {
		t.Fatal("SaveWord failed")
	}
	if got := len(s.GetAllSavedWords()); got != 1 {
		t.Fatalf("words before logout = %d, want 1", got)
	}

	session.Logout()

	if got := len(s.GetAllSavedWords()); got != 0 {
		t.Fatalf("words after logout = %d, want 0", got)
	}
	if s.CurrentUser() != "" {
		t.Fatalf("CurrentUser after logout = %q, want empty", s.CurrentUser())
	}
	if s.GetUserData() != nil {
		t.Fatal("user data survived logout")
	}
}

func TestStore_WriteRejectedWithoutUser(t *testing.T) {
	remote := docstore.NewMemory()
	s := New(Options{Remote: remote, Session: auth.NewSession(), Logger: zerolog.Nop()})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer s.Shutdown()

	if s.SaveWord(context.Background(), wordFixture("katt")) != nil {
		t.Fatal("SaveWord succeeded without a user")
	}
	if remote.Len() != 0 {
		t.Fatalf("remote has %d docs, want 0", remote.Len())
	}
}

func TestStore_SetConnectedEmitsOnTransition(t *testing.T) {
	s := newTestStore(t, docstore.NewMemory())

	var transitions []bool
	var mu sync.Mutex
	s.Subscribe(event.KindConnectionChanged, func(ev event.Event) {
		mu.Lock()
		transitions = append(transitions, ev.Data.(bool))
		mu.Unlock()
	})

	s.SetConnected(true) // already connected, no event
	s.SetConnected(false)
	s.SetConnected(false) // repeated, no event
	s.SetConnected(true)

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 2 || transitions[0] != false || transitions[1] != true {
		t.Fatalf("transitions = %v, want [false true]", transitions)
	}
}

func TestStore_DisabledTransportIsSafe(t *testing.T) {
	s := New(Options{
		Remote:    docstore.NewMemory(),
		Session:   auth.NewSession(),
		Transport: broadcast.Disabled{},
		Logger:    zerolog.Nop(),
	})
	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	s.Shutdown()
}
