// Package store is the sync orchestrator: it owns the in-memory
// authoritative collections, writes through to the remote document store,
// and keeps windows of the same user consistent via the event bus and the
// broadcast channel.
package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lexilens/lexilens-go/internal/auth"
	"github.com/lexilens/lexilens-go/internal/broadcast"
	"github.com/lexilens/lexilens-go/internal/docstore"
	"github.com/lexilens/lexilens-go/internal/event"
	"github.com/lexilens/lexilens-go/internal/localcache"
	"github.com/lexilens/lexilens-go/internal/model"
)

// Collection names the synced collections. The string values match both
// the remote path segments and the *:synced event payloads.
type Collection string

const (
	ColNotes     Collection = "notes"
	ColChats     Collection = "chats"
	ColWords     Collection = "savedWords"
	ColWordlists Collection = "wordlists"
	ColUserData  Collection = "userData"
)

func collections() []Collection {
	return []Collection{ColNotes, ColChats, ColWords, ColWordlists, ColUserData}
}

// Options wires the store's collaborators. Remote is required for any
// write or fetch to succeed; everything else degrades gracefully when
// absent.
type Options struct {
	Remote    docstore.Store
	Cache     *localcache.Cache
	Session   *auth.Session
	Transport broadcast.Transport

	EnableLocalCache bool
	EnableBroadcast  bool

	// PingInterval controls the connectivity watcher. Zero disables it;
	// connectivity is then driven by SetConnected.
	PingInterval time.Duration

	Logger zerolog.Logger
}

// Store reconciles in-memory state, the local snapshot cache and the
// remote document store. The maps are mutated only by Store methods under
// mu; reads hand out copies.
type Store struct {
	remote    docstore.Store
	cache     *localcache.Cache
	session   *auth.Session
	transport broadcast.Transport
	bus       *event.Bus
	log       zerolog.Logger

	mu        sync.RWMutex
	userID    string
	notes     map[string]*model.Note
	videos    map[string]*model.VideoWithNotes
	chats     map[string]*model.Chat
	words     map[string]*model.SavedWord
	wordlists map[string]*model.Wordlist
	userData  *model.UserData
	info      map[Collection]*model.SyncInfo
	global    model.SyncInfo
	gen       map[Collection]uint64

	connected    atomic.Bool
	cacheOn      bool
	pingInterval time.Duration
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

// New constructs a store instance. Each instance gets a random origin id
// so broadcast reconciliation can drop its own messages.
func New(opts Options) *Store {
	transport := opts.Transport
	if !opts.EnableBroadcast || transport == nil {
		transport = broadcast.Disabled{}
	}

	s := &Store{
		remote:       opts.Remote,
		cache:        opts.Cache,
		session:      opts.Session,
		transport:    transport,
		log:          opts.Logger,
		notes:        make(map[string]*model.Note),
		videos:       make(map[string]*model.VideoWithNotes),
		chats:        make(map[string]*model.Chat),
		words:        make(map[string]*model.SavedWord),
		wordlists:    make(map[string]*model.Wordlist),
		info:         make(map[Collection]*model.SyncInfo),
		gen:          make(map[Collection]uint64),
		cacheOn:      opts.EnableLocalCache && opts.Cache != nil,
		pingInterval: opts.PingInterval,
	}
	for _, col := range collections() {
		s.info[col] = &model.SyncInfo{}
	}
	s.bus = event.NewBus(uuid.New().String(), transport, opts.Logger)
	return s
}

// Initialize restores cached snapshots, wires broadcast reconciliation and
// auth changes, and starts the connectivity watcher.
func (s *Store) Initialize(ctx context.Context) error {
	if s.cacheOn {
		s.restoreSnapshots(ctx)
	}

	s.transport.Subscribe(s.handleBroadcast)

	if s.session != nil {
		s.session.OnChange(s.handleAuthChange)
		if uid := s.session.Current(); uid != "" {
			s.mu.Lock()
			s.userID = uid
			s.mu.Unlock()
		}
	}

	if s.remote != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		s.connected.Store(s.remote.Ping(pingCtx) == nil)
		cancel()
	}

	if s.pingInterval > 0 && s.remote != nil {
		watchCtx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.wg.Add(1)
		go s.watchConnectivity(watchCtx)
	}
	return nil
}

// Shutdown stops background work and closes the broadcast transport.
func (s *Store) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	if err := s.transport.Close(); err != nil {
		s.log.Warn().Err(err).Msg("store: transport close failed")
	}
}

// Bus exposes the event bus for UI collaborators and the websocket feed.
func (s *Store) Bus() *event.Bus {
	return s.bus
}

// Subscribe registers a listener for one event kind.
func (s *Store) Subscribe(kind event.Kind, fn func(event.Event)) int {
	return s.bus.Subscribe(kind, fn)
}

// Unsubscribe removes a listener.
func (s *Store) Unsubscribe(kind event.Kind, id int) {
	s.bus.Unsubscribe(kind, id)
}

// CurrentUser returns the authenticated user id, or "".
func (s *Store) CurrentUser() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// IsConnected reports whether the remote store was reachable at the last
// check.
func (s *Store) IsConnected() bool {
	return s.connected.Load()
}

// SetConnected records a connectivity transition. Reconnecting triggers a
// full resync.
func (s *Store) SetConnected(connected bool) {
	prev := s.connected.Swap(connected)
	if prev == connected {
		return
	}

	s.log.Info().Bool("connected", connected).Msg("store: connectivity changed")
	s.bus.Emit(event.KindConnectionChanged, connected)

	if connected && s.CurrentUser() != "" {
		go s.SyncAll(context.Background())
	}
}

// GetSyncState returns a snapshot of per-collection and global sync
// bookkeeping.
func (s *Store) GetSyncState() model.SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncStateLocked()
}

func (s *Store) syncStateLocked() model.SyncState {
	state := model.SyncState{
		Connected:   s.connected.Load(),
		Global:      s.global,
		Collections: make(map[string]model.SyncInfo, len(s.info)),
	}
	for col, inf := range s.info {
		state.Collections[string(col)] = *inf
	}
	return state
}

// watchConnectivity pings the remote store on an interval and feeds
// transitions into SetConnected.
func (s *Store) watchConnectivity(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := s.remote.Ping(pingCtx)
			cancel()
			s.SetConnected(err == nil)
		}
	}
}

// handleAuthChange reacts to login and logout from the session.
func (s *Store) handleAuthChange(userID string) {
	if userID == "" {
		s.clearAll()
		if s.cacheOn {
			s.cache.Clear(context.Background())
		}
		s.log.Info().Msg("store: user logged out, state cleared")
		s.bus.Emit(event.KindUserLogout, nil)
		return
	}

	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()

	s.log.Info().Msg("store: user logged in")
	s.bus.Emit(event.KindUserLogin, userID)
	go s.SyncAll(context.Background())
}

// clearAll drops every in-memory collection and resets sync bookkeeping.
func (s *Store) clearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = ""
	s.notes = make(map[string]*model.Note)
	s.videos = make(map[string]*model.VideoWithNotes)
	s.chats = make(map[string]*model.Chat)
	s.words = make(map[string]*model.SavedWord)
	s.wordlists = make(map[string]*model.Wordlist)
	s.userData = nil
	for _, col := range collections() {
		s.info[col] = &model.SyncInfo{}
	}
	s.global = model.SyncInfo{}
}

// failWrite records a write failure on the collection's sync info. The
// caller returns the sentinel failure value; nothing propagates.
func (s *Store) failWrite(col Collection, op string, err error) {
	s.mu.Lock()
	s.info[col].Error = err.Error()
	s.mu.Unlock()
	s.log.Error().Err(err).Str("op", op).Msg("store: remote write failed")
}

// clearWriteError resets the collection error after a successful write.
func (s *Store) clearWriteError(col Collection) {
	s.mu.Lock()
	s.info[col].Error = ""
	s.mu.Unlock()
}

// readyForWrite returns the user id when a write can be attempted.
func (s *Store) readyForWrite() (string, bool) {
	uid := s.CurrentUser()
	if uid == "" {
		s.log.Warn().Msg("store: write rejected, no authenticated user")
		return "", false
	}
	if s.remote == nil {
		s.log.Warn().Msg("store: write rejected, no remote store configured")
		return "", false
	}
	return uid, true
}
