package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ResyncWorker periodically runs a full resync and corrects the derived
// user counters, catching drift from best-effort secondary writes and
// missed broadcasts.
type ResyncWorker struct {
	store    *Store
	interval time.Duration
	log      zerolog.Logger
}

func NewResyncWorker(store *Store, interval time.Duration, log zerolog.Logger) *ResyncWorker {
	return &ResyncWorker{store: store, interval: interval, log: log}
}

// Start blocks until ctx is cancelled, resyncing on every tick.
func (w *ResyncWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Info().Msg("resync worker disabled")
		return
	}
	w.log.Info().Dur("interval", w.interval).Msg("resync worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("resync worker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *ResyncWorker) tick(ctx context.Context) {
	if w.store.CurrentUser() == "" || !w.store.IsConnected() {
		return
	}

	start := time.Now()
	ok := w.store.SyncAll(ctx)
	if ok {
		w.store.RecomputeStats(ctx)
	}
	w.log.Debug().
		Bool("ok", ok).
		Dur("duration", time.Since(start)).
		Msg("resync tick")
}
