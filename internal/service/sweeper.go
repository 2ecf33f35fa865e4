package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"feudlive/internal/logging"
	"feudlive/internal/metrics"
	"feudlive/internal/store"
)

const (
	defaultSweepInterval = 10 * time.Minute
	defaultSessionTTL    = 6 * time.Hour
	sweepTimeout         = 5 * time.Second
)

// Sweeper removes sessions older than the TTL on an interval
type Sweeper struct {
	store       *store.SessionStore
	sessions    *SessionService
	broadcaster Broadcaster
	logger      *slog.Logger
	metrics     *metrics.Recorder
	interval    time.Duration
	ttl         time.Duration

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool
}

// NewSweeper constructs a Sweeper. sessions may be nil when no external
// state is held per session.
func NewSweeper(st *store.SessionStore, sessions *SessionService, b Broadcaster, logger *slog.Logger, recorder *metrics.Recorder, interval, ttl time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if b == nil {
		b = nopBroadcaster{}
	}
	return &Sweeper{
		store:       st,
		sessions:    sessions,
		broadcaster: b,
		logger:      logger,
		metrics:     recorder,
		interval:    interval,
		ttl:         ttl,
		done:        make(chan struct{}),
	}
}

// Start sweeps until the context is cancelled or Stop is called
func (w *Sweeper) Start(ctx context.Context) {
	w.startMu.Lock()
	if w.started {
		w.startMu.Unlock()
		return
	}
	w.started = true
	w.ticker = time.NewTicker(w.interval)
	w.startMu.Unlock()

	go func() {
		logging.Info(w.logger, "sweeper started", "interval", w.interval.String(), "ttl", w.ttl.String())
		for {
			select {
			case <-ctx.Done():
				w.stopTicker()
				logging.Info(w.logger, "sweeper stopped")
				return
			case <-w.done:
				w.stopTicker()
				logging.Info(w.logger, "sweeper stopped")
				return
			case <-w.ticker.C:
				w.SweepOnce(ctx)
			}
		}
	}()
}

// Stop halts the sweep loop
func (w *Sweeper) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.stopTicker()
	})
}

// SweepOnce removes expired sessions and returns their codes
func (w *Sweeper) SweepOnce(ctx context.Context) []string {
	removed := w.store.Sweep(w.ttl)
	for _, code := range removed {
		w.broadcaster.DisconnectSession(code)
		if w.sessions != nil {
			cctx, cancel := context.WithTimeout(ctx, sweepTimeout)
			w.sessions.Release(cctx, code)
			cancel()
		}
	}

	w.metrics.RecordSwept(len(removed))
	w.metrics.SetSessions(w.store.Count())
	if len(removed) > 0 {
		logging.Info(w.logger, "swept sessions", logging.FieldCount, len(removed))
	}
	return removed
}

func (w *Sweeper) stopTicker() {
	w.startMu.Lock()
	defer w.startMu.Unlock()
	if w.ticker != nil {
		w.ticker.Stop()
	}
}
