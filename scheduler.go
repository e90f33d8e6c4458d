package main

import (
	"context"
	"net/http"
	"time"
)

// This file implements the background refresh scheduler. One ticker
// periodically re-runs the recompute batch for every region, so displayed
// values track provider updates even when the timeline selection is idle.

type Scheduler struct {
	cfg      *apiConfig
	interval time.Duration
	ticker   *time.Ticker
	stop     chan struct{}

	// runBatch is indirected for tests.
	runBatch func(ctx context.Context)
}

func NewScheduler(cfg *apiConfig) *Scheduler {
	s := &Scheduler{
		cfg:      cfg,
		interval: cfg.refreshInterval,
		stop:     make(chan struct{}),
	}
	s.runBatch = func(ctx context.Context) {
		cfg.store.RecomputeAll(ctx)
	}
	return s
}

// Start launches the refresh loop in its own goroutine. The loop owns the
// ticker and exits when Stop is called.
func (s *Scheduler) Start() {
	s.ticker = time.NewTicker(s.interval)
	s.cfg.logger.Debug("scheduler started", "interval", s.interval)

	go func() {
		for {
			select {
			case <-s.ticker.C:
				s.cfg.logger.Debug("scheduled refresh starting")
				s.runBatch(context.Background())
			case <-s.stop:
				s.ticker.Stop()
				return
			}
		}
	}()
}

// Stop terminates the refresh loop.
func (s *Scheduler) Stop() {
	close(s.stop)
}

// handlerRunRefresh triggers an immediate refresh batch and resets the
// ticker so the next scheduled run starts a full interval from now.
// Registered only in dev mode.
// Example request: POST /dev/refresh
func (s *Scheduler) handlerRunRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.cfg.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
		return
	}
	if s.ticker != nil {
		s.ticker.Reset(s.interval)
	}
	go s.runBatch(context.Background())
	s.cfg.respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}
