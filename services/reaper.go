package services

import (
	"context"
	"sync"
	"time"

	"venuepulse/utils"
)

// Reaper periodically prunes the active-session index of entries whose
// backing records already expired, so the active list stays honest even when
// clients disappear without ending their sessions.
type Reaper struct {
	store    SessionStore
	logger   *utils.Logger
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReaper(store SessionStore, logger *utils.Logger, interval time.Duration) *Reaper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Reaper{
		store:    store,
		logger:   logger,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the pruning loop.
func (r *Reaper) Start() {
	r.logger.Info("Starting session reaper", "interval", r.interval.String())
	r.wg.Add(1)
	go r.run()
}

// Stop gracefully shuts the reaper down.
func (r *Reaper) Stop() {
	r.cancel()
	r.wg.Wait()
	r.logger.Info("Session reaper stopped")
}

func (r *Reaper) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			pruned, err := r.store.PruneExpired(r.ctx)
			if err != nil {
				r.logger.Error("Failed to prune expired sessions", "error", err)
				continue
			}
			if pruned > 0 {
				r.logger.Info("Pruned expired sessions", "count", pruned)
			}
		}
	}
}
