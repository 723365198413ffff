package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/game-leaderboard/internal/config"
	"github.com/game-leaderboard/internal/domain"
)

// LeaderboardReader serves leaderboard pages, populating the page cache
// as a side effect of a read.
type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, limit, offset int, timeRange domain.TimeRange) (*domain.LeaderboardPage, error)
}

// Warmer periodically re-reads the first leaderboard page so the hot
// path is usually a cache hit even right after a burst of submissions.
type Warmer struct {
	reader    LeaderboardReader
	config    *config.WarmerConfig
	pageLimit int
	logger    *slog.Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewWarmer creates a cache warmer for the first page of pageLimit rows
func NewWarmer(reader LeaderboardReader, cfg *config.WarmerConfig, pageLimit int, logger *slog.Logger) *Warmer {
	return &Warmer{
		reader:    reader,
		config:    cfg,
		pageLimit: pageLimit,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background warm loop
func (w *Warmer) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("cache warmer started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background warm loop
func (w *Warmer) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("cache warmer stopped")
	return nil
}

// run is the main worker loop
func (w *Warmer) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.warm(ctx)
		}
	}
}

// warm reads the first page through the service, refreshing the cache
func (w *Warmer) warm(ctx context.Context) {
	start := time.Now()
	page, err := w.reader.GetLeaderboard(ctx, w.pageLimit, 0, domain.TimeRangeAll)
	if err != nil {
		w.logger.Error("failed to warm leaderboard page", "error", err)
		return
	}

	w.logger.Debug("warmed first leaderboard page",
		"players", page.Total,
		"duration", time.Since(start),
	)
}

// IsRunning returns whether the warmer is currently running
func (w *Warmer) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce performs a single warm cycle (useful at startup)
func (w *Warmer) RunOnce(ctx context.Context) {
	w.warm(ctx)
}
