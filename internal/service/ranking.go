package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/game-leaderboard/internal/config"
	"github.com/game-leaderboard/internal/domain"
)

// ScoreLog is the append-only submission store the ranking engine reads
// and writes. Every query re-derives its answer from the log; no rank
// state is kept anywhere else.
type ScoreLog interface {
	Append(ctx context.Context, playerID string, score, submittedAt int64) (int64, error)
	MaxScoreFor(ctx context.Context, playerID string) (int64, error)
	BestFor(ctx context.Context, playerID string) (*domain.BestScore, error)
	DistinctPlayerCount(ctx context.Context) (int64, error)
	DistinctPlayersAbove(ctx context.Context, score int64) (int64, error)
	BestPerPlayerPage(ctx context.Context, limit, offset int) (int64, []domain.BestScore, error)
}

// PageCache caches rendered leaderboard pages. Purely an optimization:
// cache failures degrade to storage reads and never fail a request.
type PageCache interface {
	Bump(ctx context.Context) error
	GetPage(ctx context.Context, limit, offset int) (*domain.LeaderboardPage, bool, error)
	SetPage(ctx context.Context, limit, offset int, page *domain.LeaderboardPage) error
}

// Ranking answers ranking queries over the score log. It holds no
// cross-request mutable state of its own.
//
// Two rank definitions coexist deliberately: SubmitScore and
// GetPlayerRank report the competitive rank (tied best scores share a
// rank), while GetLeaderboard assigns contiguous positional ranks by
// page order (tied players get distinct ranks). Callers depend on both
// behaviors as-is.
type Ranking struct {
	log    ScoreLog
	cache  PageCache
	config *config.LeaderboardConfig
	logger *slog.Logger
}

// NewRanking creates a ranking engine over the given score log
func NewRanking(log ScoreLog, cfg *config.LeaderboardConfig, logger *slog.Logger) *Ranking {
	return &Ranking{
		log:    log,
		config: cfg,
		logger: logger,
	}
}

// SetCache attaches an optional leaderboard page cache
func (r *Ranking) SetCache(cache PageCache) {
	r.cache = cache
}

// SubmitScore appends one submission and reports the player's best score
// and competitive rank as derived from the log after the append. Under
// concurrent submissions the result reflects whatever had committed by
// the time each aggregate ran.
func (r *Ranking) SubmitScore(ctx context.Context, sub domain.ScoreSubmit) (*domain.SubmitResult, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	submittedAt := sub.Timestamp
	if submittedAt <= 0 {
		submittedAt = time.Now().Unix()
	}

	if _, err := r.log.Append(ctx, sub.PlayerID, sub.Score, submittedAt); err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Bump(ctx); err != nil {
			r.logger.Warn("failed to invalidate page cache", "error", err)
		}
	}

	bestScore, err := r.log.MaxScoreFor(ctx, sub.PlayerID)
	if err != nil {
		return nil, err
	}

	above, err := r.log.DistinctPlayersAbove(ctx, bestScore)
	if err != nil {
		return nil, err
	}

	return &domain.SubmitResult{
		Rank:      above + 1,
		BestScore: bestScore,
	}, nil
}

// SubmitBatch submits multiple scores, continuing past individual
// failures. Used by the Kafka ingestion path.
func (r *Ranking) SubmitBatch(ctx context.Context, subs []domain.ScoreSubmit) error {
	for _, sub := range subs {
		if _, err := r.SubmitScore(ctx, sub); err != nil {
			r.logger.Error("failed to submit score in batch",
				"player_id", sub.PlayerID,
				"error", err,
			)
		}
	}
	return nil
}

// GetLeaderboard returns one limit/offset page of the leaderboard:
// one row per player (their best submission), ordered score descending
// then timestamp ascending, with positional ranks offset+i+1.
func (r *Ranking) GetLeaderboard(ctx context.Context, limit, offset int, timeRange domain.TimeRange) (*domain.LeaderboardPage, error) {
	if err := r.validateQuery(limit, offset, timeRange); err != nil {
		return nil, err
	}

	if r.cache != nil {
		page, ok, err := r.cache.GetPage(ctx, limit, offset)
		if err != nil {
			r.logger.Warn("page cache read failed", "error", err)
		} else if ok {
			return page, nil
		}
	}

	total, bests, err := r.log.BestPerPlayerPage(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.LeaderboardEntry, 0, len(bests))
	for i, best := range bests {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:      int64(offset + i + 1),
			PlayerID:  best.PlayerID,
			Score:     best.Score,
			Timestamp: best.Timestamp,
		})
	}

	page := &domain.LeaderboardPage{
		Total:   total,
		Entries: entries,
	}

	if r.cache != nil {
		if err := r.cache.SetPage(ctx, limit, offset, page); err != nil {
			r.logger.Warn("page cache write failed", "error", err)
		}
	}

	return page, nil
}

// GetPlayerRank returns a player's competitive rank, best submission and
// the total player count, or domain.ErrPlayerNotFound for a player with
// no submissions.
func (r *Ranking) GetPlayerRank(ctx context.Context, playerID string, timeRange domain.TimeRange) (*domain.PlayerRank, error) {
	if playerID == "" {
		return nil, fmt.Errorf("%w: player_id must not be empty", domain.ErrInvalidRequest)
	}
	if len(playerID) > domain.MaxPlayerIDLength {
		return nil, fmt.Errorf("%w: player_id exceeds %d characters", domain.ErrInvalidRequest, domain.MaxPlayerIDLength)
	}
	if !timeRange.Valid() {
		return nil, fmt.Errorf("%w: time_range must be one of daily, weekly, monthly, all", domain.ErrInvalidRequest)
	}

	best, err := r.log.BestFor(ctx, playerID)
	if err != nil {
		return nil, err
	}

	above, err := r.log.DistinctPlayersAbove(ctx, best.Score)
	if err != nil {
		return nil, err
	}

	total, err := r.log.DistinctPlayerCount(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.PlayerRank{
		PlayerID:     playerID,
		Rank:         above + 1,
		Score:        best.Score,
		Timestamp:    best.Timestamp,
		TotalPlayers: total,
	}, nil
}

func (r *Ranking) validateQuery(limit, offset int, timeRange domain.TimeRange) error {
	if limit < 1 || limit > r.config.MaxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidRequest, r.config.MaxLimit)
	}
	if offset < 0 {
		return fmt.Errorf("%w: offset must not be negative", domain.ErrInvalidRequest)
	}
	if !timeRange.Valid() {
		return fmt.Errorf("%w: time_range must be one of daily, weekly, monthly, all", domain.ErrInvalidRequest)
	}
	return nil
}
