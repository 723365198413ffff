package domain

import (
	"fmt"
	"time"
)

// MaxPlayerIDLength is the longest player_id accepted anywhere in the system.
const MaxPlayerIDLength = 255

// TimeRange selects an aggregation window for ranking queries.
// Only all-time semantics are implemented; the other values are accepted
// for contract compatibility and ignored by every computation.
type TimeRange string

const (
	TimeRangeDaily   TimeRange = "daily"
	TimeRangeWeekly  TimeRange = "weekly"
	TimeRangeMonthly TimeRange = "monthly"
	TimeRangeAll     TimeRange = "all"
)

// Valid reports whether t is one of the accepted time range values.
func (t TimeRange) Valid() bool {
	switch t {
	case TimeRangeDaily, TimeRangeWeekly, TimeRangeMonthly, TimeRangeAll:
		return true
	}
	return false
}

// ScoreSubmit is a request to record one score for a player.
type ScoreSubmit struct {
	PlayerID  string `json:"player_id"`
	Score     int64  `json:"score"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Validate checks the submission against the ingestion constraints.
// A zero Timestamp is valid and means "use ingestion time".
func (s ScoreSubmit) Validate() error {
	if s.PlayerID == "" {
		return fmt.Errorf("%w: player_id must not be empty", ErrInvalidRequest)
	}
	if len(s.PlayerID) > MaxPlayerIDLength {
		return fmt.Errorf("%w: player_id exceeds %d characters", ErrInvalidRequest, MaxPlayerIDLength)
	}
	if s.Score < 0 {
		return fmt.Errorf("%w: score must not be negative", ErrInvalidRequest)
	}
	if s.Timestamp < 0 {
		return fmt.Errorf("%w: timestamp must not be negative", ErrInvalidRequest)
	}
	return nil
}

// SubmitResult is returned after a score submission is recorded.
type SubmitResult struct {
	Rank      int64 `json:"rank"`
	BestScore int64 `json:"best_score"`
}

// LeaderboardEntry is one row of a leaderboard page. Rank is positional:
// the 1-based position of the row within the full ordered view, so two
// players tied on score still receive distinct ranks.
type LeaderboardEntry struct {
	Rank      int64  `json:"rank"`
	PlayerID  string `json:"player_id"`
	Score     int64  `json:"score"`
	Timestamp int64  `json:"timestamp"`
}

// LeaderboardPage is a limit/offset window over the one-row-per-player
// leaderboard view. Total counts all distinct players, not page rows.
type LeaderboardPage struct {
	Total   int64              `json:"total"`
	Entries []LeaderboardEntry `json:"entries"`
}

// PlayerRank describes a single player's standing. Rank is competitive:
// 1 + the number of distinct players with a strictly greater best score,
// so tied players share a rank.
type PlayerRank struct {
	PlayerID     string `json:"player_id"`
	Rank         int64  `json:"rank"`
	Score        int64  `json:"score"`
	Timestamp    int64  `json:"timestamp"`
	TotalPlayers int64  `json:"total_players"`
}

// BestScore is a player's best submission as stored in the score log.
type BestScore struct {
	PlayerID  string
	Score     int64
	Timestamp int64
}

// Submission is a full score log row. Rows are immutable once written;
// ID orders them for audit purposes only and never participates in ranking.
type Submission struct {
	ID        int64
	PlayerID  string
	Score     int64
	Timestamp int64
	CreatedAt time.Time
}
