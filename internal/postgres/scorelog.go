package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/game-leaderboard/internal/config"
	"github.com/game-leaderboard/internal/domain"
)

// ScoreLog is the append-only store of score submissions. Rows are never
// updated in place; every ranking query re-derives its answer from the
// log contents at query time.
type ScoreLog struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewScoreLog creates a score log backed by a PostgreSQL pool
func NewScoreLog(cfg *config.PostgresConfig, logger *slog.Logger) (*ScoreLog, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &ScoreLog{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (l *ScoreLog) Close() {
	l.pool.Close()
}

// Pool returns the underlying connection pool
func (l *ScoreLog) Pool() *pgxpool.Pool {
	return l.pool
}

// RunMigrations executes database migrations. The two composite indexes
// cover every ranking primitive: (player_id, score) serves best-score
// lookups, (score DESC, submitted_at) serves the ordered leaderboard scan.
func (l *ScoreLog) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS submissions (
			id BIGSERIAL PRIMARY KEY,
			player_id VARCHAR(255) NOT NULL,
			score BIGINT NOT NULL,
			submitted_at BIGINT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_player_score ON submissions(player_id, score)`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_score_timestamp ON submissions(score DESC, submitted_at)`,
	}

	for _, migration := range migrations {
		_, err := l.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	l.logger.Info("database migrations completed")
	return nil
}

// Append inserts one immutable submission row and returns its id.
func (l *ScoreLog) Append(ctx context.Context, playerID string, score, submittedAt int64) (int64, error) {
	query := `
		INSERT INTO submissions (player_id, score, submitted_at, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := l.pool.QueryRow(ctx, query, playerID, score, submittedAt, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("appending submission: %w", err)
	}
	return id, nil
}

// MaxScoreFor returns the player's best score, or 0 if the player has
// no submissions.
func (l *ScoreLog) MaxScoreFor(ctx context.Context, playerID string) (int64, error) {
	query := `SELECT COALESCE(MAX(score), 0) FROM submissions WHERE player_id = $1`
	var max int64
	err := l.pool.QueryRow(ctx, query, playerID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("getting max score: %w", err)
	}
	return max, nil
}

// BestFor returns the player's best submission, or domain.ErrPlayerNotFound
// if the player has never submitted. When several submissions share the
// max score the returned row is whichever the index scan yields first.
func (l *ScoreLog) BestFor(ctx context.Context, playerID string) (*domain.BestScore, error) {
	query := `
		SELECT player_id, score, submitted_at
		FROM submissions
		WHERE player_id = $1
		ORDER BY score DESC
		LIMIT 1
	`
	var best domain.BestScore
	err := l.pool.QueryRow(ctx, query, playerID).Scan(&best.PlayerID, &best.Score, &best.Timestamp)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting best submission: %w", err)
	}
	return &best, nil
}

// DistinctPlayerCount returns the number of players with at least one
// submission.
func (l *ScoreLog) DistinctPlayerCount(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(DISTINCT player_id) FROM submissions`
	var count int64
	err := l.pool.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting players: %w", err)
	}
	return count, nil
}

// DistinctPlayersAbove counts players whose best score strictly exceeds
// the given score. A player's best exceeds x exactly when any of their
// submissions does, so the filter runs on raw rows.
func (l *ScoreLog) DistinctPlayersAbove(ctx context.Context, score int64) (int64, error) {
	query := `SELECT COUNT(DISTINCT player_id) FROM submissions WHERE score > $1`
	var count int64
	err := l.pool.QueryRow(ctx, query, score).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting players above score: %w", err)
	}
	return count, nil
}

// BestPerPlayerPage returns the total distinct player count and one
// best-submission row per player, ordered by score descending then
// submission timestamp ascending, windowed by limit/offset.
func (l *ScoreLog) BestPerPlayerPage(ctx context.Context, limit, offset int) (int64, []domain.BestScore, error) {
	total, err := l.DistinctPlayerCount(ctx)
	if err != nil {
		return 0, nil, err
	}

	query := `
		SELECT player_id, score, submitted_at FROM (
			SELECT DISTINCT ON (player_id) player_id, score, submitted_at
			FROM submissions
			ORDER BY player_id, score DESC
		) best
		ORDER BY score DESC, submitted_at ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := l.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return 0, nil, fmt.Errorf("querying best per player: %w", err)
	}
	defer rows.Close()

	var bests []domain.BestScore
	for rows.Next() {
		var best domain.BestScore
		if err := rows.Scan(&best.PlayerID, &best.Score, &best.Timestamp); err != nil {
			return 0, nil, fmt.Errorf("scanning best row: %w", err)
		}
		bests = append(bests, best)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("reading best rows: %w", err)
	}
	return total, bests, nil
}

// HasWildcard reports whether a player-id pattern contains SQL LIKE
// wildcards (% for any run of characters, _ for exactly one).
func HasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "%_")
}

// FindMatching returns all submissions whose player_id matches the
// pattern, exact or LIKE depending on wildcard presence, ordered for
// stable preview output. Maintenance-tool primitive, not used by the
// request-serving path.
func (l *ScoreLog) FindMatching(ctx context.Context, pattern string) ([]domain.Submission, error) {
	query := `
		SELECT id, player_id, score, submitted_at, created_at
		FROM submissions
		WHERE player_id = $1
		ORDER BY player_id, id
	`
	if HasWildcard(pattern) {
		query = `
			SELECT id, player_id, score, submitted_at, created_at
			FROM submissions
			WHERE player_id LIKE $1
			ORDER BY player_id, id
		`
	}

	rows, err := l.pool.Query(ctx, query, pattern)
	if err != nil {
		return nil, fmt.Errorf("finding matching submissions: %w", err)
	}
	defer rows.Close()

	var subs []domain.Submission
	for rows.Next() {
		var sub domain.Submission
		if err := rows.Scan(&sub.ID, &sub.PlayerID, &sub.Score, &sub.Timestamp, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading submissions: %w", err)
	}
	return subs, nil
}

// DeleteMatching removes all submissions whose player_id matches the
// pattern and returns the number of deleted rows.
func (l *ScoreLog) DeleteMatching(ctx context.Context, pattern string) (int64, error) {
	query := `DELETE FROM submissions WHERE player_id = $1`
	if HasWildcard(pattern) {
		query = `DELETE FROM submissions WHERE player_id LIKE $1`
	}

	result, err := l.pool.Exec(ctx, query, pattern)
	if err != nil {
		return 0, fmt.Errorf("deleting submissions: %w", err)
	}
	return result.RowsAffected(), nil
}
