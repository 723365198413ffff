// Command scrub deletes score submissions for the given player-id
// patterns. It is a maintenance tool operated against the store
// directly, not a service endpoint.
//
// Patterns without wildcards match exactly; % matches any run of
// characters and _ matches exactly one, SQL LIKE style:
//
//	scrub -config config.yaml player123 'test_%' '%_bot'
//
// Matching records are listed for review and nothing is deleted until
// the prompt is confirmed (or -yes is passed).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/game-leaderboard/internal/config"
	"github.com/game-leaderboard/internal/domain"
	"github.com/game-leaderboard/internal/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	skipConfirm := flag.Bool("yes", false, "Delete without asking for confirmation")
	verbose := flag.Bool("verbose", true, "Show individual matched records")
	flag.Parse()

	patterns := flag.Args()
	if len(patterns) == 0 {
		fmt.Fprintln(os.Stderr, "error: no player-id patterns given")
		fmt.Fprintf(os.Stderr, "usage: %s [-config path] [-yes] pattern [pattern...]\n", os.Args[0])
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading config: %v\n", err)
		os.Exit(1)
	}

	scoreLog, err := postgres.NewScoreLog(&cfg.Postgres, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer scoreLog.Close()

	ctx := context.Background()

	fmt.Printf("Patterns (%d):\n", len(patterns))
	for i, pattern := range patterns {
		kind := "exact"
		if postgres.HasWildcard(pattern) {
			kind = "wildcard"
		}
		fmt.Printf("  %d. %s (%s)\n", i+1, pattern, kind)
	}
	fmt.Println()

	matched, err := collectMatches(ctx, scoreLog, patterns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if len(matched) == 0 {
		fmt.Println("No matching records found.")
		return
	}

	fmt.Printf("Found %d matching record(s):\n", len(matched))
	printPreview(matched, *verbose)

	if !*skipConfirm {
		fmt.Printf("\nDelete these %d record(s)? (yes/no): ", len(matched))
		reader := bufio.NewReader(os.Stdin)
		answer, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: reading confirmation: %v\n", err)
			os.Exit(1)
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "yes" && answer != "y" {
			fmt.Println("Cancelled, nothing deleted.")
			return
		}
	}

	var deleted int64
	for _, pattern := range patterns {
		n, err := scoreLog.DeleteMatching(ctx, pattern)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: deleting %q: %v\n", pattern, err)
			os.Exit(1)
		}
		deleted += n
	}

	fmt.Printf("Deleted %d record(s).\n", deleted)
}

// collectMatches gathers matching submissions for all patterns,
// deduplicated by submission id so overlapping patterns do not inflate
// the preview count.
func collectMatches(ctx context.Context, scoreLog *postgres.ScoreLog, patterns []string) ([]domain.Submission, error) {
	seen := make(map[int64]bool)
	var matched []domain.Submission
	for _, pattern := range patterns {
		subs, err := scoreLog.FindMatching(ctx, pattern)
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", pattern, err)
		}
		for _, sub := range subs {
			if seen[sub.ID] {
				continue
			}
			seen[sub.ID] = true
			matched = append(matched, sub)
		}
	}
	return matched, nil
}

// printPreview prints per-player stats for the matched records. Long
// per-player record lists are elided to the first three and last two.
func printPreview(matched []domain.Submission, verbose bool) {
	byPlayer := make(map[string][]domain.Submission)
	for _, sub := range matched {
		byPlayer[sub.PlayerID] = append(byPlayer[sub.PlayerID], sub)
	}

	players := make([]string, 0, len(byPlayer))
	for playerID := range byPlayer {
		players = append(players, playerID)
	}
	sort.Strings(players)

	for _, playerID := range players {
		subs := byPlayer[playerID]
		best := subs[0].Score
		for _, sub := range subs {
			if sub.Score > best {
				best = sub.Score
			}
		}

		fmt.Printf("\nPlayer: %s\n", playerID)
		fmt.Printf("  Records:    %d\n", len(subs))
		fmt.Printf("  Best score: %d\n", best)

		if !verbose {
			continue
		}
		if len(subs) <= 5 {
			for _, sub := range subs {
				printRecord(sub)
			}
		} else {
			for _, sub := range subs[:3] {
				printRecord(sub)
			}
			fmt.Printf("    ... (%d more) ...\n", len(subs)-5)
			for _, sub := range subs[len(subs)-2:] {
				printRecord(sub)
			}
		}
	}
}

func printRecord(sub domain.Submission) {
	fmt.Printf("    - id:%d score:%d submitted_at:%d created:%s\n",
		sub.ID, sub.Score, sub.Timestamp, sub.CreatedAt.Format("2006-01-02 15:04:05"))
}
