package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"chess-crawler/internal/domain"
)

// ProfileRow is one persisted player snapshot. Rows are append-only: walking
// back to an already-stored player appends a fresh row, and row_id order is
// the crawl order.
type ProfileRow struct {
	RowID      int64
	Username   string
	PlayerID   int64
	Name       string
	Followers  int
	Country    string
	Joined     time.Time
	LastOnline time.Time
	Status     string
	IsStreamer bool
	League     string

	BulletRating int
	BulletGames  int
	BlitzRating  int
	BlitzGames   int
	RapidRating  int
	RapidGames   int
	DailyRating  int
	DailyGames   int

	TacticsHighest     int
	TacticsHighestAt   time.Time
	TacticsLowest      int
	TacticsLowestAt    time.Time
	PuzzleRushAttempts int
	PuzzleRushScore    int

	FetchedAt time.Time
}

type ProfileRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewProfileRepository(sqlDB *sql.DB, logger zerolog.Logger) *ProfileRepository {
	return &ProfileRepository{
		db:     sqlDB,
		logger: logger,
	}
}

func (r *ProfileRepository) Append(ctx context.Context, row *ProfileRow) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (
			username, player_id, name, followers, country, joined, last_online,
			status, is_streamer, league,
			bullet_rating, bullet_games, blitz_rating, blitz_games,
			rapid_rating, rapid_games, daily_rating, daily_games,
			tactics_highest, tactics_highest_at, tactics_lowest, tactics_lowest_at,
			puzzle_rush_attempts, puzzle_rush_score, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.Username, row.PlayerID, row.Name, row.Followers, row.Country,
		row.Joined.Unix(), row.LastOnline.Unix(),
		row.Status, row.IsStreamer, row.League,
		row.BulletRating, row.BulletGames, row.BlitzRating, row.BlitzGames,
		row.RapidRating, row.RapidGames, row.DailyRating, row.DailyGames,
		row.TacticsHighest, row.TacticsHighestAt.Unix(), row.TacticsLowest, row.TacticsLowestAt.Unix(),
		row.PuzzleRushAttempts, row.PuzzleRushScore, row.FetchedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile for %s: %w", row.Username, err)
	}

	r.logger.Debug().Str("username", row.Username).Msg("profile row appended")
	return nil
}

// MostRecentUsername returns the username of the newest stored row, i.e. the
// player an interrupted crawl stopped at. Returns domain.ErrNotFound on an
// empty table.
func (r *ProfileRepository) MostRecentUsername(ctx context.Context) (string, error) {
	var username string
	err := r.db.QueryRowContext(ctx,
		`SELECT username FROM profiles ORDER BY row_id DESC LIMIT 1`,
	).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query most recent profile: %w", err)
	}
	return username, nil
}

// AllUsernames returns every distinct stored username, crawl order preserved
// by first appearance.
func (r *ProfileRepository) AllUsernames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT username FROM profiles GROUP BY username ORDER BY MIN(row_id)`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query usernames: %w", err)
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		usernames = append(usernames, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate usernames: %w", err)
	}
	return usernames, nil
}

// DeleteDuplicates removes older rows of players stored more than once,
// keeping each player's newest row. Returns how many rows were removed.
func (r *ProfileRepository) DeleteDuplicates(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM profiles
		WHERE row_id NOT IN (
			SELECT MAX(row_id) FROM profiles GROUP BY lower(username)
		)`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete duplicate profiles: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted rows: %w", err)
	}

	r.logger.Info().Int64("removed", removed).Msg("duplicate profiles deleted")
	return removed, nil
}

func (r *ProfileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return n, nil
}
