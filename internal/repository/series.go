package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chess-crawler/internal/domain"
)

// Series tables are one per player per time control, named
// "<control>_<username>". Usernames from the platform only ever contain
// letters, digits, underscores and hyphens; anything else is rejected
// before it can reach a dynamic table name.
var validUsername = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type SeriesRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSeriesRepository(sqlDB *sql.DB, logger zerolog.Logger) *SeriesRepository {
	return &SeriesRepository{
		db:     sqlDB,
		logger: logger,
	}
}

// Replace stores a player's full rating series for one control, dropping
// whatever was there before. Each fetch sees the complete history window, so
// a full replace keeps the table consistent without merge logic.
func (r *SeriesRepository) Replace(ctx context.Context, tc domain.TimeControl, username string, points []domain.RatingPoint) error {
	table, err := seriesTable(tc, username)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			row_id INTEGER PRIMARY KEY AUTOINCREMENT,
			played_at INTEGER NOT NULL,
			rating INTEGER NOT NULL
		)`, table))
	if err != nil {
		return fmt.Errorf("failed to create series table %s: %w", table, err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, table)); err != nil {
		return fmt.Errorf("failed to clear series table %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (played_at, rating) VALUES (?, ?)`, table))
	if err != nil {
		return fmt.Errorf("failed to prepare series insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.At.Unix(), p.Rating); err != nil {
			return fmt.Errorf("failed to insert series point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit series replace: %w", err)
	}

	r.logger.Debug().
		Str("table", table).
		Int("points", len(points)).
		Msg("rating series replaced")
	return nil
}

// Points reads a stored series back in chronological order.
func (r *SeriesRepository) Points(ctx context.Context, tc domain.TimeControl, username string) ([]domain.RatingPoint, error) {
	table, err := seriesTable(tc, username)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT played_at, rating FROM %s ORDER BY played_at, row_id`, table))
	if err != nil {
		return nil, fmt.Errorf("failed to query series table %s: %w", table, err)
	}
	defer rows.Close()

	var points []domain.RatingPoint
	for rows.Next() {
		var playedAt int64
		var rating int
		if err := rows.Scan(&playedAt, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan series point: %w", err)
		}
		points = append(points, domain.RatingPoint{At: time.Unix(playedAt, 0).UTC(), Rating: rating})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate series points: %w", err)
	}
	return points, nil
}

func seriesTable(tc domain.TimeControl, username string) (string, error) {
	if !tc.Valid() {
		return "", fmt.Errorf("invalid time control %q", tc)
	}
	if !validUsername.MatchString(username) {
		return "", fmt.Errorf("invalid username %q for series table", username)
	}
	return fmt.Sprintf("%q", string(tc)+"_"+strings.ToLower(username)), nil
}
