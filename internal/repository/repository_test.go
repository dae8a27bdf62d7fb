package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"chess-crawler/internal/config"
	"chess-crawler/internal/database"
	"chess-crawler/internal/domain"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.New(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRow(username string) *ProfileRow {
	now := time.Unix(1700000000, 0).UTC()
	return &ProfileRow{
		Username:    username,
		PlayerID:    42,
		Name:        "Test Player",
		Followers:   10,
		Country:     "https://api.chess.com/pub/country/US",
		Joined:      now.AddDate(-4, 0, 0),
		LastOnline:  now,
		Status:      "basic",
		League:      "Crystal",
		BlitzRating: 1500,
		BlitzGames:  120,
		FetchedAt:   now,
	}
}

func TestProfileMostRecentUsername(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db, zerolog.Nop())
	ctx := context.Background()

	_, err := repo.MostRecentUsername(ctx)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.Append(ctx, sampleRow("alice")))
	require.NoError(t, repo.Append(ctx, sampleRow("bob")))

	latest, err := repo.MostRecentUsername(ctx)
	require.NoError(t, err)
	require.Equal(t, "bob", latest)
}

func TestProfileAllUsernames(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db, zerolog.Nop())
	ctx := context.Background()

	for _, u := range []string{"alice", "bob", "alice", "carol"} {
		require.NoError(t, repo.Append(ctx, sampleRow(u)))
	}

	usernames, err := repo.AllUsernames(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob", "carol"}, usernames)
}

func TestProfileDeleteDuplicates(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db, zerolog.Nop())
	ctx := context.Background()

	for _, u := range []string{"alice", "bob", "Alice", "alice"} {
		require.NoError(t, repo.Append(ctx, sampleRow(u)))
	}

	removed, err := repo.DeleteDuplicates(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	// The newest row per player survives.
	latest, err := repo.MostRecentUsername(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", latest)
}

func TestSeriesReplace(t *testing.T) {
	db := newTestDB(t)
	repo := NewSeriesRepository(db, zerolog.Nop())
	ctx := context.Background()

	first := []domain.RatingPoint{
		{At: time.Unix(1700000000, 0).UTC(), Rating: 1490},
		{At: time.Unix(1700003600, 0).UTC(), Rating: 1505},
	}
	require.NoError(t, repo.Replace(ctx, domain.Blitz, "Alice", first))

	points, err := repo.Points(ctx, domain.Blitz, "alice")
	require.NoError(t, err)
	require.Equal(t, first, points)

	second := []domain.RatingPoint{
		{At: time.Unix(1700007200, 0).UTC(), Rating: 1512},
	}
	require.NoError(t, repo.Replace(ctx, domain.Blitz, "alice", second))

	points, err = repo.Points(ctx, domain.Blitz, "alice")
	require.NoError(t, err)
	require.Equal(t, second, points, "replace drops the previous series")
}

func TestSeriesRejectsUnsafeUsername(t *testing.T) {
	db := newTestDB(t)
	repo := NewSeriesRepository(db, zerolog.Nop())

	err := repo.Replace(context.Background(), domain.Blitz, `x"; DROP TABLE profiles;--`, nil)
	require.Error(t, err)

	err = repo.Replace(context.Background(), "ultrabullet", "alice", nil)
	require.Error(t, err)
}

func TestRunRecord(t *testing.T) {
	db := newTestDB(t)
	repo := NewRunRepository(db, zerolog.Nop())
	ctx := context.Background()

	rec := &RunRecord{
		RunUID:       "4dc6a7f2-2f1e-4f5f-9a36-0f8e5a3d9b11",
		Mode:         "walk",
		Selector:     "random",
		Seed:         "alice",
		StepBudget:   10,
		Steps:        10,
		Persisted:    9,
		LastUsername: "carol",
		StartedAt:    time.Unix(1700000000, 0),
		FinishedAt:   time.Unix(1700000300, 0),
	}
	require.NoError(t, repo.Record(ctx, rec))

	var mode, seed string
	var steps int
	err := db.QueryRow(`SELECT mode, seed, steps FROM crawl_runs WHERE run_uid = ?`, rec.RunUID).
		Scan(&mode, &seed, &steps)
	require.NoError(t, err)
	require.Equal(t, "walk", mode)
	require.Equal(t, "alice", seed)
	require.Equal(t, 10, steps)
}
