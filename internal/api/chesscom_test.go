package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chess-crawler/internal/config"
)

func testClient(t *testing.T, baseURL string, cacheTTL time.Duration) *ChessClient {
	t.Helper()
	return NewChessClient(&config.Config{
		APIBaseURL:   baseURL,
		UserAgent:    "chess-crawler-test",
		CacheTTL:     cacheTTL,
		RequestDelay: 0,
	})
}

func TestProfileDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pub/player/hikaru", r.URL.Path)
		fmt.Fprint(w, `{
			"player_id": 15448422,
			"username": "hikaru",
			"name": "Hikaru Nakamura",
			"followers": 1200000,
			"country": "https://api.chess.com/pub/country/US",
			"joined": 1389043258,
			"last_online": 1700000000,
			"status": "premium",
			"is_streamer": true,
			"league": "Legend"
		}`)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL, 0)
	profile, err := client.Profile(context.Background(), "Hikaru")
	require.NoError(t, err)
	require.Equal(t, int64(15448422), profile.PlayerID)
	require.Equal(t, "hikaru", profile.Username)
	require.Equal(t, "premium", profile.Status)
	require.True(t, profile.IsStreamer)
}

func TestStatsControlLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pub/player/hikaru/stats", r.URL.Path)
		fmt.Fprint(w, `{
			"chess_blitz": {
				"last": {"rating": 3244, "date": 1700000000, "rd": 32},
				"best": {"rating": 3400, "date": 1650000000},
				"record": {"win": 4000, "loss": 900, "draw": 600}
			},
			"tactics": {
				"highest": {"rating": 4012, "date": 1600000000},
				"lowest": {"rating": 812, "date": 1400000000}
			},
			"puzzle_rush": {"best": {"total_attempts": 60, "score": 55}}
		}`)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL, 0)
	stats, err := client.Stats(context.Background(), "hikaru")
	require.NoError(t, err)

	blitz := stats.Control("chess_blitz")
	require.NotNil(t, blitz)
	require.Equal(t, 3244, blitz.Last.Rating)
	require.Equal(t, 4000, blitz.Record.Win)
	require.Nil(t, stats.Control("chess_daily"))

	require.NotNil(t, stats.Tactics)
	require.Equal(t, 4012, stats.Tactics.Highest.Rating)
	require.NotNil(t, stats.PuzzleRush)
	require.Equal(t, 55, stats.PuzzleRush.Best.Score)
}

func TestNotFoundIsPermanent(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL, 0)
	_, err := client.Profile(context.Background(), "ghost")
	require.Error(t, err)

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, http.StatusNotFound, fe.StatusCode)
	require.True(t, fe.Permanent)
	require.Equal(t, int64(1), hits.Load(), "permanent errors must not be retried")
}

func TestTransientErrorRetried(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"username": "hikaru"}`)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL, 0)
	profile, err := client.Profile(context.Background(), "hikaru")
	require.NoError(t, err)
	require.Equal(t, "hikaru", profile.Username)
	require.Equal(t, int64(3), hits.Load())
}

func TestCacheServesRepeatLookups(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"username": "hikaru"}`)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL, time.Minute)
	for range 3 {
		profile, err := client.Profile(context.Background(), "hikaru")
		require.NoError(t, err)
		require.Equal(t, "hikaru", profile.Username)
	}
	require.Equal(t, int64(1), hits.Load())
}

func TestArchivesAndMonthlyGames(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pub/player/hikaru/games/archives":
			fmt.Fprintf(w, `{"archives": ["%s/pub/player/hikaru/games/2024/01"]}`, srvURL)
		case "/pub/player/hikaru/games/2024/01":
			fmt.Fprint(w, `{"games": [
				{
					"end_time": 1704067200,
					"time_class": "blitz",
					"rated": true,
					"white": {"username": "Hikaru", "rating": 3244, "result": "win"},
					"black": {"username": "gothamchess", "rating": 2700, "result": "resigned"}
				}
			]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	client := testClient(t, srv.URL, 0)
	archives, err := client.Archives(context.Background(), "hikaru")
	require.NoError(t, err)
	require.Len(t, archives.Archives, 1)

	month, err := client.MonthlyGames(context.Background(), archives.Archives[0])
	require.NoError(t, err)
	require.Len(t, month.Games, 1)
	require.Equal(t, "blitz", month.Games[0].TimeClass)
	require.Equal(t, 3244, month.Games[0].White.Rating)
	require.Equal(t, "gothamchess", month.Games[0].Black.Username)
}

func TestPaceSpacesRequests(t *testing.T) {
	var stamps []time.Time
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stamps = append(stamps, time.Now())
		fmt.Fprint(w, `{"username": "hikaru"}`)
	}))
	defer srv.Close()

	client := NewChessClient(&config.Config{
		APIBaseURL:   srv.URL,
		UserAgent:    "chess-crawler-test",
		RequestDelay: 50 * time.Millisecond,
	})

	for i := range 3 {
		_, err := client.Profile(context.Background(), fmt.Sprintf("player%d", i))
		require.NoError(t, err)
	}

	require.Len(t, stamps, 3)
	for i := 1; i < len(stamps); i++ {
		require.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), 40*time.Millisecond)
	}
}
