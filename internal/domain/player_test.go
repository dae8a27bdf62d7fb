package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSnapshotMissingFields(t *testing.T) {
	snap := NewSnapshot("hikaru")

	_, err := snap.Account()
	require.Error(t, err)
	require.True(t, IsMissingField(err))

	_, err = snap.CurrentRating(Blitz)
	require.True(t, IsMissingField(err))

	_, err = snap.GameCount(Rapid)
	require.True(t, IsMissingField(err))

	_, err = snap.RatingSeries(Bullet)
	require.True(t, IsMissingField(err))

	_, err = snap.PuzzleStats()
	require.True(t, IsMissingField(err))

	_, err = snap.PastOpponents()
	require.True(t, IsMissingField(err))
}

func TestSnapshotFetchedButAbsentControl(t *testing.T) {
	snap := NewSnapshot("hikaru")
	snap.Stats = &Stats{Controls: map[TimeControl]ControlStats{
		Blitz: {Rating: 3200, Wins: 4000, Losses: 900, Draws: 600},
	}}

	rating, err := snap.CurrentRating(Daily)
	require.NoError(t, err)
	require.Equal(t, 0, rating)

	count, err := snap.GameCount(Daily)
	require.NoError(t, err)
	require.Equal(t, 0, count)

	rating, err = snap.CurrentRating(Blitz)
	require.NoError(t, err)
	require.Equal(t, 3200, rating)

	count, err = snap.GameCount(Blitz)
	require.NoError(t, err)
	require.Equal(t, 5500, count)
}

func TestSnapshotFetchedEmptyOpponents(t *testing.T) {
	snap := NewSnapshot("newplayer")
	snap.Opponents = []Opponent{}

	opps, err := snap.PastOpponents()
	require.NoError(t, err)
	require.Empty(t, opps)
}

func TestSnapshotRatingSeriesPerControl(t *testing.T) {
	snap := NewSnapshot("hikaru")
	snap.SetRatingSeries(Blitz, &RatingHistory{Points: []RatingPoint{
		{At: time.Unix(1700000000, 0), Rating: 3150},
	}})

	h, err := snap.RatingSeries(Blitz)
	require.NoError(t, err)
	require.Len(t, h.Points, 1)

	_, err = snap.RatingSeries(Rapid)
	require.True(t, IsMissingField(err))
}

func TestSameIdentifier(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"Hikaru", "hikaru", true},
		{"HIKARU", "hikaru", true},
		{"hikaru", "hikaru", true},
		{"hikaru", "gothamchess", false},
		{"", "", true},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, SameIdentifier(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
	}
}

func TestIsAutomated(t *testing.T) {
	cases := []struct {
		username string
		want     bool
	}{
		{"komodo-bot", true},
		{"Stockfish-Bot", true},
		{"coach-BOT-3000", true},
		{"Abbot", false},
		{"Talbot", false},
		{"botvinnik", false},
		{"hikaru", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, IsAutomated(tc.username), tc.username)
	}
}

func TestIsIdentifier(t *testing.T) {
	snap := NewSnapshot("Hikaru")
	require.True(t, snap.Is("hikaru"))
	require.False(t, snap.Is("gothamchess"))
}
