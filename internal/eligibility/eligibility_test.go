package eligibility

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"chess-crawler/internal/domain"
)

type stubPredicate struct {
	name   string
	allow  bool
	err    error
	called *bool
}

func (s stubPredicate) Name() string { return s.name }

func (s stubPredicate) Allow(*domain.Snapshot) (bool, error) {
	if s.called != nil {
		*s.called = true
	}
	return s.allow, s.err
}

func snapWithGames(tc domain.TimeControl, wins int) *domain.Snapshot {
	snap := domain.NewSnapshot("alice")
	snap.Stats = &domain.Stats{Controls: map[domain.TimeControl]domain.ControlStats{
		tc: {Rating: 1500, Wins: wins},
	}}
	return snap
}

func TestEmptyPolicyAllows(t *testing.T) {
	p := NewPolicy(zerolog.Nop())
	ok, err := p.Allow(context.Background(), domain.NewSnapshot("alice"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPolicyShortCircuits(t *testing.T) {
	var secondCalled bool
	p := NewPolicy(zerolog.Nop(),
		stubPredicate{name: "first", allow: false},
		stubPredicate{name: "second", allow: true, called: &secondCalled},
	)

	ok, err := p.Allow(context.Background(), domain.NewSnapshot("alice"))
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, secondCalled, "rejection must stop evaluation")
}

func TestPolicyAllRequired(t *testing.T) {
	cases := []struct {
		name    string
		answers []bool
		want    bool
	}{
		{"all yes", []bool{true, true, true}, true},
		{"middle no", []bool{true, false, true}, false},
		{"last no", []bool{true, true, false}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			preds := make([]Predicate, len(tc.answers))
			for i, a := range tc.answers {
				preds[i] = stubPredicate{name: "p", allow: a}
			}
			ok, err := NewPolicy(zerolog.Nop(), preds...).Allow(context.Background(), domain.NewSnapshot("alice"))
			require.NoError(t, err)
			require.Equal(t, tc.want, ok)
		})
	}
}

func TestPolicyWrapsPredicateError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPolicy(zerolog.Nop(), stubPredicate{name: "broken", err: boom})

	_, err := p.Allow(context.Background(), domain.NewSnapshot("alice"))
	require.ErrorIs(t, err, boom)
	require.Contains(t, err.Error(), "broken")
}

func TestMinGamesStrictThreshold(t *testing.T) {
	pred := MinGames{Control: domain.Rapid, Threshold: 50}

	cases := []struct {
		games int
		want  bool
	}{
		{49, false},
		{50, false},
		{51, true},
	}
	for _, tc := range cases {
		ok, err := pred.Allow(snapWithGames(domain.Rapid, tc.games))
		require.NoError(t, err)
		require.Equal(t, tc.want, ok, "games=%d", tc.games)
	}
}

func TestMinGamesUnplayedControl(t *testing.T) {
	pred := MinGames{Control: domain.Daily, Threshold: 0}

	// Stats fetched, control absent: counts as zero games.
	ok, err := pred.Allow(snapWithGames(domain.Rapid, 100))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMinGamesMissingStats(t *testing.T) {
	pred := MinGames{Control: domain.Rapid, Threshold: 50}

	_, err := pred.Allow(domain.NewSnapshot("alice"))
	require.Error(t, err)
	require.True(t, domain.IsMissingField(err))
}

func TestNotFlagged(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{"basic", true},
		{"premium", true},
		{"mod", true},
		{"closed", false},
		{"closed:fair_play_violations", false},
		{"CLOSED", false},
	}
	for _, tc := range cases {
		snap := domain.NewSnapshot("alice")
		snap.Profile = &domain.Profile{Username: "alice", Status: tc.status}

		ok, err := NotFlagged{}.Allow(snap)
		require.NoError(t, err)
		require.Equal(t, tc.want, ok, tc.status)
	}
}

func TestNotFlaggedMissingProfile(t *testing.T) {
	_, err := NotFlagged{}.Allow(domain.NewSnapshot("alice"))
	require.True(t, domain.IsMissingField(err))
}

func TestNotAutomated(t *testing.T) {
	ok, err := NotAutomated{}.Allow(domain.NewSnapshot("komodo-bot"))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = NotAutomated{}.Allow(domain.NewSnapshot("alice"))
	require.NoError(t, err)
	require.True(t, ok)
}
