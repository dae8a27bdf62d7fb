package fetch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"chess-crawler/internal/api"
	"chess-crawler/internal/constants"
	"chess-crawler/internal/domain"
)

type ProfileFetcher struct {
	source Source
	logger zerolog.Logger
}

func NewProfileFetcher(source Source, logger zerolog.Logger) *ProfileFetcher {
	return &ProfileFetcher{source: source, logger: logger}
}

func (f *ProfileFetcher) Name() string { return "profile" }

func (f *ProfileFetcher) Fetch(ctx context.Context, snap *domain.Snapshot) error {
	resp, err := f.source.Profile(ctx, snap.Identifier)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	snap.Profile = &domain.Profile{
		PlayerID:   resp.PlayerID,
		Username:   resp.Username,
		Name:       resp.Name,
		Country:    resp.Country,
		Joined:     time.Unix(resp.Joined, 0).UTC(),
		LastOnline: time.Unix(resp.LastOnline, 0).UTC(),
		Status:     resp.Status,
		League:     resp.League,
		Followers:  resp.Followers,
		IsStreamer: resp.IsStreamer,
	}
	return nil
}

type StatsFetcher struct {
	source Source
	logger zerolog.Logger
}

func NewStatsFetcher(source Source, logger zerolog.Logger) *StatsFetcher {
	return &StatsFetcher{source: source, logger: logger}
}

func (f *StatsFetcher) Name() string { return "stats" }

func (f *StatsFetcher) Fetch(ctx context.Context, snap *domain.Snapshot) error {
	resp, err := f.source.Stats(ctx, snap.Identifier)
	if err != nil {
		return fmt.Errorf("failed to fetch stats: %w", err)
	}

	controls := make(map[domain.TimeControl]domain.ControlStats)
	for _, tc := range domain.TimeControls() {
		block := resp.Control(tc.StatsKey())
		if block == nil {
			continue
		}
		controls[tc] = domain.ControlStats{
			Rating: block.Last.Rating,
			Wins:   block.Record.Win,
			Losses: block.Record.Loss,
			Draws:  block.Record.Draw,
		}
	}
	snap.Stats = &domain.Stats{Controls: controls}
	return nil
}

// PuzzleFetcher reads tactics and puzzle rush results. They live in the same
// stats payload the StatsFetcher reads; the response cache absorbs the
// second request.
type PuzzleFetcher struct {
	source Source
	logger zerolog.Logger
}

func NewPuzzleFetcher(source Source, logger zerolog.Logger) *PuzzleFetcher {
	return &PuzzleFetcher{source: source, logger: logger}
}

func (f *PuzzleFetcher) Name() string { return "puzzles" }

func (f *PuzzleFetcher) Fetch(ctx context.Context, snap *domain.Snapshot) error {
	resp, err := f.source.Stats(ctx, snap.Identifier)
	if err != nil {
		return fmt.Errorf("failed to fetch puzzle stats: %w", err)
	}

	puzzles := &domain.PuzzleHistory{}
	if resp.Tactics != nil {
		puzzles.HighestRating = resp.Tactics.Highest.Rating
		puzzles.HighestAt = time.Unix(resp.Tactics.Highest.Date, 0).UTC()
		puzzles.LowestRating = resp.Tactics.Lowest.Rating
		puzzles.LowestAt = time.Unix(resp.Tactics.Lowest.Date, 0).UTC()
	}
	if resp.PuzzleRush != nil {
		puzzles.BestAttempts = resp.PuzzleRush.Best.TotalAttempts
		puzzles.BestScore = resp.PuzzleRush.Best.Score
	}
	snap.Puzzles = puzzles
	return nil
}

// SeriesFetcher builds per-control rating histories from the most recent
// monthly game archives. One fetcher covers all its controls in a single
// archive pass.
type SeriesFetcher struct {
	source     Source
	controls   []domain.TimeControl
	monthsBack int
	logger     zerolog.Logger
}

func NewSeriesFetcher(source Source, controls []domain.TimeControl, monthsBack int, logger zerolog.Logger) *SeriesFetcher {
	return &SeriesFetcher{
		source:     source,
		controls:   controls,
		monthsBack: monthsBack,
		logger:     logger,
	}
}

func (f *SeriesFetcher) Name() string { return "rating_series" }

func (f *SeriesFetcher) Fetch(ctx context.Context, snap *domain.Snapshot) error {
	months, err := recentMonths(ctx, f.source, snap.Identifier, f.monthsBack)
	if err != nil {
		return err
	}

	wanted := make(map[domain.TimeControl]bool, len(f.controls))
	for _, tc := range f.controls {
		wanted[tc] = true
	}

	series := make(map[domain.TimeControl][]domain.RatingPoint)
	for _, month := range months {
		for _, game := range month.Games {
			tc, ok := domain.ControlFromTimeClass(game.TimeClass)
			if !ok || !wanted[tc] {
				continue
			}
			side, ok := sideOf(game, snap.Identifier)
			if !ok {
				continue
			}
			series[tc] = append(series[tc], domain.RatingPoint{
				At:     time.Unix(game.EndTime, 0).UTC(),
				Rating: side.Rating,
			})
		}
	}

	for _, tc := range f.controls {
		points := series[tc]
		sort.Slice(points, func(i, j int) bool {
			return points[i].At.Before(points[j].At)
		})
		snap.SetRatingSeries(tc, &domain.RatingHistory{Points: points})
	}

	f.logger.Debug().
		Str("username", snap.Identifier).
		Int("months", len(months)).
		Msg("rating series fetched")
	return nil
}

// OpponentsFetcher lists every adversary from the most recent monthly
// archives, duplicates included: a player faced three times is three times
// as likely under a random pick.
type OpponentsFetcher struct {
	source     Source
	monthsBack int
	logger     zerolog.Logger
}

func NewOpponentsFetcher(source Source, monthsBack int, logger zerolog.Logger) *OpponentsFetcher {
	return &OpponentsFetcher{
		source:     source,
		monthsBack: monthsBack,
		logger:     logger,
	}
}

func (f *OpponentsFetcher) Name() string { return "opponents" }

func (f *OpponentsFetcher) Fetch(ctx context.Context, snap *domain.Snapshot) error {
	opponents, err := f.Opponents(ctx, snap.Identifier)
	if err != nil {
		return err
	}
	snap.Opponents = opponents
	return nil
}

// Opponents fetches the opponent list directly, for callers that populate
// snapshots lazily.
func (f *OpponentsFetcher) Opponents(ctx context.Context, username string) ([]domain.Opponent, error) {
	months, err := recentMonths(ctx, f.source, username, f.monthsBack)
	if err != nil {
		return nil, err
	}

	opponents := []domain.Opponent{}
	for _, month := range months {
		for _, game := range month.Games {
			tc, ok := domain.ControlFromTimeClass(game.TimeClass)
			if !ok {
				continue
			}
			var other api.GameSide
			switch {
			case domain.SameIdentifier(game.White.Username, username):
				other = game.Black
			case domain.SameIdentifier(game.Black.Username, username):
				other = game.White
			default:
				continue
			}
			opponents = append(opponents, domain.Opponent{
				Username: other.Username,
				Rating:   other.Rating,
				Control:  tc,
			})
		}
	}

	f.logger.Debug().
		Str("username", username).
		Int("opponents", len(opponents)).
		Msg("opponents fetched")
	return opponents, nil
}

// recentMonths fetches the newest monthsBack monthly archives concurrently,
// preserving chronological order. Players with a shorter history get
// whatever months exist.
func recentMonths(ctx context.Context, source Source, username string, monthsBack int) ([]*api.GamesResponse, error) {
	archives, err := source.Archives(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch archives: %w", err)
	}

	urls := archives.Archives
	if monthsBack > 0 && len(urls) > monthsBack {
		urls = urls[len(urls)-monthsBack:]
	}

	months := make([]*api.GamesResponse, len(urls))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.SeriesConcurrency)
	for i, u := range urls {
		g.Go(func() error {
			month, err := source.MonthlyGames(gCtx, u)
			if err != nil {
				return fmt.Errorf("failed to fetch archive %s: %w", u, err)
			}
			months[i] = month
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return months, nil
}

func sideOf(game api.GameData, username string) (api.GameSide, bool) {
	switch {
	case domain.SameIdentifier(game.White.Username, username):
		return game.White, true
	case domain.SameIdentifier(game.Black.Username, username):
		return game.Black, true
	}
	return api.GameSide{}, false
}
