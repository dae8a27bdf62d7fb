package saver

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"chess-crawler/internal/domain"
	"chess-crawler/internal/repository"
)

// Saver persists one aspect of a snapshot.
type Saver interface {
	Name() string
	Save(ctx context.Context, snap *domain.Snapshot) error
}

// Pipeline runs savers in order and stops at the first failure, so a write
// error is never silently swallowed.
type Pipeline struct {
	savers []Saver
	logger zerolog.Logger
}

func NewPipeline(logger zerolog.Logger, savers ...Saver) *Pipeline {
	return &Pipeline{savers: savers, logger: logger}
}

func (p *Pipeline) Save(ctx context.Context, snap *domain.Snapshot) error {
	for _, s := range p.savers {
		if err := s.Save(ctx, snap); err != nil {
			return fmt.Errorf("saver %s: %w", s.Name(), err)
		}
	}
	return nil
}

// ProfileStore is the append side of the profiles table.
type ProfileStore interface {
	Append(ctx context.Context, row *repository.ProfileRow) error
}

// SeriesStore is the replace side of the per-player series tables.
type SeriesStore interface {
	Replace(ctx context.Context, tc domain.TimeControl, username string, points []domain.RatingPoint) error
}

// ProfileSaver flattens a snapshot into one wide profiles row. It requires
// the profile, stats and puzzle fields; reading an unfetched field is a
// wiring bug and surfaces as a MissingFieldError.
type ProfileSaver struct {
	store  ProfileStore
	logger zerolog.Logger
}

func NewProfileSaver(store ProfileStore, logger zerolog.Logger) *ProfileSaver {
	return &ProfileSaver{store: store, logger: logger}
}

func (s *ProfileSaver) Name() string { return "profile" }

func (s *ProfileSaver) Save(ctx context.Context, snap *domain.Snapshot) error {
	profile, err := snap.Account()
	if err != nil {
		return err
	}
	puzzles, err := snap.PuzzleStats()
	if err != nil {
		return err
	}

	row := &repository.ProfileRow{
		Username:   profile.Username,
		PlayerID:   profile.PlayerID,
		Name:       profile.Name,
		Followers:  profile.Followers,
		Country:    profile.Country,
		Joined:     profile.Joined,
		LastOnline: profile.LastOnline,
		Status:     profile.Status,
		IsStreamer: profile.IsStreamer,
		League:     profile.League,

		TacticsHighest:     puzzles.HighestRating,
		TacticsHighestAt:   puzzles.HighestAt,
		TacticsLowest:      puzzles.LowestRating,
		TacticsLowestAt:    puzzles.LowestAt,
		PuzzleRushAttempts: puzzles.BestAttempts,
		PuzzleRushScore:    puzzles.BestScore,

		FetchedAt: snap.FetchedAt,
	}

	for _, tc := range domain.TimeControls() {
		rating, err := snap.CurrentRating(tc)
		if err != nil {
			return err
		}
		games, err := snap.GameCount(tc)
		if err != nil {
			return err
		}
		switch tc {
		case domain.Bullet:
			row.BulletRating, row.BulletGames = rating, games
		case domain.Blitz:
			row.BlitzRating, row.BlitzGames = rating, games
		case domain.Rapid:
			row.RapidRating, row.RapidGames = rating, games
		case domain.Daily:
			row.DailyRating, row.DailyGames = rating, games
		}
	}

	if err := s.store.Append(ctx, row); err != nil {
		return err
	}

	s.logger.Debug().Str("username", row.Username).Msg("profile saved")
	return nil
}

// SeriesSaver writes the rating history of one control to the player's
// series table.
type SeriesSaver struct {
	control domain.TimeControl
	store   SeriesStore
	logger  zerolog.Logger
}

func NewSeriesSaver(control domain.TimeControl, store SeriesStore, logger zerolog.Logger) *SeriesSaver {
	return &SeriesSaver{control: control, store: store, logger: logger}
}

func (s *SeriesSaver) Name() string {
	return "series_" + string(s.control)
}

func (s *SeriesSaver) Save(ctx context.Context, snap *domain.Snapshot) error {
	history, err := snap.RatingSeries(s.control)
	if err != nil {
		return err
	}
	return s.store.Replace(ctx, s.control, snap.Identifier, history.Points)
}
