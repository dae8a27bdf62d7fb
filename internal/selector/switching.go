package selector

import (
	"context"

	"github.com/rs/zerolog"

	"chess-crawler/internal/domain"
)

// HighestUntilSwitch climbs the rating ladder by always walking to the
// strongest past opponent, then permanently falls back to random picks once
// the walk reaches a player rated above the switch threshold. The climb
// would otherwise get stuck cycling among the same top players.
type HighestUntilSwitch struct {
	control      domain.TimeControl
	switchRating int
	switched     bool
	highest      *HighestRated
	random       *Random
	logger       zerolog.Logger
}

func NewHighestUntilSwitch(source OpponentSource, control domain.TimeControl, switchRating int, logger zerolog.Logger) *HighestUntilSwitch {
	return &HighestUntilSwitch{
		control:      control,
		switchRating: switchRating,
		highest:      NewHighestRated(source),
		random:       NewRandom(source),
		logger:       logger,
	}
}

func (s *HighestUntilSwitch) Name() string { return "highest_until_switch" }

func (s *HighestUntilSwitch) Pick(ctx context.Context, snap *domain.Snapshot) (string, error) {
	if !s.switched {
		rating, err := snap.CurrentRating(s.control)
		if err != nil {
			return "", err
		}
		if rating > s.switchRating {
			s.switched = true
			s.logger.Info().
				Str("username", snap.Identifier).
				Int("rating", rating).
				Int("switch_rating", s.switchRating).
				Msg("switch threshold crossed, picking randomly from here on")
		}
	}

	if s.switched {
		return s.random.Pick(ctx, snap)
	}
	return s.highest.Pick(ctx, snap)
}

// HigherLower oscillates across the rating pool: it walks toward
// higher-rated opponents until the current player tops the high threshold,
// then toward lower-rated ones until the walk drops under the low threshold,
// and so on. The regime is re-evaluated against the fresh rating on every
// pick, before the pick is made.
type HigherLower struct {
	control domain.TimeControl
	high    int
	low     int
	rising  bool
	higher  *RandomHigherRated
	lower   *RandomLowerRated
	logger  zerolog.Logger
}

func NewHigherLower(source OpponentSource, control domain.TimeControl, high, low int, logger zerolog.Logger) *HigherLower {
	return &HigherLower{
		control: control,
		high:    high,
		low:     low,
		rising:  true,
		higher:  NewRandomHigherRated(source, control),
		lower:   NewRandomLowerRated(source, control),
		logger:  logger,
	}
}

func (s *HigherLower) Name() string { return "higher_lower" }

func (s *HigherLower) Pick(ctx context.Context, snap *domain.Snapshot) (string, error) {
	rating, err := snap.CurrentRating(s.control)
	if err != nil {
		return "", err
	}

	switch {
	case s.rising && rating > s.high:
		s.rising = false
		s.logger.Info().
			Str("username", snap.Identifier).
			Int("rating", rating).
			Int("high", s.high).
			Msg("high threshold crossed, descending")
	case !s.rising && rating < s.low:
		s.rising = true
		s.logger.Info().
			Str("username", snap.Identifier).
			Int("rating", rating).
			Int("low", s.low).
			Msg("low threshold crossed, climbing")
	}

	if s.rising {
		return s.higher.Pick(ctx, snap)
	}
	return s.lower.Pick(ctx, snap)
}
