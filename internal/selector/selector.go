package selector

import (
	"context"
	"fmt"
	"math/rand/v2"

	"chess-crawler/internal/domain"
)

// OpponentSource fills the opponents field of a snapshot when a selector
// needs it and the fetch pipeline did not already populate it.
type OpponentSource interface {
	Opponents(ctx context.Context, username string) ([]domain.Opponent, error)
}

// Selector picks the next player to walk to, given the snapshot of the
// player just fetched.
type Selector interface {
	Name() string
	Pick(ctx context.Context, snap *domain.Snapshot) (string, error)
}

type base struct {
	source OpponentSource
	rng    *rand.Rand
}

func (b base) intn(n int) int {
	if b.rng != nil {
		return b.rng.IntN(n)
	}
	return rand.IntN(n)
}

// candidates returns the snapshot's opponents with bot accounts filtered
// out, populating the list from the source first if it was never fetched.
// Duplicates stay: a frequent opponent is a proportionally likely pick.
func (b base) candidates(ctx context.Context, snap *domain.Snapshot) ([]domain.Opponent, error) {
	if snap.Opponents == nil {
		opponents, err := b.source.Opponents(ctx, snap.Identifier)
		if err != nil {
			return nil, fmt.Errorf("failed to list opponents: %w", err)
		}
		snap.Opponents = opponents
	}

	humans := make([]domain.Opponent, 0, len(snap.Opponents))
	for _, o := range snap.Opponents {
		if !domain.IsAutomated(o.Username) {
			humans = append(humans, o)
		}
	}
	if len(humans) == 0 {
		return nil, domain.ErrNoEligibleOpponent
	}
	return humans, nil
}

// Random picks uniformly over all past human opponents.
type Random struct {
	base
}

func NewRandom(source OpponentSource) *Random {
	return &Random{base{source: source}}
}

func (s *Random) Name() string { return "random" }

func (s *Random) Pick(ctx context.Context, snap *domain.Snapshot) (string, error) {
	humans, err := s.candidates(ctx, snap)
	if err != nil {
		return "", err
	}
	return humans[s.intn(len(humans))].Username, nil
}

// HighestRated picks the opponent who held the highest rating in any game
// against the current player. Ties go to the earliest game.
type HighestRated struct {
	base
}

func NewHighestRated(source OpponentSource) *HighestRated {
	return &HighestRated{base{source: source}}
}

func (s *HighestRated) Name() string { return "highest_rated" }

func (s *HighestRated) Pick(ctx context.Context, snap *domain.Snapshot) (string, error) {
	humans, err := s.candidates(ctx, snap)
	if err != nil {
		return "", err
	}

	best := humans[0]
	for _, o := range humans[1:] {
		if o.Rating > best.Rating {
			best = o
		}
	}
	return best.Username, nil
}

// RandomHigherRated picks uniformly among opponents who outrated the current
// player in games of the reference control. With no such opponent it falls
// back to a uniform pick over all human opponents.
type RandomHigherRated struct {
	base
	control domain.TimeControl
}

func NewRandomHigherRated(source OpponentSource, control domain.TimeControl) *RandomHigherRated {
	return &RandomHigherRated{base: base{source: source}, control: control}
}

func (s *RandomHigherRated) Name() string { return "random_higher_rated" }

func (s *RandomHigherRated) Pick(ctx context.Context, snap *domain.Snapshot) (string, error) {
	return pickRelative(ctx, s.base, snap, s.control, func(opponent, mine int) bool {
		return opponent > mine
	})
}

// RandomLowerRated is the mirror of RandomHigherRated.
type RandomLowerRated struct {
	base
	control domain.TimeControl
}

func NewRandomLowerRated(source OpponentSource, control domain.TimeControl) *RandomLowerRated {
	return &RandomLowerRated{base: base{source: source}, control: control}
}

func (s *RandomLowerRated) Name() string { return "random_lower_rated" }

func (s *RandomLowerRated) Pick(ctx context.Context, snap *domain.Snapshot) (string, error) {
	return pickRelative(ctx, s.base, snap, s.control, func(opponent, mine int) bool {
		return opponent < mine
	})
}

func pickRelative(ctx context.Context, b base, snap *domain.Snapshot, control domain.TimeControl, keep func(opponent, mine int) bool) (string, error) {
	humans, err := b.candidates(ctx, snap)
	if err != nil {
		return "", err
	}

	mine, err := snap.CurrentRating(control)
	if err != nil {
		return "", err
	}

	// Ratings only compare within one control, so the filtered pool is
	// restricted to games of the reference control.
	pool := make([]domain.Opponent, 0, len(humans))
	for _, o := range humans {
		if o.Control == control && keep(o.Rating, mine) {
			pool = append(pool, o)
		}
	}
	if len(pool) == 0 {
		pool = humans
	}
	return pool[b.intn(len(pool))].Username, nil
}
