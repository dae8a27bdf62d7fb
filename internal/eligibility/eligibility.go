package eligibility

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"chess-crawler/internal/domain"
)

// Predicate decides whether a fetched player is worth persisting.
type Predicate interface {
	Name() string
	Allow(snap *domain.Snapshot) (bool, error)
}

// Policy runs predicates in order and rejects on the first no. An empty
// policy accepts everything.
type Policy struct {
	predicates []Predicate
	logger     zerolog.Logger
}

func NewPolicy(logger zerolog.Logger, predicates ...Predicate) *Policy {
	return &Policy{predicates: predicates, logger: logger}
}

func (p *Policy) Allow(ctx context.Context, snap *domain.Snapshot) (bool, error) {
	for _, pred := range p.predicates {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		ok, err := pred.Allow(snap)
		if err != nil {
			return false, fmt.Errorf("predicate %s: %w", pred.Name(), err)
		}
		if !ok {
			p.logger.Debug().
				Str("username", snap.Identifier).
				Str("predicate", pred.Name()).
				Msg("player rejected")
			return false, nil
		}
	}
	return true, nil
}

// MinGames requires a minimum number of finished games in one control.
type MinGames struct {
	Control   domain.TimeControl
	Threshold int
}

func (m MinGames) Name() string {
	return fmt.Sprintf("min_games(%s>%d)", m.Control, m.Threshold)
}

func (m MinGames) Allow(snap *domain.Snapshot) (bool, error) {
	count, err := snap.GameCount(m.Control)
	if err != nil {
		return false, err
	}
	return count > m.Threshold, nil
}

// NotFlagged rejects accounts the platform has closed, including those
// flagged for fair-play violations.
type NotFlagged struct{}

func (NotFlagged) Name() string { return "not_flagged" }

func (NotFlagged) Allow(snap *domain.Snapshot) (bool, error) {
	profile, err := snap.Account()
	if err != nil {
		return false, err
	}
	return !strings.Contains(strings.ToLower(profile.Status), "closed"), nil
}

// NotAutomated rejects platform bot accounts.
type NotAutomated struct{}

func (NotAutomated) Name() string { return "not_automated" }

func (NotAutomated) Allow(snap *domain.Snapshot) (bool, error) {
	return !domain.IsAutomated(snap.Identifier), nil
}
