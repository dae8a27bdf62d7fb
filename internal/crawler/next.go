package crawler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"chess-crawler/internal/domain"
)

// ErrQueueExhausted signals that a queue-driven walk has visited its whole
// list. The controller stops cleanly on it.
var ErrQueueExhausted = errors.New("identifier queue exhausted")

// Selector is the pick capability WalkPicker delegates to.
type Selector interface {
	Name() string
	Pick(ctx context.Context, snap *domain.Snapshot) (string, error)
}

// WalkPicker turns selector picks into walk successors, substituting a
// stored player whenever the pick would bounce straight back to the player
// just persisted. The stalled identifier never reaches the next fetch.
type WalkPicker struct {
	selector Selector
	history  History
	rng      *rand.Rand
	logger   zerolog.Logger
}

func NewWalkPicker(sel Selector, history History, logger zerolog.Logger) *WalkPicker {
	return &WalkPicker{
		selector: sel,
		history:  history,
		logger:   logger,
	}
}

func (p *WalkPicker) Name() string { return p.selector.Name() }

func (p *WalkPicker) Next(ctx context.Context, snap *domain.Snapshot, state *WalkState) (string, error) {
	next, err := p.selector.Pick(ctx, snap)
	if err != nil {
		return "", err
	}
	if state.LastPersisted == "" || !domain.SameIdentifier(next, state.LastPersisted) {
		return next, nil
	}

	stored, err := p.history.AllUsernames(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list stored players for stall substitute: %w", err)
	}

	pool := make([]string, 0, len(stored))
	for _, u := range stored {
		if !domain.SameIdentifier(u, next) {
			pool = append(pool, u)
		}
	}
	if len(pool) == 0 {
		return "", domain.ErrNoEligibleOpponent
	}

	substitute := pool[p.intn(len(pool))]
	p.logger.Debug().
		Str("stalled_on", next).
		Str("substitute", substitute).
		Msg("stall avoided with stored player")
	return substitute, nil
}

func (p *WalkPicker) intn(n int) int {
	if p.rng != nil {
		return p.rng.IntN(n)
	}
	return rand.IntN(n)
}

// QueuePicker walks a fixed list of identifiers in order, ignoring the
// snapshot entirely.
type QueuePicker struct {
	queue []string
}

func NewQueuePicker(identifiers []string) *QueuePicker {
	queue := make([]string, len(identifiers))
	copy(queue, identifiers)
	return &QueuePicker{queue: queue}
}

func (p *QueuePicker) Name() string { return "queue" }

func (p *QueuePicker) Next(context.Context, *domain.Snapshot, *WalkState) (string, error) {
	if len(p.queue) == 0 {
		return "", ErrQueueExhausted
	}
	next := p.queue[0]
	p.queue = p.queue[1:]
	return next, nil
}
