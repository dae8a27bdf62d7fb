package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chess-crawler/internal/domain"
)

// SnapshotFetcher assembles a full snapshot for one player.
type SnapshotFetcher interface {
	Fetch(ctx context.Context, identifier string) (*domain.Snapshot, error)
}

// Policy decides whether a fetched snapshot gets persisted.
type Policy interface {
	Allow(ctx context.Context, snap *domain.Snapshot) (bool, error)
}

// Saver persists a snapshot.
type Saver interface {
	Save(ctx context.Context, snap *domain.Snapshot) error
}

// NextPicker computes the player a completed step hands over to.
type NextPicker interface {
	Name() string
	Next(ctx context.Context, snap *domain.Snapshot, state *WalkState) (string, error)
}

// History is the read side of the persistence sink the controller needs for
// seeding and stall substitutes.
type History interface {
	MostRecentUsername(ctx context.Context) (string, error)
	AllUsernames(ctx context.Context) ([]string, error)
}

// WalkState is the mutable per-run cursor. LastPersisted only moves on a
// successful persist.
type WalkState struct {
	Current       string
	LastPersisted string
}

// Summary describes one finished (or aborted) run.
type Summary struct {
	RunID       string
	Mode        string
	Picker      string
	Seed        string
	Budget      int
	Steps       int
	Persisted   int
	LastVisited string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Controller drives the walk: fetch the current player, check eligibility,
// persist if allowed, pick a successor, repeat. One logical worker; steps
// never overlap.
type Controller struct {
	mode    string
	fetcher SnapshotFetcher
	policy  Policy
	saver   Saver
	picker  NextPicker
	history History
	logger  zerolog.Logger

	// OnStep, when set, is called after each completed fetch cycle.
	OnStep func(step, budget int, username string)
}

func NewController(mode string, fetcher SnapshotFetcher, policy Policy, saver Saver, picker NextPicker, history History, logger zerolog.Logger) *Controller {
	return &Controller{
		mode:    mode,
		fetcher: fetcher,
		policy:  policy,
		saver:   saver,
		picker:  picker,
		history: history,
		logger:  logger,
	}
}

// Run performs exactly budget fetch cycles starting from seed, or from a
// pick off the most recently stored player when seed is empty. How many
// cycles end in a persisted row depends on the eligibility policy; the cycle
// count does not. The returned summary is valid even when Run errors.
func (c *Controller) Run(ctx context.Context, budget int, seed string) (*Summary, error) {
	runID := uuid.NewString()
	log := c.logger.With().Str("run_id", runID).Str("mode", c.mode).Logger()

	summary := &Summary{
		RunID:     runID,
		Mode:      c.mode,
		Picker:    c.picker.Name(),
		Budget:    budget,
		StartedAt: time.Now(),
	}
	defer func() { summary.FinishedAt = time.Now() }()

	state := &WalkState{}
	current := seed
	if current == "" {
		resumed, err := c.resume(ctx, state, log)
		if err != nil {
			return summary, err
		}
		current = resumed
	}
	summary.Seed = current

	log.Info().
		Str("seed", current).
		Int("budget", budget).
		Str("picker", c.picker.Name()).
		Msg("walk starting")

	for step := 1; step <= budget; step++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		state.Current = current

		snap, err := c.fetcher.Fetch(ctx, current)
		if err != nil {
			return summary, fmt.Errorf("failed to fetch %s: %w", current, err)
		}
		summary.Steps++
		summary.LastVisited = current

		allowed, err := c.policy.Allow(ctx, snap)
		if err != nil {
			return summary, fmt.Errorf("eligibility check for %s: %w", current, err)
		}
		if allowed {
			if err := c.saver.Save(ctx, snap); err != nil {
				return summary, fmt.Errorf("failed to persist %s: %w", current, err)
			}
			summary.Persisted++
			state.LastPersisted = current
			log.Debug().Str("username", current).Int("step", step).Msg("player persisted")
		} else {
			log.Info().Str("username", current).Int("step", step).Msg("player skipped")
		}

		if c.OnStep != nil {
			c.OnStep(step, budget, current)
		}

		next, err := c.picker.Next(ctx, snap, state)
		if errors.Is(err, ErrQueueExhausted) {
			log.Info().Int("steps", summary.Steps).Msg("queue exhausted, stopping")
			return summary, nil
		}
		if err != nil {
			return summary, fmt.Errorf("failed to pick successor of %s: %w", current, err)
		}
		current = next
	}

	log.Info().
		Int("steps", summary.Steps).
		Int("persisted", summary.Persisted).
		Msg("walk finished")
	return summary, nil
}

// resume turns the most recently stored player into a starting identifier by
// running the picker once on their fresh snapshot. The stored player was
// already visited, so the walk starts at their pick, never at them.
func (c *Controller) resume(ctx context.Context, state *WalkState, log zerolog.Logger) (string, error) {
	latest, err := c.history.MostRecentUsername(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return "", errors.New("nothing stored to resume from, provide a seed player")
	}
	if err != nil {
		return "", fmt.Errorf("failed to find resume point: %w", err)
	}

	snap, err := c.fetcher.Fetch(ctx, latest)
	if err != nil {
		return "", fmt.Errorf("failed to fetch resume point %s: %w", latest, err)
	}

	state.LastPersisted = latest
	next, err := c.picker.Next(ctx, snap, state)
	if err != nil {
		return "", fmt.Errorf("failed to pick from resume point %s: %w", latest, err)
	}

	log.Info().Str("resume_point", latest).Str("start", next).Msg("resuming stored walk")
	return next, nil
}
