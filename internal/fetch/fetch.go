package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"chess-crawler/internal/api"
	"chess-crawler/internal/domain"
)

// Source is the slice of the platform API the fetchers need.
type Source interface {
	Profile(ctx context.Context, username string) (*api.PlayerResponse, error)
	Stats(ctx context.Context, username string) (*api.StatsResponse, error)
	Archives(ctx context.Context, username string) (*api.ArchivesResponse, error)
	MonthlyGames(ctx context.Context, archiveURL string) (*api.GamesResponse, error)
}

// Fetcher fills one slice of a snapshot from the platform API.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, snap *domain.Snapshot) error
}

// Pipeline runs fetchers in order against a fresh snapshot. A failing
// fetcher leaves its field unfetched and the pipeline moves on; downstream
// consumers see the gap as a MissingFieldError. Only context cancellation
// aborts the whole fetch.
type Pipeline struct {
	fetchers []Fetcher
	logger   zerolog.Logger
}

func NewPipeline(logger zerolog.Logger, fetchers ...Fetcher) *Pipeline {
	return &Pipeline{fetchers: fetchers, logger: logger}
}

func (p *Pipeline) Fetch(ctx context.Context, identifier string) (*domain.Snapshot, error) {
	snap := domain.NewSnapshot(identifier)

	for _, f := range p.fetchers {
		if err := f.Fetch(ctx, snap); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn().
				Err(err).
				Str("username", identifier).
				Str("fetcher", f.Name()).
				Msg("fetcher failed, field left unfetched")
		}
	}

	snap.FetchedAt = time.Now()
	return snap, nil
}

// Concurrent runs a group of fetchers in parallel as one pipeline stage.
// The grouped fetchers must write disjoint snapshot fields. A failing
// fetcher does not cancel its siblings; their fields still get filled.
type Concurrent struct {
	fetchers []Fetcher
}

func NewConcurrent(fetchers ...Fetcher) *Concurrent {
	return &Concurrent{fetchers: fetchers}
}

func (c *Concurrent) Name() string {
	names := make([]string, len(c.fetchers))
	for i, f := range c.fetchers {
		names[i] = f.Name()
	}
	return "concurrent(" + strings.Join(names, ",") + ")"
}

func (c *Concurrent) Fetch(ctx context.Context, snap *domain.Snapshot) error {
	g := new(errgroup.Group)
	for _, f := range c.fetchers {
		g.Go(func() error {
			if err := f.Fetch(ctx, snap); err != nil {
				return fmt.Errorf("%s: %w", f.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
