package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// RunRecord summarizes one finished crawl for later inspection.
type RunRecord struct {
	ID           string
	RunUID       string
	Mode         string
	Selector     string
	Seed         string
	StepBudget   int
	Steps        int
	Persisted    int
	LastUsername string
	StartedAt    time.Time
	FinishedAt   time.Time
	Error        string
}

type RunRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewRunRepository(sqlDB *sql.DB, logger zerolog.Logger) *RunRepository {
	return &RunRepository{
		db:     sqlDB,
		logger: logger,
	}
}

func (r *RunRepository) Record(ctx context.Context, rec *RunRecord) error {
	id := rec.ID
	if id == "" {
		var err error
		id, err = gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO crawl_runs (
			id, run_uid, mode, selector, seed, step_budget, steps, persisted,
			last_username, started_at, finished_at, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.RunUID, rec.Mode, rec.Selector, rec.Seed,
		rec.StepBudget, rec.Steps, rec.Persisted, rec.LastUsername,
		rec.StartedAt.Unix(), rec.FinishedAt.Unix(), rec.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert crawl run: %w", err)
	}

	r.logger.Debug().
		Str("run_uid", rec.RunUID).
		Str("mode", rec.Mode).
		Int("steps", rec.Steps).
		Msg("crawl run recorded")
	return nil
}
