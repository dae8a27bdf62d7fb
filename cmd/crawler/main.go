package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"chess-crawler/internal/constants"
	"chess-crawler/internal/crawler"
	"chess-crawler/internal/repository"
)

var rootCmd = &cobra.Command{
	Use:   "chess-crawler",
	Short: "chess-crawler collects public chess player profiles into a local SQLite database.",
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// launch hangs a finite job on the fx lifecycle: OnStart kicks it off in a
// goroutine, finishing shuts the app down with the job's exit code, OnStop
// interrupts a still-running job and closes the database.
func launch(lc fx.Lifecycle, shutdowner fx.Shutdowner, db *sql.DB, logger zerolog.Logger, job func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				code := 0
				if err := job(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error().Err(err).Msg("run failed")
					code = 1
				}
				shutdowner.Shutdown(fx.ExitCode(code))
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			select {
			case <-done:
			case <-time.After(constants.ShutdownTimeout):
				logger.Warn().Msg("shutdown timeout, abandoning run")
			}
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}
			return nil
		},
	})
}

// recordRun stores the run summary with a fresh context, since the run's own
// context may already be cancelled.
func recordRun(runs *repository.RunRepository, logger zerolog.Logger, summary *crawler.Summary, runErr error) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
	defer cancel()

	rec := &repository.RunRecord{
		RunUID:       summary.RunID,
		Mode:         summary.Mode,
		Selector:     summary.Picker,
		Seed:         summary.Seed,
		StepBudget:   summary.Budget,
		Steps:        summary.Steps,
		Persisted:    summary.Persisted,
		LastUsername: summary.LastVisited,
		StartedAt:    summary.StartedAt,
		FinishedAt:   summary.FinishedAt,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := runs.Record(ctx, rec); err != nil {
		logger.Warn().Err(err).Msg("failed to record crawl run")
	}
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stdout) }),
	)
}
