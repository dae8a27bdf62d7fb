package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"chess-crawler/internal/api"
	"chess-crawler/internal/config"
	"chess-crawler/internal/constants"
	"chess-crawler/internal/crawler"
	"chess-crawler/internal/domain"
	"chess-crawler/internal/eligibility"
	"chess-crawler/internal/fetch"
	fxmodules "chess-crawler/internal/fx"
	"chess-crawler/internal/repository"
	"chess-crawler/internal/saver"
)

var listFlags struct {
	file  string
	steps int
}

func init() {
	listCmd.Flags().StringVar(&listFlags.file, "file", "", "read usernames from a file, one per line")
	listCmd.Flags().IntVar(&listFlags.steps, "steps", 0, "cap on players to fetch (default: the whole list)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list [usernames...]",
	Short: "Fetch a fixed list of players, storing profiles and rating series.",
	Long: `Fetch a fixed list of players, storing profiles and rating series.

Usernames come from the arguments and --file; with neither, every username
already stored in the profiles table is re-crawled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		usernames := append([]string(nil), args...)
		if listFlags.file != "" {
			fromFile, err := readUsernameFile(listFlags.file)
			if err != nil {
				return err
			}
			usernames = append(usernames, fromFile...)
		}

		fx.New(
			fxmodules.Module,
			fx.Invoke(func(lc fx.Lifecycle, shutdowner fx.Shutdowner, db *sql.DB, cfg *config.Config, client *api.ChessClient, profiles *repository.ProfileRepository, series *repository.SeriesRepository, runs *repository.RunRepository, logger zerolog.Logger) {
				pipeline := fetch.NewPipeline(logger,
					fetch.NewConcurrent(
						fetch.NewProfileFetcher(client, logger),
						fetch.NewStatsFetcher(client, logger),
						fetch.NewPuzzleFetcher(client, logger),
					),
					fetch.NewSeriesFetcher(client, domain.TimeControls(), cfg.MonthsBack, logger),
				)
				savers := []saver.Saver{saver.NewProfileSaver(profiles, logger)}
				for _, tc := range domain.TimeControls() {
					savers = append(savers, saver.NewSeriesSaver(tc, series, logger))
				}
				sink := saver.NewPipeline(logger, savers...)

				launch(lc, shutdowner, db, logger, func(ctx context.Context) error {
					if len(usernames) == 0 {
						stored, err := storedUsernames(ctx, profiles)
						if err != nil {
							return err
						}
						usernames = stored
					}

					budget := len(usernames)
					if listFlags.steps > 0 && listFlags.steps < budget {
						budget = listFlags.steps
					}
					seed, queue := usernames[0], usernames[1:]
					ctrl := crawler.NewController("list", pipeline, eligibility.NewPolicy(logger), sink, crawler.NewQueuePicker(queue), profiles, logger)

					bar := newProgressBar(budget, "fetching")
					ctrl.OnStep = func(step, budget int, username string) {
						_ = bar.Add(1)
					}
					summary, err := ctrl.Run(ctx, budget, seed)
					recordRun(runs, logger, summary, err)
					return err
				})
			}),
		).Run()
		return nil
	},
}

func storedUsernames(ctx context.Context, profiles *repository.ProfileRepository) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	stored, err := profiles.AllUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored usernames: %w", err)
	}
	if len(stored) == 0 {
		return nil, errors.New("nothing stored to re-crawl, pass usernames or --file")
	}
	return stored, nil
}

func readUsernameFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var usernames []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		usernames = append(usernames, line)
	}
	return usernames, nil
}
