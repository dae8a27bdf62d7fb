package main

import (
	"context"
	"database/sql"
	"fmt"

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
	"chess-crawler/internal/selector"
)

var walkFlags struct {
	steps        int
	seed         string
	strategy     string
	control      string
	minGames     int
	switchRating int
	highRating   int
	lowRating    int
}

func init() {
	walkCmd.Flags().IntVar(&walkFlags.steps, "steps", constants.DefaultStepBudget, "number of players to visit")
	walkCmd.Flags().StringVar(&walkFlags.seed, "seed", "", "player to start from (default: resume from the newest stored player)")
	walkCmd.Flags().StringVar(&walkFlags.strategy, "selector", "random", "next-player strategy: random | highest | higher | lower | highest-until-switch | higher-lower")
	walkCmd.Flags().StringVar(&walkFlags.control, "control", string(domain.Rapid), "time control used for rating comparisons")
	walkCmd.Flags().IntVar(&walkFlags.minGames, "min-games", constants.DefaultMinGames, "store only players with more finished games than this")
	walkCmd.Flags().IntVar(&walkFlags.switchRating, "switch-rating", constants.DefaultSwitchRating, "rating above which highest-until-switch starts picking randomly")
	walkCmd.Flags().IntVar(&walkFlags.highRating, "high-rating", constants.DefaultHighRating, "rating above which higher-lower starts descending")
	walkCmd.Flags().IntVar(&walkFlags.lowRating, "low-rating", constants.DefaultLowRating, "rating below which higher-lower starts climbing again")
	rootCmd.AddCommand(walkCmd)
}

var walkCmd = &cobra.Command{
	Use:   "walk",
	Short: "Walk the opponent graph from a seed player, storing every eligible profile.",
	RunE: func(cmd *cobra.Command, args []string) error {
		control, ok := domain.ControlFromTimeClass(walkFlags.control)
		if !ok {
			return fmt.Errorf("unknown time control %q", walkFlags.control)
		}
		if walkFlags.steps < 1 {
			return fmt.Errorf("steps must be positive, got %d", walkFlags.steps)
		}
		switch walkFlags.strategy {
		case "random", "highest", "higher", "lower", "highest-until-switch", "higher-lower":
		default:
			return fmt.Errorf("unknown selector %q", walkFlags.strategy)
		}

		fx.New(
			fxmodules.Module,
			fx.Invoke(func(lc fx.Lifecycle, shutdowner fx.Shutdowner, db *sql.DB, cfg *config.Config, client *api.ChessClient, profiles *repository.ProfileRepository, runs *repository.RunRepository, logger zerolog.Logger) {
				opponents := fetch.NewOpponentsFetcher(client, cfg.MonthsBack, logger)
				pipeline := fetch.NewPipeline(logger, fetch.NewConcurrent(
					fetch.NewProfileFetcher(client, logger),
					fetch.NewStatsFetcher(client, logger),
					fetch.NewPuzzleFetcher(client, logger),
				))
				policy := eligibility.NewPolicy(logger,
					eligibility.NotAutomated{},
					eligibility.NotFlagged{},
					eligibility.MinGames{Control: control, Threshold: walkFlags.minGames},
				)
				sink := saver.NewPipeline(logger, saver.NewProfileSaver(profiles, logger))
				picker := crawler.NewWalkPicker(buildSelector(opponents, control, logger), profiles, logger)
				ctrl := crawler.NewController("walk", pipeline, policy, sink, picker, profiles, logger)

				launch(lc, shutdowner, db, logger, func(ctx context.Context) error {
					bar := newProgressBar(walkFlags.steps, "walking")
					ctrl.OnStep = func(step, budget int, username string) {
						_ = bar.Add(1)
					}
					summary, err := ctrl.Run(ctx, walkFlags.steps, walkFlags.seed)
					recordRun(runs, logger, summary, err)
					return err
				})
			}),
		).Run()
		return nil
	},
}

func buildSelector(opponents *fetch.OpponentsFetcher, control domain.TimeControl, logger zerolog.Logger) crawler.Selector {
	switch walkFlags.strategy {
	case "highest":
		return selector.NewHighestRated(opponents)
	case "higher":
		return selector.NewRandomHigherRated(opponents, control)
	case "lower":
		return selector.NewRandomLowerRated(opponents, control)
	case "highest-until-switch":
		return selector.NewHighestUntilSwitch(opponents, control, walkFlags.switchRating, logger)
	case "higher-lower":
		return selector.NewHigherLower(opponents, control, walkFlags.highRating, walkFlags.lowRating, logger)
	default:
		return selector.NewRandom(opponents)
	}
}
