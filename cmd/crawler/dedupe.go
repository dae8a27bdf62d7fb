package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"chess-crawler/internal/constants"
	fxmodules "chess-crawler/internal/fx"
	"chess-crawler/internal/repository"
)

func init() {
	rootCmd.AddCommand(dedupeCmd)
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Drop older duplicate profile rows, keeping each player's newest.",
	RunE: func(cmd *cobra.Command, args []string) error {
		fx.New(
			fxmodules.Module,
			fx.Invoke(func(lc fx.Lifecycle, shutdowner fx.Shutdowner, db *sql.DB, profiles *repository.ProfileRepository, logger zerolog.Logger) {
				launch(lc, shutdowner, db, logger, func(ctx context.Context) error {
					ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
					defer cancel()
					removed, err := profiles.DeleteDuplicates(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("removed %d duplicate rows\n", removed)
					return nil
				})
			}),
		).Run()
		return nil
	},
}
