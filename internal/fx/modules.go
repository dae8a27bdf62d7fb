package fx

import (
	"chess-crawler/internal/api"
	"chess-crawler/internal/config"
	"chess-crawler/internal/database"
	"chess-crawler/internal/logger"
	"chess-crawler/internal/repository"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewProfileRepository),
	fx.Provide(repository.NewSeriesRepository),
	fx.Provide(repository.NewRunRepository),
	// api client
	fx.Provide(api.NewChessClient),
)
