package constants

import "time"

const (
	ResponseCacheTTL  = 10 * time.Minute
	RequestDelay      = 200 * time.Millisecond
	FetchMaxRetries   = 3
	FetchRetryBase    = 250 * time.Millisecond
	SeriesConcurrency = 4
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
)

const (
	DBMaxOpenConns    = 4
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultStepBudget   = 10
	DefaultMonthsBack   = 3
	DefaultMinGames     = 50
	DefaultSwitchRating = 2400
	DefaultHighRating   = 2400
	DefaultLowRating    = 600
)
