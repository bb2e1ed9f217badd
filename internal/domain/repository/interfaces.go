package repository

import (
	"context"

	"CrashLens/internal/domain/models"
)

// MarketData fetches daily candles from an upstream provider.
type MarketData interface {
	FetchDaily(ctx context.Context, symbol string, rng Range) ([]models.Candle, models.MarketMeta, error)
	FetchDailyBetween(ctx context.Context, symbol string, fromUnix, toUnix int64) ([]models.Candle, models.MarketMeta, error)
}

// EventPublisher pushes detected crash events to downstream consumers.
type EventPublisher interface {
	PublishEvents(ctx context.Context, symbol string, events []models.CrashEvent) error
	Close() error
}

// SettingsStore persists per-profile analysis overrides.
type SettingsStore interface {
	GetIndicatorPatch(ctx context.Context, profile string) (*models.IndicatorParamsPatch, error)
	SaveIndicatorPatch(ctx context.Context, profile string, patch *models.IndicatorParamsPatch) error
	GetBacktestPatch(ctx context.Context, profile string) (*models.BacktestParamsPatch, error)
	SaveBacktestPatch(ctx context.Context, profile string, patch *models.BacktestParamsPatch) error
}

// Metrics records operational counters for the analysis pipeline.
type Metrics interface {
	RecordFetch(symbol, source string)
	RecordEventsDetected(symbol string, count int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
