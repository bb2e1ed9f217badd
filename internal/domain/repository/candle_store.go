package repository

import (
	"context"

	"CrashLens/internal/domain/models"
)

// CandleStore persists fetched daily candles and detected events for later
// scans and reporting.
type CandleStore interface {
	Init(ctx context.Context) error
	StoreCandles(ctx context.Context, symbol string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol string, fromDate, toDate string) ([]models.Candle, error)
	StoreEvents(ctx context.Context, symbol string, events []models.CrashEvent) error
	GetEvents(ctx context.Context, symbol string, limit int) ([]models.CrashEvent, error)
	Health(ctx context.Context) error
	Close() error
}
