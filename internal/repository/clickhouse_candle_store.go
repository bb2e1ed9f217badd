package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"CrashLens/internal/domain/models"
	drepo "CrashLens/internal/domain/repository"
	pkgch "CrashLens/pkg/clickhouse"
	applogger "CrashLens/pkg/logger"
)

const (
	candleTable = "crashlens.daily_candles"
	eventTable  = "crashlens.crash_events"
)

// CHCandleStore implements CandleStore backed by ClickHouse.
type CHCandleStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHCandleStore(ch *pkgch.Client) drepo.CandleStore {
	return &CHCandleStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHCandleStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHCandleStore) Init(ctx context.Context) error {
	ddl := []string{
		`CREATE DATABASE IF NOT EXISTS crashlens`,
		fmt.Sprintf(`
            CREATE TABLE IF NOT EXISTS %s (
                symbol LowCardinality(String),
                date   Date,
                open   Float64,
                high   Float64,
                low    Float64,
                close  Float64,
                vol    Float64
            ) ENGINE = ReplacingMergeTree()
            ORDER BY (symbol, date)
        `, candleTable),
		fmt.Sprintf(`
            CREATE TABLE IF NOT EXISTS %s (
                symbol      LowCardinality(String),
                date        Date,
                idx         Int32,
                crash_score Nullable(Float64),
                severity    Float64,
                signals     String,
                metrics     String
            ) ENGINE = ReplacingMergeTree()
            ORDER BY (symbol, date)
        `, eventTable),
	}
	for _, q := range ddl {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("clickhouse init: %w", err)
		}
	}
	return nil
}

func (s *CHCandleStore) StoreCandles(ctx context.Context, symbol string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	start := time.Now()

	// Chunked multi-row inserts to bound statement size.
	const chunkSize = 2000
	for lo := 0; lo < len(candles); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(candles) {
			hi = len(candles)
		}

		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*7)
		for _, c := range candles[lo:hi] {
			if c.Date == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
			args = append(args, symbol, c.Date, c.Open, c.High, c.Low, c.Close, c.Volume)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (symbol, date, open, high, low, close, vol) VALUES %s",
			candleTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse store_candles error",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("store candles: %w", err)
		}
	}

	if s.l != nil {
		s.l.Info("clickhouse store_candles ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(candles)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHCandleStore) GetCandles(ctx context.Context, symbol string, fromDate, toDate string) ([]models.Candle, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT toString(date), open, high, low, close, vol
        FROM %s
        WHERE symbol = ? AND date >= ? AND date <= ?
        ORDER BY date ASC
    `, candleTable)
	rows, err := s.db.QueryContext(ctx, q, symbol, fromDate, toDate)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_candles query error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get candles: %w", err)
	}
	defer rows.Close()

	out := make([]models.Candle, 0, 1024)
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Date, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse get_candles ok",
			applogger.String("symbol", symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHCandleStore) StoreEvents(ctx context.Context, symbol string, events []models.CrashEvent) error {
	if len(events) == 0 {
		return nil
	}

	values := make([]string, 0, len(events))
	args := make([]interface{}, 0, len(events)*7)
	for _, e := range events {
		signals, err := json.Marshal(e.Signals)
		if err != nil {
			return fmt.Errorf("marshal signals: %w", err)
		}
		metrics, err := json.Marshal(e.Metrics)
		if err != nil {
			return fmt.Errorf("marshal metrics: %w", err)
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?)")
		args = append(args, symbol, e.Date, e.Index, e.CrashScore, e.Severity, string(signals), string(metrics))
	}

	q := fmt.Sprintf("INSERT INTO %s (symbol, date, idx, crash_score, severity, signals, metrics) VALUES %s",
		eventTable, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store_events error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store events: %w", err)
	}
	return nil
}

func (s *CHCandleStore) GetEvents(ctx context.Context, symbol string, limit int) ([]models.CrashEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf(`
        SELECT toString(date), idx, crash_score, severity, signals, metrics
        FROM %s
        WHERE symbol = ?
        ORDER BY date DESC
        LIMIT ?
    `, eventTable)
	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.CrashEvent, 0, limit)
	for rows.Next() {
		var (
			e       models.CrashEvent
			signals string
			metrics string
		)
		if err := rows.Scan(&e.Date, &e.Index, &e.CrashScore, &e.Severity, &signals, &metrics); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Symbol = symbol
		if err := json.Unmarshal([]byte(signals), &e.Signals); err != nil {
			e.Signals = map[models.CrashFeatureKey]float64{}
		}
		if err := json.Unmarshal([]byte(metrics), &e.Metrics); err != nil {
			e.Metrics = map[models.CrashFeatureKey]float64{}
		}
		tmp = append(tmp, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	return tmp, nil
}

func (s *CHCandleStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHCandleStore) Close() error {
	return nil // Managed by pkg
}
