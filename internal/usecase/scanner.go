package usecase

import (
	"context"
	"sync"
	"time"

	"CrashLens/internal/domain/models"
	drepo "CrashLens/internal/domain/repository"
	"CrashLens/internal/service/ratelimit"
	applogger "CrashLens/pkg/logger"
)

// ScanResult is the outcome of one symbol within a scan.
type ScanResult struct {
	Symbol string              `json:"symbol"`
	Events []models.CrashEvent `json:"events"`
	Latest *models.CrashEvent  `json:"latest,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// ScannerUseCase fans a watchlist out over a bounded worker pool and detects
// crash events per symbol, persisting and publishing as it goes.
type ScannerUseCase struct {
	analysis *AnalysisUseCase
	limiter  *ratelimit.Limiter
	l        *applogger.Logger

	symbols     []string
	rng         drepo.Range
	workers     int
	fetchPerSec float64
}

// NewScannerUseCase creates a new ScannerUseCase.
func NewScannerUseCase(
	analysis *AnalysisUseCase,
	limiter *ratelimit.Limiter,
	l *applogger.Logger,
	symbols []string,
	rng drepo.Range,
	workers int,
	fetchPerSec float64,
) *ScannerUseCase {
	if workers <= 0 {
		workers = 4
	}
	if fetchPerSec <= 0 {
		fetchPerSec = 2
	}
	if rng == "" {
		rng = drepo.DefaultRange()
	}
	return &ScannerUseCase{
		analysis:    analysis,
		limiter:     limiter,
		l:           l,
		symbols:     symbols,
		rng:         rng,
		workers:     workers,
		fetchPerSec: fetchPerSec,
	}
}

// Symbols returns the configured watchlist.
func (uc *ScannerUseCase) Symbols() []string {
	return append([]string(nil), uc.symbols...)
}

// Scan runs detection for every requested symbol. An empty list scans the
// configured watchlist. Results come back in input order; per-symbol failures
// are reported inline and never abort the scan.
func (uc *ScannerUseCase) Scan(ctx context.Context, symbols []string) []ScanResult {
	if len(symbols) == 0 {
		symbols = uc.symbols
	}
	results := make([]ScanResult, len(symbols))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < uc.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = uc.scanOne(ctx, symbols[i])
			}
		}()
	}

	start := time.Now()
	for i := range symbols {
		select {
		case <-ctx.Done():
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if uc.l != nil {
		uc.l.Info("scan finished",
			applogger.Int("symbols", len(symbols)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return results
}

func (uc *ScannerUseCase) scanOne(ctx context.Context, symbol string) ScanResult {
	if uc.limiter != nil {
		if err := uc.limiter.Wait(ctx, "provider", uc.fetchPerSec, uc.fetchPerSec); err != nil {
			return ScanResult{Symbol: symbol, Error: err.Error()}
		}
	}

	detection, err := uc.analysis.DetectEvents(ctx, DetectParams{
		Symbol:  symbol,
		Range:   uc.rng,
		Persist: true,
	})
	if err != nil {
		if uc.l != nil {
			uc.l.Warn("scan symbol failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return ScanResult{Symbol: symbol, Error: err.Error()}
	}

	result := ScanResult{Symbol: detection.Symbol, Events: detection.Events}
	if n := len(detection.Events); n > 0 {
		latest := detection.Events[n-1]
		result.Latest = &latest
	}
	return result
}
