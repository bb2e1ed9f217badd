package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"CrashLens/internal/domain/models"
	drepo "CrashLens/internal/domain/repository"
	"CrashLens/internal/service/yahoo"
	"CrashLens/internal/services/analytics"
	"CrashLens/pkg/cache"
	phttp "CrashLens/pkg/http"
	applogger "CrashLens/pkg/logger"
	xutil "CrashLens/pkg/util"
)

// AnalysisUseCase orchestrates the full pipeline: fetch candles, compute
// indicators, detect events, then similarity or backtest on demand.
type AnalysisUseCase struct {
	market    drepo.MarketData
	store     drepo.CandleStore
	publisher drepo.EventPublisher
	settings  drepo.SettingsStore
	cache     cache.Service
	metrics   drepo.Metrics
	l         *applogger.Logger
	cacheTTL  time.Duration
}

// NewAnalysisUseCase creates a new AnalysisUseCase. Store, publisher and
// settings may be nil; the pipeline then runs fetch-and-compute only.
func NewAnalysisUseCase(
	market drepo.MarketData,
	store drepo.CandleStore,
	publisher drepo.EventPublisher,
	settings drepo.SettingsStore,
	c cache.Service,
	metrics drepo.Metrics,
	l *applogger.Logger,
	cacheTTL time.Duration,
) *AnalysisUseCase {
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}
	return &AnalysisUseCase{
		market:    market,
		store:     store,
		publisher: publisher,
		settings:  settings,
		cache:     c,
		metrics:   metrics,
		l:         l,
		cacheTTL:  cacheTTL,
	}
}

// MarketDataResult is the resolved fetch outcome for one symbol.
type MarketDataResult struct {
	Symbol  string            `json:"symbol"`
	Meta    models.MarketMeta `json:"meta"`
	Candles []models.Candle   `json:"candles"`
}

type cachedMarketData struct {
	Symbol  string            `json:"symbol"`
	Meta    models.MarketMeta `json:"meta"`
	Candles []models.Candle   `json:"candles"`
}

func marketDataKey(symbol string, rng drepo.Range) string {
	return fmt.Sprintf("crashlens:candles:%s:%s", strings.ToUpper(symbol), rng)
}

// GetMarketData resolves the symbol against provider candidates and returns
// daily candles, served from cache when fresh.
func (uc *AnalysisUseCase) GetMarketData(ctx context.Context, symbol string, rng drepo.Range) (*MarketDataResult, error) {
	candidates := yahoo.BuildSymbolCandidates(symbol)
	if len(candidates) == 0 {
		return nil, phttp.BadRequestError("symbol required")
	}

	if uc.cache != nil {
		var cached cachedMarketData
		if err := uc.cache.Get(ctx, marketDataKey(candidates[0], rng), &cached); err == nil && len(cached.Candles) > 0 {
			if uc.metrics != nil {
				uc.metrics.RecordFetch(cached.Symbol, "cache")
			}
			return &MarketDataResult{Symbol: cached.Symbol, Meta: cached.Meta, Candles: cached.Candles}, nil
		} else if err != nil && !errors.Is(err, cache.ErrCacheMiss) && uc.l != nil {
			uc.l.Warn("market data cache read failed",
				applogger.String("symbol", candidates[0]),
				applogger.Error(err),
			)
		}
	}

	start := time.Now()
	var lastErr error
	for _, candidate := range candidates {
		candles, meta, err := uc.market.FetchDaily(ctx, candidate, rng)
		if err != nil {
			lastErr = err
			continue
		}
		if len(candles) == 0 {
			lastErr = phttp.NotFoundErrorf("no data for %s", candidate)
			continue
		}

		if uc.metrics != nil {
			uc.metrics.RecordFetch(candidate, "provider")
			uc.metrics.RecordLatency("fetch_daily", time.Since(start).Seconds())
		}
		result := &MarketDataResult{Symbol: candidate, Meta: meta, Candles: candles}

		if uc.cache != nil {
			entry := cachedMarketData(*result)
			if err := uc.cache.Set(ctx, marketDataKey(candidates[0], rng), entry, uc.cacheTTL); err != nil && uc.l != nil {
				uc.l.Warn("market data cache write failed",
					applogger.String("symbol", candidate),
					applogger.Error(err),
				)
			}
		}
		if uc.store != nil {
			if err := uc.store.StoreCandles(ctx, candidate, candles); err != nil && uc.l != nil {
				uc.l.Warn("candle persistence failed",
					applogger.String("symbol", candidate),
					applogger.Error(err),
				)
			}
		}
		return result, nil
	}

	if uc.metrics != nil {
		uc.metrics.RecordError("fetch")
	}
	return nil, fmt.Errorf("fetch %s: %w", symbol, lastErr)
}

// GetMarketDataBetween fetches daily candles for an explicit date window.
// Bounded queries bypass the cache; persisted candles still land in the store.
func (uc *AnalysisUseCase) GetMarketDataBetween(ctx context.Context, symbol string, from, to time.Time) (*MarketDataResult, error) {
	candidates := yahoo.BuildSymbolCandidates(symbol)
	if len(candidates) == 0 {
		return nil, phttp.BadRequestError("symbol required")
	}

	from, to = xutil.AlignDayRange(from, to)

	start := time.Now()
	var lastErr error
	for _, candidate := range candidates {
		candles, meta, err := uc.market.FetchDailyBetween(ctx, candidate, from.Unix(), to.Unix())
		if err != nil {
			lastErr = err
			continue
		}
		if len(candles) == 0 {
			lastErr = phttp.NotFoundErrorf("no data for %s between %s and %s",
				candidate, xutil.FormatDay(from), xutil.FormatDay(to))
			continue
		}

		if uc.metrics != nil {
			uc.metrics.RecordFetch(candidate, "provider")
			uc.metrics.RecordLatency("fetch_daily", time.Since(start).Seconds())
		}
		if uc.store != nil {
			if err := uc.store.StoreCandles(ctx, candidate, candles); err != nil && uc.l != nil {
				uc.l.Warn("candle persistence failed",
					applogger.String("symbol", candidate),
					applogger.Error(err),
				)
			}
		}
		return &MarketDataResult{Symbol: candidate, Meta: meta, Candles: candles}, nil
	}

	if uc.metrics != nil {
		uc.metrics.RecordError("fetch")
	}
	return nil, fmt.Errorf("fetch %s: %w", symbol, lastErr)
}

// StoredEvents reads previously persisted events for a symbol: the most
// recent `limit` events, returned in ascending date order.
func (uc *AnalysisUseCase) StoredEvents(ctx context.Context, symbol string, limit int) ([]models.CrashEvent, error) {
	if uc.store == nil {
		return nil, fmt.Errorf("event storage is not enabled")
	}
	candidates := yahoo.BuildSymbolCandidates(symbol)
	if len(candidates) == 0 {
		return nil, phttp.BadRequestError("symbol required")
	}
	return uc.store.GetEvents(ctx, candidates[0], limit)
}

// IndicatorsParams configures one indicator computation.
type IndicatorsParams struct {
	Symbol  string
	Range   drepo.Range
	Profile string
	Patch   *models.IndicatorParamsPatch
}

// IndicatorsResult bundles indicator output with the resolved symbol.
type IndicatorsResult struct {
	Symbol string                  `json:"symbol"`
	Meta   models.MarketMeta       `json:"meta"`
	Points []models.IndicatorPoint `json:"points"`
	Params models.IndicatorParams  `json:"params"`
}

// resolvePatch overlays an explicit request patch over the stored profile
// patch; an explicit patch wins outright.
func (uc *AnalysisUseCase) resolvePatch(ctx context.Context, profile string, patch *models.IndicatorParamsPatch) *models.IndicatorParamsPatch {
	if patch != nil {
		return patch
	}
	if uc.settings == nil || profile == "" {
		return nil
	}
	stored, err := uc.settings.GetIndicatorPatch(ctx, profile)
	if err != nil {
		if uc.l != nil {
			uc.l.Warn("settings lookup failed",
				applogger.String("profile", profile),
				applogger.Error(err),
			)
		}
		return nil
	}
	return stored
}

// GetIndicators fetches candles and computes the full indicator series.
func (uc *AnalysisUseCase) GetIndicators(ctx context.Context, p IndicatorsParams) (*IndicatorsResult, error) {
	data, err := uc.GetMarketData(ctx, p.Symbol, p.Range)
	if err != nil {
		return nil, err
	}

	patch := uc.resolvePatch(ctx, p.Profile, p.Patch)
	result := analytics.ComputeIndicators(data.Candles, data.Symbol, patch)

	return &IndicatorsResult{
		Symbol: data.Symbol,
		Meta:   data.Meta,
		Points: result.Points,
		Params: result.Params,
	}, nil
}

// DetectParams configures one detection run.
type DetectParams struct {
	Symbol      string
	Range       drepo.Range
	Profile     string
	Patch       *models.IndicatorParamsPatch
	Mode        models.DetectionMode
	Threshold   *float64
	CoolingDays *int
	SingleRule  *models.SingleRule
	Weights     models.CrashScoreWeights
	Persist     bool
}

// DetectResult bundles detection output with the resolved symbol.
type DetectResult struct {
	Symbol       string               `json:"symbol"`
	Meta         models.MarketMeta    `json:"meta"`
	ScoredPoints []models.ScoredPoint `json:"scoredPoints"`
	Events       []models.CrashEvent  `json:"events"`
	Ranking      []models.CrashEvent  `json:"ranking"`
}

// DetectEvents runs the full fetch-compute-detect pipeline. When Persist is
// set, events are stored and published; failures there degrade to warnings.
func (uc *AnalysisUseCase) DetectEvents(ctx context.Context, p DetectParams) (*DetectResult, error) {
	data, err := uc.GetMarketData(ctx, p.Symbol, p.Range)
	if err != nil {
		return nil, err
	}

	patch := uc.resolvePatch(ctx, p.Profile, p.Patch)
	indicators := analytics.ComputeIndicators(data.Candles, data.Symbol, patch)

	detection := analytics.DetectCrashEvents(indicators.Points, analytics.DetectionOptions{
		Mode:        p.Mode,
		Threshold:   p.Threshold,
		CoolingDays: p.CoolingDays,
		Symbol:      data.Symbol,
		SingleRule:  p.SingleRule,
		Weights:     p.Weights,
	})

	if uc.metrics != nil {
		uc.metrics.RecordEventsDetected(data.Symbol, len(detection.Events))
	}

	if p.Persist && len(detection.Events) > 0 {
		if uc.store != nil {
			if err := uc.store.StoreEvents(ctx, data.Symbol, detection.Events); err != nil && uc.l != nil {
				uc.l.Warn("event persistence failed",
					applogger.String("symbol", data.Symbol),
					applogger.Error(err),
				)
			}
		}
		if uc.publisher != nil {
			if err := uc.publisher.PublishEvents(ctx, data.Symbol, detection.Events); err != nil && uc.l != nil {
				uc.l.Warn("event publish failed",
					applogger.String("symbol", data.Symbol),
					applogger.Error(err),
				)
			}
		}
	}

	return &DetectResult{
		Symbol:       data.Symbol,
		Meta:         data.Meta,
		ScoredPoints: detection.ScoredPoints,
		Events:       detection.Events,
		Ranking:      detection.Ranking,
	}, nil
}

// SimilarParams configures one similarity query.
type SimilarParams struct {
	DetectParams

	TargetDate string
	TopN       int
	PreDays    int
	PostDays   int
}

// FindSimilar detects events and ranks past events against the target date.
func (uc *AnalysisUseCase) FindSimilar(ctx context.Context, p SimilarParams) (*models.SimilarityResult, error) {
	if p.TargetDate == "" {
		return nil, fmt.Errorf("targetDate required")
	}

	detection, err := uc.DetectEvents(ctx, p.DetectParams)
	if err != nil {
		return nil, err
	}

	candles := make([]models.Candle, len(detection.ScoredPoints))
	for i, sp := range detection.ScoredPoints {
		candles[i] = sp.Candle
	}

	result := analytics.FindSimilarEvents(analytics.SimilarityQuery{
		Candles:    candles,
		Events:     detection.Events,
		TargetDate: p.TargetDate,
		TopN:       p.TopN,
		PreDays:    p.PreDays,
		PostDays:   p.PostDays,
	})
	return &result, nil
}

// BacktestRunParams configures one simulator run.
type BacktestRunParams struct {
	DetectParams

	TemplateID models.BacktestTemplateID
	Params     *models.BacktestParamsPatch
}

// RunBacktest detects events and replays the selected strategy template.
func (uc *AnalysisUseCase) RunBacktest(ctx context.Context, p BacktestRunParams) (*models.BacktestResult, error) {
	detection, err := uc.DetectEvents(ctx, p.DetectParams)
	if err != nil {
		return nil, err
	}

	patch := p.Params
	if patch == nil && uc.settings != nil && p.Profile != "" {
		stored, err := uc.settings.GetBacktestPatch(ctx, p.Profile)
		if err == nil {
			patch = stored
		} else if uc.l != nil {
			uc.l.Warn("backtest settings lookup failed",
				applogger.String("profile", p.Profile),
				applogger.Error(err),
			)
		}
	}

	result := analytics.RunBacktest(analytics.BacktestInput{
		TemplateID:   p.TemplateID,
		ScoredPoints: detection.ScoredPoints,
		Events:       detection.Events,
		Params:       patch,
	})
	return &result, nil
}
