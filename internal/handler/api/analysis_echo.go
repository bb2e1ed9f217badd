package api

import (
	"net/http"
	"time"

	models "CrashLens/internal/domain/models"
	drepo "CrashLens/internal/domain/repository"
	"CrashLens/internal/service/metrics"
	"CrashLens/internal/service/yahoo"
	"CrashLens/internal/services/analytics"
	"CrashLens/internal/usecase"
	xhttp "CrashLens/pkg/http"
	xlogger "CrashLens/pkg/logger"
	"CrashLens/pkg/queue"

	"github.com/labstack/echo/v4"
)

// AnalysisEchoHandler exposes the analytics pipeline over HTTP.
type AnalysisEchoHandler struct {
	logger   *xlogger.Logger
	analysis *usecase.AnalysisUseCase
	scanner  *usecase.ScannerUseCase
	settings drepo.SettingsStore
	queue    queue.QueueService
}

func NewAnalysisEchoHandler(
	logger *xlogger.Logger,
	analysis *usecase.AnalysisUseCase,
	scanner *usecase.ScannerUseCase,
	settings drepo.SettingsStore,
) *AnalysisEchoHandler {
	metrics.Register()
	return &AnalysisEchoHandler{logger: logger, analysis: analysis, scanner: scanner, settings: settings}
}

// SetQueue enables asynchronous scans through a background job queue.
func (h *AnalysisEchoHandler) SetQueue(q queue.QueueService) { h.queue = q }

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/market-data", h.MarketData)
	g.GET("/indicators", h.Indicators)
	g.POST("/crash-events", h.CrashEvents)
	g.POST("/similar-events", h.SimilarEvents)
	g.POST("/backtest", h.Backtest)
	g.GET("/backtest/templates", h.BacktestTemplates)
	g.GET("/events/:symbol", h.StoredEvents)
	g.GET("/symbols", h.Symbols)
	g.POST("/scan", h.Scan)
	g.GET("/settings/:profile", h.GetSettings)
	g.PUT("/settings/:profile", h.SaveSettings)
}

func (h *AnalysisEchoHandler) observe(endpoint string, start time.Time) {
	metrics.AnalyticsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (h *AnalysisEchoHandler) MarketData(c echo.Context) error {
	defer h.observe("market_data", time.Now())
	req := &models.MarketDataRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var res *usecase.MarketDataResult
	var err error
	if from, ok := xhttp.ParseTime(c.QueryParam("from")); ok {
		to := xhttp.ParseTimeDefault(c.QueryParam("to"), time.Now())
		res, err = h.analysis.GetMarketDataBetween(c.Request().Context(), req.Symbol, from, to)
	} else {
		res, err = h.analysis.GetMarketData(c.Request().Context(), req.Symbol, drepo.NormalizeRange(req.Range))
	}
	if err != nil {
		metrics.AnalyticsErrors.WithLabelValues("market_data").Inc()
		h.logger.Error("market data usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Indicators(c echo.Context) error {
	defer h.observe("indicators", time.Now())
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analysis.GetIndicators(c.Request().Context(), usecase.IndicatorsParams{
		Symbol:  req.Symbol,
		Range:   drepo.NormalizeRange(req.Range),
		Profile: req.Profile,
	})
	if err != nil {
		metrics.AnalyticsErrors.WithLabelValues("indicators").Inc()
		h.logger.Error("indicators usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func detectParamsFromRequest(req *models.DetectRequest) usecase.DetectParams {
	return usecase.DetectParams{
		Symbol:      req.Symbol,
		Range:       drepo.NormalizeRange(req.Range),
		Profile:     req.Profile,
		Patch:       req.Params,
		Mode:        models.DetectionMode(req.Mode),
		Threshold:   req.Threshold,
		CoolingDays: req.CoolingDays,
		SingleRule:  req.SingleRule,
		Weights:     req.Weights,
		Persist:     req.Persist,
	}
}

func (h *AnalysisEchoHandler) CrashEvents(c echo.Context) error {
	defer h.observe("crash_events", time.Now())
	req := &models.DetectRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analysis.DetectEvents(c.Request().Context(), detectParamsFromRequest(req))
	if err != nil {
		metrics.AnalyticsErrors.WithLabelValues("crash_events").Inc()
		h.logger.Error("crash events usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) SimilarEvents(c echo.Context) error {
	defer h.observe("similar_events", time.Now())
	req := &models.SimilarEventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analysis.FindSimilar(c.Request().Context(), usecase.SimilarParams{
		DetectParams: detectParamsFromRequest(&req.DetectRequest),
		TargetDate:   req.TargetDate,
		TopN:         req.TopN,
		PreDays:      req.PreDays,
		PostDays:     req.PostDays,
	})
	if err != nil {
		metrics.AnalyticsErrors.WithLabelValues("similar_events").Inc()
		h.logger.Error("similar events usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Backtest(c echo.Context) error {
	defer h.observe("backtest", time.Now())
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analysis.RunBacktest(c.Request().Context(), usecase.BacktestRunParams{
		DetectParams: detectParamsFromRequest(&req.DetectRequest),
		TemplateID:   models.BacktestTemplateID(req.TemplateID),
		Params:       req.Backtest,
	})
	if err != nil {
		metrics.AnalyticsErrors.WithLabelValues("backtest").Inc()
		h.logger.Error("backtest usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) BacktestTemplates(c echo.Context) error {
	return xhttp.SuccessResponse(c, analytics.BacktestTemplates())
}

// StoredEvents returns previously persisted events for a symbol.
func (h *AnalysisEchoHandler) StoredEvents(c echo.Context) error {
	symbol := c.Param("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol required")
	}
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 50)

	events, err := h.analysis.StoredEvents(c.Request().Context(), symbol, limit)
	if err != nil {
		metrics.AnalyticsErrors.WithLabelValues("stored_events").Inc()
		h.logger.Error("stored events read error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, events)
}

// Symbols returns the configured watchlist plus provider candidates for an
// optional q parameter.
func (h *AnalysisEchoHandler) Symbols(c echo.Context) error {
	type symbolsResponse struct {
		Watchlist  []string `json:"watchlist"`
		Candidates []string `json:"candidates,omitempty"`
	}
	res := symbolsResponse{Watchlist: h.scanner.Symbols()}
	if q := c.QueryParam("q"); q != "" {
		res.Candidates = yahoo.BuildSymbolCandidates(q)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Scan(c echo.Context) error {
	defer h.observe("scan", time.Now())
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if req.Async && h.queue != nil {
		payload := usecase.ScanJobPayload{Symbols: req.Symbols}
		if err := h.queue.PublishMessage(c.Request().Context(), usecase.ScanJobType, payload); err != nil {
			metrics.AnalyticsErrors.WithLabelValues("scan").Inc()
			h.logger.Error("scan enqueue error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return xhttp.DataResponse(c, http.StatusAccepted, map[string]string{"status": "queued"})
	}

	return xhttp.SuccessResponse(c, h.scanner.Scan(c.Request().Context(), req.Symbols))
}

func (h *AnalysisEchoHandler) GetSettings(c echo.Context) error {
	profile := c.Param("profile")
	if profile == "" {
		return xhttp.BadRequestResponse(c, "profile required")
	}

	ctx := c.Request().Context()
	indicators, err := h.settings.GetIndicatorPatch(ctx, profile)
	if err != nil {
		h.logger.Error("settings read error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	backtest, err := h.settings.GetBacktestPatch(ctx, profile)
	if err != nil {
		h.logger.Error("settings read error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	return xhttp.SuccessResponse(c, map[string]interface{}{
		"profile":    profile,
		"indicators": indicators,
		"backtest":   backtest,
	})
}

func (h *AnalysisEchoHandler) SaveSettings(c echo.Context) error {
	req := &models.SettingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	ctx := c.Request().Context()
	if err := h.settings.SaveIndicatorPatch(ctx, req.Profile, req.Indicators); err != nil {
		h.logger.Error("settings save error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if err := h.settings.SaveBacktestPatch(ctx, req.Profile, req.Backtest); err != nil {
		h.logger.Error("settings save error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}
