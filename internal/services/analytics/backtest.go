package analytics

import (
	"math"

	"CrashLens/internal/domain/models"
)

// DefaultBacktestParams returns the default simulator configuration.
func DefaultBacktestParams() models.BacktestParams {
	return models.BacktestParams{
		EntryThreshold: 70,
		RSIMax:         35,
		TakeProfitPct:  8,
		StopLossPct:    -5,
		MaxHoldDays:    20,
		ArmWindowDays:  90,
		ApplyCosts:     false,
		CostPct:        0.05,
		SlippagePct:    0.05,
	}
}

// BacktestTemplates lists the available strategy templates with their
// defaults.
func BacktestTemplates() []models.BacktestTemplate {
	return []models.BacktestTemplate{
		{
			ID:            models.TemplateMeanRebound,
			Label:         "Mean rebound",
			Description:   "Buy the day after a high-score event while RSI is depressed, exit on take-profit, stop-loss or time.",
			DefaultParams: DefaultBacktestParams(),
		},
		{
			ID:            models.TemplateMA200Reclaim,
			Label:         "MA200 reclaim",
			Description:   "After an event, wait for price to reclaim a rising 200-day average, exit on targets or trend break.",
			DefaultParams: DefaultBacktestParams(),
		},
	}
}

// BacktestInput is one simulator run request.
type BacktestInput struct {
	TemplateID   models.BacktestTemplateID
	ScoredPoints []models.ScoredPoint
	Events       []models.CrashEvent
	Params       *models.BacktestParamsPatch
}

func maxDrawdown(equity []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, e := range equity {
		if e > peak {
			peak = e
		}
		if peak > 0 {
			dd := e/peak - 1
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// costsMultiplier is the fractional fee charged per side when costs apply.
func costsMultiplier(params models.BacktestParams) float64 {
	if !params.ApplyCosts {
		return 0
	}
	return (params.CostPct + params.SlippagePct) / 100
}

// shouldEnterMeanRebound enters the bar after an event day when the score is
// high enough and RSI is depressed.
func shouldEnterMeanRebound(points []models.ScoredPoint, eventIndex map[int]bool, i int, params models.BacktestParams) bool {
	if !eventIndex[i-1] {
		return false
	}
	prev := points[i-1]
	if prev.CrashScore == nil || *prev.CrashScore < params.EntryThreshold {
		return false
	}
	if prev.RSI == nil || *prev.RSI > params.RSIMax {
		return false
	}
	return true
}

// shouldEnterTrendReclaim enters while armed when price closes above a rising
// 200-day average.
func shouldEnterTrendReclaim(p *models.ScoredPoint) bool {
	if p.SMA200 == nil || p.Slope200 == nil {
		return false
	}
	return p.Close > *p.SMA200 && *p.Slope200 > 0
}

// computeRatios derives Sharpe and Sortino from daily equity returns,
// annualized on a 252-day year and clamped to a sane band.
func computeRatios(dailyReturns []float64) (sharpe, sortino float64) {
	if len(dailyReturns) == 0 {
		return 0, 0
	}
	mean := Mean(dailyReturns)
	std := StdDev(dailyReturns)
	if std > 1e-12 {
		sharpe = Clamp(mean/std*math.Sqrt(252), -10, 10)
	}

	downside := make([]float64, 0, len(dailyReturns))
	for _, r := range dailyReturns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	downStd := StdDev(downside)
	if downStd > 1e-12 {
		sortino = Clamp(mean/downStd*math.Sqrt(252), -10, 10)
	}
	return sharpe, sortino
}

// RunBacktest simulates a single-position long-only strategy over the scored
// series. Exit checks run in priority order: take-profit, stop-loss, trend
// break, max hold, then end of data.
func RunBacktest(input BacktestInput) models.BacktestResult {
	params := MergeBacktestParams(input.Params)
	templateID := input.TemplateID
	if templateID == "" {
		templateID = models.TemplateMeanRebound
	}

	points := input.ScoredPoints
	if len(points) < 3 {
		curve := make([]models.EquityPoint, len(points))
		for i, p := range points {
			curve[i] = models.EquityPoint{Date: p.Date, Equity: 1}
		}
		return models.BacktestResult{
			Summary:     models.BacktestSummary{TemplateID: templateID},
			EquityCurve: curve,
			Trades:      []models.BacktestTrade{},
		}
	}

	eventIndex := make(map[int]bool, len(input.Events))
	for _, e := range input.Events {
		eventIndex[e.Index] = true
	}

	fee := costsMultiplier(params)

	cash := 1.0
	qty := 0.0
	entryPrice := 0.0
	entryIndex := -1
	entryCapital := 1.0
	armedUntil := -1

	curve := make([]models.EquityPoint, 0, len(points))
	curve = append(curve, models.EquityPoint{Date: points[0].Date, Equity: 1})
	trades := []models.BacktestTrade{}

	for i := 1; i < len(points); i++ {
		p := &points[i]

		// The arm window opens on the bar after an event day.
		if eventIndex[i-1] {
			armedUntil = i + params.ArmWindowDays
		}

		if qty == 0 {
			enter := false
			switch templateID {
			case models.TemplateMA200Reclaim:
				enter = i <= armedUntil && shouldEnterTrendReclaim(p)
			default:
				enter = shouldEnterMeanRebound(points, eventIndex, i, params)
			}
			if enter {
				effectiveEntry := p.Close * (1 + fee)
				if effectiveEntry > 0 {
					qty = cash / effectiveEntry
					entryPrice = p.Close
					entryIndex = i
					entryCapital = cash
					cash = 0
				}
			}
		} else {
			holding := i - entryIndex
			grossReturn := p.Close/entryPrice - 1

			reason := ""
			switch {
			case grossReturn >= params.TakeProfitPct/100:
				reason = "take-profit"
			case grossReturn <= params.StopLossPct/100:
				reason = "stop-loss"
			case templateID == models.TemplateMA200Reclaim && p.SMA200 != nil && p.Close < *p.SMA200:
				reason = "trend-break"
			case holding >= params.MaxHoldDays:
				reason = "max-hold"
			}

			if reason != "" || i == len(points)-1 {
				if reason == "" {
					reason = "end-of-data"
				}
				cash = qty * p.Close * (1 - fee)
				trades = append(trades, models.BacktestTrade{
					EntryDate:      points[entryIndex].Date,
					ExitDate:       p.Date,
					EntryPrice:     entryPrice,
					ExitPrice:      p.Close,
					GrossReturnPct: grossReturn * 100,
					NetReturnPct:   (cash/entryCapital - 1) * 100,
					HoldingDays:    holding,
					ExitReason:     reason,
				})
				qty = 0
				entryPrice = 0
				entryIndex = -1
			}
		}

		mark := cash
		if qty > 0 {
			mark = qty * p.Close
		}
		curve = append(curve, models.EquityPoint{Date: p.Date, Equity: mark})
	}

	equity := make([]float64, len(curve))
	for i, e := range curve {
		equity[i] = e.Equity
	}

	dailyReturns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] <= 0 {
			continue
		}
		dailyReturns = append(dailyReturns, equity[i]/equity[i-1]-1)
	}

	finalEquity := equity[len(equity)-1]
	totalReturn := finalEquity - 1
	years := math.Max(float64(len(equity)-1)/252, 1.0/252)
	cagr := -1.0
	if finalEquity > 0 {
		cagr = math.Pow(finalEquity, 1/years) - 1
	}

	sharpe, sortino := computeRatios(dailyReturns)
	mdd := maxDrawdown(equity)

	calmar := 0.0
	if mdd < 0 {
		calmar = Clamp(cagr/math.Abs(mdd), -10, 10)
	}

	wins := 0
	grossProfit := 0.0
	grossLoss := 0.0
	totalHolding := 0
	for _, t := range trades {
		if t.NetReturnPct > 0 {
			wins++
			grossProfit += t.NetReturnPct
		} else {
			grossLoss += -t.NetReturnPct
		}
		totalHolding += t.HoldingDays
	}

	winRate := 0.0
	avgHolding := 0.0
	if len(trades) > 0 {
		winRate = float64(wins) / float64(len(trades)) * 100
		avgHolding = float64(totalHolding) / float64(len(trades))
	}

	profitFactor := 0.0
	switch {
	case grossLoss > 1e-12:
		profitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		profitFactor = 99
	}

	return models.BacktestResult{
		Summary: models.BacktestSummary{
			TemplateID:         templateID,
			TotalReturnPct:     totalReturn * 100,
			CAGRPct:            cagr * 100,
			MaxDrawdownPct:     mdd * 100,
			Sharpe:             sharpe,
			Sortino:            sortino,
			Calmar:             calmar,
			WinRatePct:         winRate,
			ProfitFactor:       profitFactor,
			AverageHoldingDays: avgHolding,
			Trades:             len(trades),
		},
		EquityCurve: curve,
		Trades:      trades,
	}
}
