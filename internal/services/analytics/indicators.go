package analytics

import (
	"sort"
	"strings"

	"CrashLens/internal/domain/models"
)

// IndicatorResult is the output of ComputeIndicators: one point per
// normalized candle plus the fully resolved parameters.
type IndicatorResult struct {
	Points []models.IndicatorPoint `json:"points"`
	Params models.IndicatorParams  `json:"params"`
}

// normalizeCandles truncates dates to calendar-day granularity and sorts
// ascending. Duplicate dates are kept; the stable sort preserves their
// relative order so the last one wins downstream.
func normalizeCandles(candles []models.Candle) []models.Candle {
	out := make([]models.Candle, len(candles))
	for i, c := range candles {
		if len(c.Date) > 10 {
			c.Date = c.Date[:10]
		}
		out[i] = c
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date < out[j].Date
	})
	return out
}

func isIndexLike(symbol string) bool {
	return strings.HasPrefix(symbol, "^")
}

// ComputeIndicators derives all rolling features from raw candles. Input may
// be unsorted; empty input yields empty output. Each feature is an
// independent columnar pass over the aligned OHLCV arrays.
func ComputeIndicators(candles []models.Candle, symbol string, patch *models.IndicatorParamsPatch) IndicatorResult {
	normalized := normalizeCandles(candles)
	params := MergeIndicatorParams(patch)

	if len(normalized) == 0 {
		return IndicatorResult{Points: []models.IndicatorPoint{}, Params: params}
	}

	n := len(normalized)
	open := make([]float64, n)
	high := make([]float64, n)
	low := make([]float64, n)
	close := make([]float64, n)
	volume := make([]*float64, n)
	closeNullable := make([]*float64, n)

	for i, c := range normalized {
		open[i] = c.Open
		high[i] = c.High
		low[i] = c.Low
		close[i] = c.Close
		volume[i] = ptr(c.Volume)
		closeNullable[i] = ptr(c.Close)
	}

	dayReturnPct := make([]*float64, n)
	for i := 1; i < n; i++ {
		if close[i-1] == 0 {
			continue
		}
		dayReturnPct[i] = ptr((close[i] - close[i-1]) / close[i-1] * 100)
	}

	zMa := RollingSma(closeNullable, params.ZScore.Window)
	zStd := RollingStdDev(closeNullable, params.ZScore.Window)
	zScore := make([]*float64, n)
	for i := 0; i < n; i++ {
		if zMa[i] == nil || zStd[i] == nil || *zStd[i] == 0 {
			continue
		}
		zScore[i] = ptr((close[i] - *zMa[i]) / *zStd[i])
	}

	rsi := ComputeRSI(close, params.RSI.Window)

	streak := ComputeStreak(close)
	streakRSI := ComputeRSI(streak, params.CRSI.StreakWindow)
	shortRSI := ComputeRSI(close, params.CRSI.RSIWindow)
	dayReturnRaw := make([]float64, n)
	for i := 1; i < n; i++ {
		if close[i-1] == 0 {
			continue
		}
		dayReturnRaw[i] = (close[i] - close[i-1]) / close[i-1] * 100
	}
	rank := ComputePercentRank(dayReturnRaw, params.CRSI.RankWindow)
	crsi := make([]*float64, n)
	for i := 0; i < n; i++ {
		if shortRSI[i] == nil || streakRSI[i] == nil || rank[i] == nil {
			continue
		}
		crsi[i] = ptr((*shortRSI[i] + *streakRSI[i] + *rank[i]) / 3)
	}

	rollingMaxClose := RollingMax(close, params.Drawdown.Lookback)
	drawdownRate := make([]*float64, n)
	for i := 0; i < n; i++ {
		if rollingMaxClose[i] == nil || *rollingMaxClose[i] == 0 {
			continue
		}
		drawdownRate[i] = ptr(close[i] / *rollingMaxClose[i] - 1)
	}

	drawdownSpeed1 := trailingReturn(close, params.DrawdownSpeed.Window1)
	drawdownSpeed2 := trailingReturn(close, params.DrawdownSpeed.Window2)
	drawdownSpeed := make([]*float64, n)
	for i := 0; i < n; i++ {
		a := drawdownSpeed1[i]
		b := drawdownSpeed2[i]
		switch {
		case a == nil && b == nil:
		case a == nil:
			drawdownSpeed[i] = ptr(*b)
		case b == nil:
			drawdownSpeed[i] = ptr(*a)
		default:
			drawdownSpeed[i] = ptr(minFloat(*a, *b))
		}
	}

	atr := ComputeATR(high, low, close, params.ATR.Window)
	atrPct := make([]*float64, n)
	for i := 0; i < n; i++ {
		if atr[i] == nil || close[i] == 0 {
			continue
		}
		atrPct[i] = ptr(*atr[i] / close[i] * 100)
	}

	volSma := RollingSma(volume, params.VolumeShock.Window)
	volumeShock := make([]*float64, n)
	for i := 0; i < n; i++ {
		if volSma[i] == nil || *volSma[i] == 0 {
			continue
		}
		volumeShock[i] = ptr(*volume[i] / *volSma[i])
	}

	sma200 := RollingSma(closeNullable, params.MA200.Window)
	below200 := make([]*bool, n)
	for i := 0; i < n; i++ {
		if sma200[i] == nil {
			continue
		}
		below := close[i] < *sma200[i]
		below200[i] = &below
	}

	slope200 := make([]*float64, n)
	for i := params.MA200.SlopeLookback; i < n; i++ {
		now := sma200[i]
		prev := sma200[i-params.MA200.SlopeLookback]
		if now == nil || prev == nil {
			continue
		}
		slope200[i] = ptr(*now - *prev)
	}

	regime200 := make([]*float64, n)
	for i := 0; i < n; i++ {
		if below200[i] == nil || slope200[i] == nil {
			continue
		}
		below := *below200[i]
		falling := *slope200[i] < 0
		switch {
		case below && falling:
			regime200[i] = ptr(1)
		case below || falling:
			regime200[i] = ptr(0.6)
		default:
			regime200[i] = ptr(0)
		}
	}

	gapDownPct := make([]*float64, n)
	for i := 1; i < n; i++ {
		if close[i-1] == 0 {
			continue
		}
		gapDownPct[i] = ptr((open[i] - close[i-1]) / close[i-1] * 100)
	}

	gapDownFlag := make([]*float64, n)
	for i := 0; i < n; i++ {
		if gapDownPct[i] == nil {
			continue
		}
		if *gapDownPct[i] <= params.GapDown.ThresholdPct {
			gapDownFlag[i] = ptr(1)
		} else {
			gapDownFlag[i] = ptr(0)
		}
	}
	gapDownFreq := RollingSum(gapDownFlag, params.GapDown.Window)

	rollingMinClose := RollingMin(close, params.Low52W.Window)
	is52wLow := make([]*bool, n)
	for i := 0; i < n; i++ {
		if rollingMinClose[i] == nil {
			continue
		}
		atLow := close[i] <= *rollingMinClose[i]
		is52wLow[i] = &atLow
	}

	// Breadth is only meaningful for index-like symbols; individual stocks
	// carry a nil column.
	breadth := make([]*float64, n)
	if isIndexLike(symbol) {
		upDays := make([]*float64, n)
		for i := 1; i < n; i++ {
			if close[i] > close[i-1] {
				upDays[i] = ptr(1)
			} else {
				upDays[i] = ptr(0)
			}
		}
		for i, v := range RollingSma(upDays, params.Breadth.Window) {
			if v != nil {
				breadth[i] = ptr(*v * 100)
			}
		}
	}

	points := make([]models.IndicatorPoint, n)
	for i, candle := range normalized {
		points[i] = models.IndicatorPoint{
			Candle:          candle,
			DayReturnPct:    dayReturnPct[i],
			ZScore:          zScore[i],
			RSI:             rsi[i],
			CRSI:            crsi[i],
			DrawdownRate:    drawdownRate[i],
			DrawdownSpeed5:  drawdownSpeed1[i],
			DrawdownSpeed10: drawdownSpeed2[i],
			DrawdownSpeed:   drawdownSpeed[i],
			ATR:             atr[i],
			ATRPct:          atrPct[i],
			VolumeShock:     volumeShock[i],
			SMA200:          sma200[i],
			Slope200:        slope200[i],
			Below200:        below200[i],
			Regime200:       regime200[i],
			GapDownPct:      gapDownPct[i],
			GapDownFreq:     gapDownFreq[i],
			Is52WLow:        is52wLow[i],
			Breadth:         breadth[i],
		}
	}

	return IndicatorResult{Points: points, Params: params}
}

// trailingReturn computes close[i]/close[i-window] - 1, nil during warm-up or
// on a zero base.
func trailingReturn(close []float64, window int) []*float64 {
	out := make([]*float64, len(close))
	for i := window; i < len(close); i++ {
		if close[i-window] == 0 {
			continue
		}
		out[i] = ptr(close[i]/close[i-window] - 1)
	}
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
