package analytics

import (
	"reflect"
	"testing"
	"time"

	"CrashLens/internal/domain/models"
)

func day(i int) string {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i).Format("2006-01-02")
}

func testCandles(closes []float64) []models.Candle {
	candles := make([]models.Candle, len(closes))
	for i, c := range closes {
		candles[i] = models.Candle{
			Date:   day(i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 100,
		}
	}
	return candles
}

func variedCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i) + 3*float64(i%2)
	}
	return closes
}

func TestComputeIndicatorsEmpty(t *testing.T) {
	res := ComputeIndicators(nil, "AAPL", nil)
	if len(res.Points) != 0 {
		t.Fatalf("expected no points, got %d", len(res.Points))
	}
	if !reflect.DeepEqual(res.Params, DefaultIndicatorParams()) {
		t.Fatalf("expected default params, got %+v", res.Params)
	}
}

func TestComputeIndicatorsWarmup(t *testing.T) {
	res := ComputeIndicators(testCandles(variedCloses(30)), "AAPL", nil)
	points := res.Points

	if points[0].DayReturnPct != nil {
		t.Fatalf("expected nil day return on the first bar")
	}
	if points[1].DayReturnPct == nil {
		t.Fatalf("expected day return from the second bar")
	}

	if points[18].ZScore != nil {
		t.Fatalf("expected nil z-score before the window is filled")
	}
	if points[19].ZScore == nil {
		t.Fatalf("expected z-score once the window is filled")
	}

	if points[13].RSI != nil {
		t.Fatalf("expected nil RSI before the window is filled")
	}
	if points[14].RSI == nil {
		t.Fatalf("expected RSI once the window is filled")
	}

	if points[12].ATR != nil {
		t.Fatalf("expected nil ATR before the window is filled")
	}
	if points[13].ATR == nil || points[13].ATRPct == nil {
		t.Fatalf("expected ATR once the window is filled")
	}
}

func TestComputeIndicatorsSortsAndTruncatesDates(t *testing.T) {
	candles := []models.Candle{
		{Date: "2024-01-02T00:00:00Z", Open: 101, High: 102, Low: 100, Close: 101, Volume: 100},
		{Date: "2024-01-01T00:00:00Z", Open: 100, High: 101, Low: 99, Close: 100, Volume: 100},
	}
	res := ComputeIndicators(candles, "AAPL", nil)
	if res.Points[0].Date != "2024-01-01" || res.Points[1].Date != "2024-01-02" {
		t.Fatalf("expected sorted day-granular dates, got %s %s", res.Points[0].Date, res.Points[1].Date)
	}
}

func TestComputeIndicatorsIdempotent(t *testing.T) {
	candles := testCandles(variedCloses(40))
	first := ComputeIndicators(candles, "AAPL", nil)
	second := ComputeIndicators(candles, "AAPL", nil)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results on repeated runs")
	}
}

func TestBreadthOnlyForIndexSymbols(t *testing.T) {
	candles := testCandles(variedCloses(25))

	stock := ComputeIndicators(candles, "AAPL", nil)
	for i, p := range stock.Points {
		if p.Breadth != nil {
			t.Fatalf("expected nil breadth for a stock symbol at %d", i)
		}
	}

	index := ComputeIndicators(candles, "^GSPC", nil)
	if index.Points[19].Breadth != nil {
		t.Fatalf("expected nil breadth before the window is filled")
	}
	if index.Points[20].Breadth == nil {
		t.Fatalf("expected breadth for an index symbol once the window is filled")
	}
}

func TestComputeIndicatorsPatchedWindow(t *testing.T) {
	window := 5
	patch := &models.IndicatorParamsPatch{RSI: &models.RSIParamsPatch{Window: &window}}
	res := ComputeIndicators(testCandles(variedCloses(10)), "AAPL", patch)
	if res.Params.RSI.Window != 5 {
		t.Fatalf("expected patched RSI window, got %d", res.Params.RSI.Window)
	}
	if res.Points[4].RSI != nil || res.Points[5].RSI == nil {
		t.Fatalf("expected RSI to follow the patched window")
	}
}
