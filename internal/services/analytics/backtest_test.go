package analytics

import (
	"math"
	"testing"

	"CrashLens/internal/domain/models"
)

func scoredFromCloses(closes []float64) []models.ScoredPoint {
	points := make([]models.ScoredPoint, len(closes))
	for i, c := range closes {
		points[i] = models.ScoredPoint{
			IndicatorPoint: models.IndicatorPoint{
				Candle: models.Candle{Date: day(i), Close: c},
			},
		}
	}
	return points
}

func reboundFixture(closes []float64) ([]models.ScoredPoint, []models.CrashEvent) {
	points := scoredFromCloses(closes)
	points[1].CrashScore = ptr(90)
	points[1].RSI = ptr(20)
	events := []models.CrashEvent{{Index: 1, Date: day(1), Severity: 90}}
	return points, events
}

func TestRunBacktestMeanReboundTakeProfit(t *testing.T) {
	points, events := reboundFixture([]float64{100, 100, 100, 110, 110})

	res := RunBacktest(BacktestInput{
		TemplateID:   models.TemplateMeanRebound,
		ScoredPoints: points,
		Events:       events,
	})

	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	trade := res.Trades[0]
	if trade.ExitReason != "take-profit" {
		t.Fatalf("expected take-profit exit, got %s", trade.ExitReason)
	}
	if trade.EntryDate != day(2) || trade.ExitDate != day(3) {
		t.Fatalf("unexpected trade dates %s %s", trade.EntryDate, trade.ExitDate)
	}
	if !almostEqual(trade.GrossReturnPct, 10, 1e-9) {
		t.Fatalf("expected 10%% gross return, got %v", trade.GrossReturnPct)
	}
	if !almostEqual(res.Summary.TotalReturnPct, 10, 1e-9) {
		t.Fatalf("expected 10%% total return, got %v", res.Summary.TotalReturnPct)
	}
	if res.Summary.WinRatePct != 100 || res.Summary.ProfitFactor != 99 {
		t.Fatalf("unexpected summary %+v", res.Summary)
	}
	if len(res.EquityCurve) != len(points) {
		t.Fatalf("expected one equity point per bar, got %d", len(res.EquityCurve))
	}
}

func TestRunBacktestApplyCostsReducesNet(t *testing.T) {
	points, events := reboundFixture([]float64{100, 100, 100, 110, 110})
	applyCosts := true

	res := RunBacktest(BacktestInput{
		TemplateID:   models.TemplateMeanRebound,
		ScoredPoints: points,
		Events:       events,
		Params:       &models.BacktestParamsPatch{ApplyCosts: &applyCosts},
	})

	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	trade := res.Trades[0]
	if trade.NetReturnPct >= trade.GrossReturnPct {
		t.Fatalf("expected costs to reduce the net return: net %v gross %v",
			trade.NetReturnPct, trade.GrossReturnPct)
	}
}

func TestRunBacktestStopLoss(t *testing.T) {
	points, events := reboundFixture([]float64{100, 100, 100, 90, 90})

	res := RunBacktest(BacktestInput{
		TemplateID:   models.TemplateMeanRebound,
		ScoredPoints: points,
		Events:       events,
	})

	if len(res.Trades) != 1 || res.Trades[0].ExitReason != "stop-loss" {
		t.Fatalf("expected a stop-loss exit, got %+v", res.Trades)
	}
}

func TestRunBacktestMaxHold(t *testing.T) {
	points, events := reboundFixture([]float64{100, 100, 100, 101, 101, 101, 101})
	maxHold := 2

	res := RunBacktest(BacktestInput{
		TemplateID:   models.TemplateMeanRebound,
		ScoredPoints: points,
		Events:       events,
		Params:       &models.BacktestParamsPatch{MaxHoldDays: &maxHold},
	})

	if len(res.Trades) != 1 || res.Trades[0].ExitReason != "max-hold" {
		t.Fatalf("expected a max-hold exit, got %+v", res.Trades)
	}
	if res.Trades[0].HoldingDays != 2 {
		t.Fatalf("expected 2 holding days, got %d", res.Trades[0].HoldingDays)
	}
}

func TestRunBacktestSkipsEntryOnHighRSI(t *testing.T) {
	points, events := reboundFixture([]float64{100, 100, 100, 110, 110})
	points[1].RSI = ptr(60)

	res := RunBacktest(BacktestInput{
		TemplateID:   models.TemplateMeanRebound,
		ScoredPoints: points,
		Events:       events,
	})
	if len(res.Trades) != 0 {
		t.Fatalf("expected no trades with elevated RSI, got %d", len(res.Trades))
	}
}

func TestRunBacktestTrendReclaim(t *testing.T) {
	points := scoredFromCloses([]float64{100, 100, 100, 100, 100})
	events := []models.CrashEvent{{Index: 1, Date: day(1), Severity: 90}}

	// Reclaim a rising average at bar 2, lose it at bar 3.
	points[2].SMA200 = ptr(90)
	points[2].Slope200 = ptr(1)
	points[3].SMA200 = ptr(120)

	res := RunBacktest(BacktestInput{
		TemplateID:   models.TemplateMA200Reclaim,
		ScoredPoints: points,
		Events:       events,
	})

	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	if res.Trades[0].ExitReason != "trend-break" {
		t.Fatalf("expected a trend-break exit, got %s", res.Trades[0].ExitReason)
	}
	if res.Trades[0].EntryDate != day(2) || res.Trades[0].ExitDate != day(3) {
		t.Fatalf("unexpected trade dates %+v", res.Trades[0])
	}
}

func TestRunBacktestEndOfDataClose(t *testing.T) {
	points, events := reboundFixture([]float64{100, 100, 100, 102, 103})

	res := RunBacktest(BacktestInput{
		TemplateID:   models.TemplateMeanRebound,
		ScoredPoints: points,
		Events:       events,
	})

	if len(res.Trades) != 1 || res.Trades[0].ExitReason != "end-of-data" {
		t.Fatalf("expected an end-of-data close, got %+v", res.Trades)
	}
	last := res.EquityCurve[len(res.EquityCurve)-1].Equity
	if !almostEqual(last, 1.03, 1e-9) {
		t.Fatalf("expected final equity 1.03, got %v", last)
	}
}

func TestRunBacktestTrendReclaimArmsAfterEventBar(t *testing.T) {
	points := scoredFromCloses([]float64{100, 100, 100, 100})
	events := []models.CrashEvent{{Index: 1, Date: day(1), Severity: 90}}

	// Reclaim conditions are only true on the event bar itself, which is
	// before the arm window opens.
	points[1].SMA200 = ptr(90)
	points[1].Slope200 = ptr(1)

	res := RunBacktest(BacktestInput{
		TemplateID:   models.TemplateMA200Reclaim,
		ScoredPoints: points,
		Events:       events,
	})
	if len(res.Trades) != 0 {
		t.Fatalf("expected no entry on the event bar, got %+v", res.Trades)
	}
}

func TestRunBacktestTrendReclaimArmWindowExtent(t *testing.T) {
	points := scoredFromCloses([]float64{100, 100, 100, 100, 100})
	events := []models.CrashEvent{{Index: 1, Date: day(1), Severity: 90}}
	armWindow := 1

	// The window opens the bar after the event and runs armWindow bars
	// further, so bar 3 is still armed.
	points[3].SMA200 = ptr(90)
	points[3].Slope200 = ptr(1)

	res := RunBacktest(BacktestInput{
		TemplateID:   models.TemplateMA200Reclaim,
		ScoredPoints: points,
		Events:       events,
		Params:       &models.BacktestParamsPatch{ArmWindowDays: &armWindow},
	})
	if len(res.Trades) != 1 || res.Trades[0].EntryDate != day(3) {
		t.Fatalf("expected an entry on day 3, got %+v", res.Trades)
	}
}

func TestRunBacktestCostsRoundTripFormula(t *testing.T) {
	points, events := reboundFixture([]float64{100, 100, 100, 100, 100})
	applyCosts := true
	costPct := 5.0
	slippagePct := 5.0

	res := RunBacktest(BacktestInput{
		TemplateID:   models.TemplateMeanRebound,
		ScoredPoints: points,
		Events:       events,
		Params: &models.BacktestParamsPatch{
			ApplyCosts:  &applyCosts,
			CostPct:     &costPct,
			SlippagePct: &slippagePct,
		},
	})

	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	// Buy at close*(1+fee), sell at close*(1-fee): a flat round trip nets
	// (1-f)/(1+f) - 1 with the combined 10% fee.
	wantNet := (0.9/1.1 - 1) * 100
	if !almostEqual(res.Trades[0].NetReturnPct, wantNet, 1e-9) {
		t.Fatalf("expected net %v, got %v", wantNet, res.Trades[0].NetReturnPct)
	}
	last := res.EquityCurve[len(res.EquityCurve)-1].Equity
	if !almostEqual(last, 0.9/1.1, 1e-9) {
		t.Fatalf("expected final equity %v, got %v", 0.9/1.1, last)
	}
}

func TestRunBacktestSkipsZeroCloseEntry(t *testing.T) {
	points, events := reboundFixture([]float64{100, 100, 0, 100, 100})

	res := RunBacktest(BacktestInput{
		TemplateID:   models.TemplateMeanRebound,
		ScoredPoints: points,
		Events:       events,
	})

	if len(res.Trades) != 0 {
		t.Fatalf("expected no trades on a zero entry price, got %+v", res.Trades)
	}
	for _, p := range res.EquityCurve {
		if math.IsNaN(p.Equity) || math.IsInf(p.Equity, 0) || p.Equity != 1 {
			t.Fatalf("expected flat finite equity, got %v", p.Equity)
		}
	}
}

func TestRunBacktestLastBarEntryStaysOpen(t *testing.T) {
	points, events := reboundFixture([]float64{100, 100, 110})

	res := RunBacktest(BacktestInput{
		TemplateID:   models.TemplateMeanRebound,
		ScoredPoints: points,
		Events:       events,
	})

	if len(res.Trades) != 0 {
		t.Fatalf("expected no closed trade for a final-bar entry, got %+v", res.Trades)
	}
	last := res.EquityCurve[len(res.EquityCurve)-1].Equity
	if !almostEqual(last, 1.1, 1e-9) {
		t.Fatalf("expected the open position marked to market, got %v", last)
	}
}

func TestRunBacktestAnnualizationAndCalmarClamp(t *testing.T) {
	points, events := reboundFixture([]float64{100, 100, 100, 99, 110, 110})

	res := RunBacktest(BacktestInput{
		TemplateID:   models.TemplateMeanRebound,
		ScoredPoints: points,
		Events:       events,
	})

	if len(res.Trades) != 1 || res.Trades[0].ExitReason != "take-profit" {
		t.Fatalf("expected a take-profit trade, got %+v", res.Trades)
	}
	// Five daily steps in the equity curve annualize as 5/252 years.
	wantCAGR := (math.Pow(1.1, 252.0/5) - 1) * 100
	if !almostEqual(res.Summary.CAGRPct, wantCAGR, 1e-6) {
		t.Fatalf("expected CAGR %v, got %v", wantCAGR, res.Summary.CAGRPct)
	}
	if res.Summary.Calmar != 10 {
		t.Fatalf("expected Calmar clamped to 10, got %v", res.Summary.Calmar)
	}
}

func TestRunBacktestDegenerateSeries(t *testing.T) {
	points := scoredFromCloses([]float64{100, 101})

	res := RunBacktest(BacktestInput{ScoredPoints: points})

	if res.Summary.TemplateID != models.TemplateMeanRebound {
		t.Fatalf("expected the default template, got %s", res.Summary.TemplateID)
	}
	if res.Summary.TotalReturnPct != 0 || len(res.Trades) != 0 {
		t.Fatalf("expected a zero summary, got %+v", res.Summary)
	}
	if len(res.EquityCurve) != 2 {
		t.Fatalf("expected a flat curve per bar, got %d points", len(res.EquityCurve))
	}
	for _, p := range res.EquityCurve {
		if p.Equity != 1 {
			t.Fatalf("expected flat equity 1, got %v", p.Equity)
		}
	}
}

func TestBacktestTemplatesListed(t *testing.T) {
	templates := BacktestTemplates()
	if len(templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(templates))
	}
	if templates[0].ID != models.TemplateMeanRebound || templates[1].ID != models.TemplateMA200Reclaim {
		t.Fatalf("unexpected template order %+v", templates)
	}
}
