package analytics

import (
	"testing"

	"CrashLens/internal/domain/models"
)

func pointsWithDrawdown(rates []float64) []models.IndicatorPoint {
	points := make([]models.IndicatorPoint, len(rates))
	for i, r := range rates {
		points[i] = models.IndicatorPoint{
			Candle:       models.Candle{Date: day(i), Close: 100},
			DrawdownRate: ptr(r),
		}
	}
	return points
}

func TestDetectSingleRuleCoolingCollapse(t *testing.T) {
	points := pointsWithDrawdown([]float64{-0.10, -0.16, -0.20, -0.18, -0.05, -0.30})
	cooling := 2
	rule := models.SingleRule{Feature: models.FeatureDrawdownRate, Operator: models.OpLTE, Value: -0.15}

	res := DetectCrashEvents(points, DetectionOptions{
		Mode:        models.ModeSingle,
		CoolingDays: &cooling,
		SingleRule:  &rule,
		Symbol:      "AAPL",
	})

	if len(res.Events) != 2 {
		t.Fatalf("expected 2 collapsed events, got %d", len(res.Events))
	}
	if res.Events[0].Index != 2 || res.Events[1].Index != 5 {
		t.Fatalf("unexpected event indexes %d %d", res.Events[0].Index, res.Events[1].Index)
	}
	if res.Ranking[0].Index != 5 {
		t.Fatalf("expected the deepest drawdown ranked first, got index %d", res.Ranking[0].Index)
	}
	if res.Ranking[0].Severity <= res.Ranking[1].Severity {
		t.Fatalf("expected strictly descending severity")
	}
	if res.Events[0].Symbol != "AAPL" {
		t.Fatalf("expected symbol on events, got %q", res.Events[0].Symbol)
	}
}

func TestDetectScoreModeThreshold(t *testing.T) {
	// Regime is a discrete feature, so it contributes without a baseline.
	points := make([]models.IndicatorPoint, 5)
	for i := range points {
		regime := 0.0
		if i >= 3 {
			regime = 1.0
		}
		points[i] = models.IndicatorPoint{
			Candle:    models.Candle{Date: day(i), Close: 100},
			Regime200: ptr(regime),
		}
	}

	res := DetectCrashEvents(points, DetectionOptions{Mode: models.ModeScore})

	for i := 0; i < 3; i++ {
		sp := res.ScoredPoints[i]
		if sp.CrashScore == nil || *sp.CrashScore != 0 {
			t.Fatalf("expected score 0 in a healthy regime at %d, got %v", i, sp.CrashScore)
		}
	}
	for i := 3; i < 5; i++ {
		sp := res.ScoredPoints[i]
		if sp.CrashScore == nil || *sp.CrashScore != 100 {
			t.Fatalf("expected score 100 in a stressed regime at %d, got %v", i, sp.CrashScore)
		}
	}

	// Indexes 3 and 4 fall within one cooling window and have equal severity,
	// so the earlier one is kept.
	if len(res.Events) != 1 || res.Events[0].Index != 3 {
		t.Fatalf("expected one event at index 3, got %+v", res.Events)
	}
}

func TestComputeScoresUsesFullSeriesBaseline(t *testing.T) {
	// The reference distribution for robust scaling covers the whole series,
	// so a late shock widens the spread seen by every point, and early points
	// are scored even before eight samples have accumulated.
	rates := make([]float64, 15)
	for i := range rates {
		rates[i] = -0.01 * float64(i)
	}
	rates[14] = -0.50
	points := pointsWithDrawdown(rates)

	res := DetectCrashEvents(points, DetectionOptions{Mode: models.ModeScore})

	want := RobustScale(rates[8], rates, LowIsBad)
	got, ok := res.ScoredPoints[8].Signals[models.FeatureDrawdownRate]
	if !ok {
		t.Fatalf("expected a drawdown signal at index 8")
	}
	if !almostEqual(got, want, 1e-9) {
		t.Fatalf("expected full-series normalization %v, got %v", want, got)
	}
	if _, ok := res.ScoredPoints[0].Signals[models.FeatureDrawdownRate]; !ok {
		t.Fatalf("expected the first point to be scored against the full baseline")
	}
}

func TestDetectSingleRuleStoresOnlyRuleFeature(t *testing.T) {
	points := pointsWithDrawdown([]float64{-0.10, -0.20})
	points[1].RSI = ptr(25)
	rule := models.SingleRule{Feature: models.FeatureDrawdownRate, Operator: models.OpLTE, Value: -0.15}

	res := DetectCrashEvents(points, DetectionOptions{
		Mode:       models.ModeSingle,
		SingleRule: &rule,
	})

	if len(res.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(res.Events))
	}
	metrics := res.Events[0].Metrics
	if len(metrics) != 1 {
		t.Fatalf("expected only the rule feature in metrics, got %v", metrics)
	}
	if v, ok := metrics[models.FeatureDrawdownRate]; !ok || v != -0.20 {
		t.Fatalf("expected the raw rule value, got %v", metrics)
	}
}

func TestDetectScoreModeSkipsColdBaselines(t *testing.T) {
	// A continuous feature with fewer than the minimum baseline samples must
	// not produce a score.
	points := pointsWithDrawdown([]float64{-0.10, -0.16, -0.20})
	res := DetectCrashEvents(points, DetectionOptions{Mode: models.ModeScore})
	for i, sp := range res.ScoredPoints {
		if sp.CrashScore != nil {
			t.Fatalf("expected nil score on a cold baseline at %d", i)
		}
	}
	if len(res.Events) != 0 {
		t.Fatalf("expected no events, got %d", len(res.Events))
	}
}

func TestDetectEmptyInput(t *testing.T) {
	res := DetectCrashEvents(nil, DetectionOptions{})
	if len(res.ScoredPoints) != 0 || len(res.Events) != 0 || len(res.Ranking) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestFeatureValueUnknownKey(t *testing.T) {
	p := models.IndicatorPoint{RSI: ptr(30)}
	if got := FeatureValue(&p, models.FeatureRSI); got == nil || *got != 30 {
		t.Fatalf("expected 30, got %v", got)
	}
	if got := FeatureValue(&p, models.CrashFeatureKey("bogus")); got != nil {
		t.Fatalf("expected nil for an unknown key, got %v", got)
	}
}

func TestEvaluateRuleOperators(t *testing.T) {
	cases := []struct {
		op   models.RuleOperator
		raw  float64
		want bool
	}{
		{models.OpLT, -0.2, true},
		{models.OpLT, -0.15, false},
		{models.OpLTE, -0.15, true},
		{models.OpGT, -0.1, true},
		{models.OpGTE, -0.15, true},
		{models.RuleOperator("!"), -0.2, false},
	}
	for _, tc := range cases {
		rule := models.SingleRule{Feature: models.FeatureDrawdownRate, Operator: tc.op, Value: -0.15}
		if got := evaluateRule(tc.raw, rule); got != tc.want {
			t.Fatalf("operator %q raw %v: got %v want %v", tc.op, tc.raw, got, tc.want)
		}
	}
}
