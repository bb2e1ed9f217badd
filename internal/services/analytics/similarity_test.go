package analytics

import (
	"testing"

	"CrashLens/internal/domain/models"
)

func fullMetrics(scale float64) map[models.CrashFeatureKey]float64 {
	metrics := make(map[models.CrashFeatureKey]float64, len(orderedFeatures))
	for i, key := range orderedFeatures {
		metrics[key] = scale * float64(i+1)
	}
	return metrics
}

func similarityFixture() ([]models.Candle, []models.CrashEvent) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	// Two identical single-day dips and one flat stretch.
	closes[20] = 80
	closes[40] = 80

	events := []models.CrashEvent{
		{Index: 20, Date: day(20), CrashScore: ptr(80), Metrics: fullMetrics(1)},
		{Index: 40, Date: day(40), CrashScore: ptr(80), Metrics: fullMetrics(1)},
		{Index: 10, Date: day(10), CrashScore: ptr(10), Metrics: fullMetrics(-5)},
	}
	return testCandles(closes), events
}

func TestFindSimilarEventsRanksTwinFirst(t *testing.T) {
	candles, events := similarityFixture()
	res := FindSimilarEvents(SimilarityQuery{
		Candles:    candles,
		Events:     events,
		TargetDate: day(20),
		TopN:       5,
		PreDays:    2,
		PostDays:   2,
	})

	if res.TargetDate != day(20) {
		t.Fatalf("unexpected target date %s", res.TargetDate)
	}
	if len(res.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(res.Matches))
	}
	if res.Matches[0].Date != day(40) {
		t.Fatalf("expected the twin event first, got %s", res.Matches[0].Date)
	}
	if res.Matches[0].SimilarityScore <= res.Matches[1].SimilarityScore {
		t.Fatalf("expected the twin to score higher: %v vs %v",
			res.Matches[0].SimilarityScore, res.Matches[1].SimilarityScore)
	}
	if len(res.Matches[0].Reasons) != 3 {
		t.Fatalf("expected 3 reasons, got %d", len(res.Matches[0].Reasons))
	}
	if res.Matches[0].Reasons[2].Feature != "pricePath" {
		t.Fatalf("expected a price-path reason last, got %s", res.Matches[0].Reasons[2].Feature)
	}
}

func TestFindSimilarEventsTopNTrim(t *testing.T) {
	candles, events := similarityFixture()
	res := FindSimilarEvents(SimilarityQuery{
		Candles:    candles,
		Events:     events,
		TargetDate: day(20),
		TopN:       1,
		PreDays:    2,
		PostDays:   2,
	})
	if len(res.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(res.Matches))
	}
}

func TestFindSimilarEventsMissingTarget(t *testing.T) {
	candles, events := similarityFixture()
	res := FindSimilarEvents(SimilarityQuery{
		Candles:    candles,
		Events:     events,
		TargetDate: day(55),
	})
	if len(res.Matches) != 0 {
		t.Fatalf("expected no matches for an unknown target, got %d", len(res.Matches))
	}
}

func TestFindSimilarEventsSkipsIncompleteCandidates(t *testing.T) {
	candles, events := similarityFixture()
	// Drop one required metric from the twin so only the dissimilar event
	// remains comparable.
	delete(events[1].Metrics, models.FeatureBreadth)

	res := FindSimilarEvents(SimilarityQuery{
		Candles:    candles,
		Events:     events,
		TargetDate: day(20),
	})
	if len(res.Matches) != 1 || res.Matches[0].Date != day(10) {
		t.Fatalf("expected only the complete candidate, got %+v", res.Matches)
	}
}

func TestFindSimilarEventsExcludesCandidateOutsideCandles(t *testing.T) {
	candles, events := similarityFixture()
	events = append(events, models.CrashEvent{
		Index:      99,
		Date:       "2099-12-31",
		CrashScore: ptr(80),
		Metrics:    fullMetrics(1),
	})

	res := FindSimilarEvents(SimilarityQuery{
		Candles:    candles,
		Events:     events,
		TargetDate: day(20),
		PreDays:    2,
		PostDays:   2,
	})
	if len(res.Matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(res.Matches))
	}
	for _, m := range res.Matches {
		if m.Date == "2099-12-31" {
			t.Fatalf("expected the candidate without a price path to be excluded")
		}
	}
}

func TestFindSimilarEventsTargetWithoutCandle(t *testing.T) {
	candles, events := similarityFixture()
	events = append(events, models.CrashEvent{
		Index:      99,
		Date:       "2099-12-31",
		CrashScore: ptr(80),
		Metrics:    fullMetrics(1),
	})

	res := FindSimilarEvents(SimilarityQuery{
		Candles:    candles,
		Events:     events,
		TargetDate: "2099-12-31",
	})
	if len(res.Matches) != 0 {
		t.Fatalf("expected no matches for a target outside the price history, got %d", len(res.Matches))
	}
}

func TestDtwDistanceIdentical(t *testing.T) {
	a := []float64{1, 2, 3, 2, 1}
	if got := dtwDistance(a, a); got != 0 {
		t.Fatalf("expected zero distance for identical paths, got %v", got)
	}
	if got := dtwDistance([]float64{1, 1}, []float64{2, 2}); got <= 0 {
		t.Fatalf("expected positive distance for shifted paths, got %v", got)
	}
}

func TestNormalizeWindowRebasesToFirst(t *testing.T) {
	got := normalizeWindow([]float64{200, 220, 180})
	want := []float64{1, 1.1, 0.9}
	for i := range want {
		if !almostEqual(got[i], want[i], 1e-12) {
			t.Fatalf("mismatch at %d: got %v want %v", i, got[i], want[i])
		}
	}
}
