package analytics

import (
	"reflect"
	"testing"

	"CrashLens/internal/domain/models"
)

func TestMergeIndicatorParamsNilPatch(t *testing.T) {
	if got := MergeIndicatorParams(nil); !reflect.DeepEqual(got, DefaultIndicatorParams()) {
		t.Fatalf("expected defaults for a nil patch, got %+v", got)
	}
}

func TestMergeIndicatorParamsPartial(t *testing.T) {
	window := 7
	threshold := -3.0
	patch := &models.IndicatorParamsPatch{
		RSI:     &models.RSIParamsPatch{Window: &window},
		GapDown: &models.GapDownParamsPatch{ThresholdPct: &threshold},
	}

	got := MergeIndicatorParams(patch)
	if got.RSI.Window != 7 {
		t.Fatalf("expected patched RSI window 7, got %d", got.RSI.Window)
	}
	if got.GapDown.ThresholdPct != -3.0 {
		t.Fatalf("expected patched gap threshold -3, got %v", got.GapDown.ThresholdPct)
	}
	// Sibling fields of a patched group keep their defaults.
	if got.GapDown.Window != 20 {
		t.Fatalf("expected default gap window 20, got %d", got.GapDown.Window)
	}
	if got.CRSI != DefaultIndicatorParams().CRSI {
		t.Fatalf("expected untouched CRSI defaults, got %+v", got.CRSI)
	}
}

func TestMergeCrashWeightsOverlay(t *testing.T) {
	got := MergeCrashWeights(models.CrashScoreWeights{models.FeatureRSI: 0.5})
	if got[models.FeatureRSI] != 0.5 {
		t.Fatalf("expected overridden RSI weight, got %v", got[models.FeatureRSI])
	}
	defaults := DefaultCrashScoreWeights()
	if got[models.FeatureDrawdownRate] != defaults[models.FeatureDrawdownRate] {
		t.Fatalf("expected default drawdown weight, got %v", got[models.FeatureDrawdownRate])
	}
	if len(got) != len(defaults) {
		t.Fatalf("expected no extra keys, got %d", len(got))
	}
}

func TestMergeBacktestParams(t *testing.T) {
	entry := 60.0
	applyCosts := true
	got := MergeBacktestParams(&models.BacktestParamsPatch{
		EntryThreshold: &entry,
		ApplyCosts:     &applyCosts,
	})
	if got.EntryThreshold != 60 || !got.ApplyCosts {
		t.Fatalf("expected patched values, got %+v", got)
	}
	if got.RSIMax != 35 || got.MaxHoldDays != 20 {
		t.Fatalf("expected untouched defaults, got %+v", got)
	}

	if !reflect.DeepEqual(MergeBacktestParams(nil), DefaultBacktestParams()) {
		t.Fatalf("expected defaults for a nil patch")
	}
}
