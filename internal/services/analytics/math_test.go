package analytics

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
	if got := Clamp(-1, 0, 3); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := Clamp(2, 0, 3); got != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
}

func TestMedianAndMAD(t *testing.T) {
	values := []float64{5, 1, 3, 2, 4}
	if got := Median(values); got != 3 {
		t.Fatalf("expected median 3, got %v", got)
	}
	if got := MAD(values); got != 1 {
		t.Fatalf("expected MAD 1, got %v", got)
	}
	if got := Median([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Fatalf("expected median 2.5, got %v", got)
	}
	if got := Median(nil); got != 0 {
		t.Fatalf("expected 0 for empty input, got %v", got)
	}
}

func TestRollingSmaNullPropagation(t *testing.T) {
	values := []*float64{nil, ptr(1), ptr(2), ptr(3)}
	out := RollingSma(values, 2)
	if out[0] != nil || out[1] != nil {
		t.Fatalf("expected warm-up nils, got %v %v", out[0], out[1])
	}
	if out[2] == nil || *out[2] != 1.5 {
		t.Fatalf("expected 1.5 at index 2, got %v", out[2])
	}
	if out[3] == nil || *out[3] != 2.5 {
		t.Fatalf("expected 2.5 at index 3, got %v", out[3])
	}
}

func TestComputeRSIWarmupAndExtremes(t *testing.T) {
	up := []float64{1, 2, 3, 4, 5, 6}
	out := ComputeRSI(up, 3)
	for i := 0; i < 3; i++ {
		if out[i] != nil {
			t.Fatalf("expected nil during warm-up at %d", i)
		}
	}
	for i := 3; i < len(out); i++ {
		if out[i] == nil || *out[i] != 100 {
			t.Fatalf("expected RSI 100 on pure gains at %d, got %v", i, out[i])
		}
	}

	flat := []float64{5, 5, 5, 5, 5}
	if got := ComputeRSI(flat, 3)[3]; got == nil || *got != 50 {
		t.Fatalf("expected RSI 50 on a flat series, got %v", got)
	}

	down := []float64{6, 5, 4, 3, 2, 1}
	if got := ComputeRSI(down, 3)[3]; got == nil || *got != 0 {
		t.Fatalf("expected RSI 0 on pure losses, got %v", got)
	}
}

func TestComputeATRSeedAndSmoothing(t *testing.T) {
	high := []float64{2, 3, 4}
	low := []float64{1, 1, 2}
	close := []float64{1.5, 2, 3}
	out := ComputeATR(high, low, close, 2)

	if out[0] != nil {
		t.Fatalf("expected nil before the window is filled")
	}
	// TR0 = 1, TR1 = 2, seed = 1.5
	if out[1] == nil || *out[1] != 1.5 {
		t.Fatalf("expected seed ATR 1.5, got %v", out[1])
	}
	// TR2 = 2, smoothed = (1.5 + 2) / 2
	if out[2] == nil || *out[2] != 1.75 {
		t.Fatalf("expected smoothed ATR 1.75, got %v", out[2])
	}
}

func TestComputeStreak(t *testing.T) {
	got := ComputeStreak([]float64{1, 2, 3, 2, 2})
	want := []float64{0, 1, 2, -1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("streak mismatch at %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestComputePercentRank(t *testing.T) {
	out := ComputePercentRank([]float64{5, 1, 3, 4}, 2)
	if out[0] != nil || out[1] != nil {
		t.Fatalf("expected nil before the window is filled")
	}
	// prior window [5, 1], one value <= 3
	if out[2] == nil || *out[2] != 50 {
		t.Fatalf("expected 50 at index 2, got %v", out[2])
	}
	// prior window [1, 3], both <= 4
	if out[3] == nil || *out[3] != 100 {
		t.Fatalf("expected 100 at index 3, got %v", out[3])
	}
}

func TestRobustScaleCenterAndTails(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	if got := RobustScale(3, series, HighIsBad); got != 50 {
		t.Fatalf("expected 50 at the median, got %v", got)
	}
	if got := RobustScale(-100, series, LowIsBad); got != 100 {
		t.Fatalf("expected 100 for an extreme low with LowIsBad, got %v", got)
	}
	if got := RobustScale(-100, series, HighIsBad); got != 0 {
		t.Fatalf("expected 0 for an extreme low with HighIsBad, got %v", got)
	}
}

func TestRobustScaleDegenerateSeries(t *testing.T) {
	// MAD and std are both zero, so the denominator floors at 1.
	series := []float64{2, 2, 2, 2}
	got := RobustScale(3, series, HighIsBad)
	want := (1.0 + 3.5) / 7 * 100
	if !almostEqual(got, want, 1e-9) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
