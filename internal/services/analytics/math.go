package analytics

import (
	"math"
	"sort"
)

// Direction marks which tail of a feature distribution signals stress.
type Direction int

const (
	HighIsBad Direction = iota
	LowIsBad
)

// Clamp bounds value to [min, max].
func Clamp(value, min, max float64) float64 {
	return math.Min(max, math.Max(min, value))
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the sample standard deviation, 0 for fewer than 2 values.
func StdDev(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	m := Mean(values)
	variance := 0.0
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	return math.Sqrt(variance / float64(len(values)-1))
}

// Median returns the median, 0 for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// MAD returns the median absolute deviation around the median.
func MAD(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	med := Median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - med)
	}
	return Median(deviations)
}

func ptr(v float64) *float64 {
	return &v
}

// RollingSma computes a simple moving average over a nullable series. Index i
// is non-nil only when i >= window-1 and the trailing window holds no nils.
func RollingSma(values []*float64, window int) []*float64 {
	out := make([]*float64, len(values))
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if values[j] == nil {
				ok = false
				break
			}
			sum += *values[j]
		}
		if !ok {
			continue
		}
		out[i] = ptr(sum / float64(window))
	}
	return out
}

// RollingStdDev computes a rolling sample standard deviation with the same
// null semantics as RollingSma.
func RollingStdDev(values []*float64, window int) []*float64 {
	out := make([]*float64, len(values))
	buf := make([]float64, 0, window)
	for i := window - 1; i < len(values); i++ {
		buf = buf[:0]
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if values[j] == nil {
				ok = false
				break
			}
			buf = append(buf, *values[j])
		}
		if !ok {
			continue
		}
		out[i] = ptr(StdDev(buf))
	}
	return out
}

// RollingMax computes a trailing-window maximum; defined once i >= window-1.
func RollingMax(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	for i := window - 1; i < len(values); i++ {
		maxValue := math.Inf(-1)
		for j := i - window + 1; j <= i; j++ {
			if values[j] > maxValue {
				maxValue = values[j]
			}
		}
		out[i] = ptr(maxValue)
	}
	return out
}

// RollingMin computes a trailing-window minimum; defined once i >= window-1.
func RollingMin(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	for i := window - 1; i < len(values); i++ {
		minValue := math.Inf(1)
		for j := i - window + 1; j <= i; j++ {
			if values[j] < minValue {
				minValue = values[j]
			}
		}
		out[i] = ptr(minValue)
	}
	return out
}

// RollingSum computes a trailing-window sum over a nullable series with the
// same null semantics as RollingSma.
func RollingSum(values []*float64, window int) []*float64 {
	out := make([]*float64, len(values))
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if values[j] == nil {
				ok = false
				break
			}
			sum += *values[j]
		}
		if !ok {
			continue
		}
		out[i] = ptr(sum)
	}
	return out
}

// ComputeRSI computes Wilder's smoothed RSI. The first `window` outputs are
// nil; the seed averages come from the first `window` one-step differences.
func ComputeRSI(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	if len(values) <= window {
		return out
	}

	gainSum := 0.0
	lossSum := 0.0
	for i := 1; i <= window; i++ {
		diff := values[i] - values[i-1]
		gainSum += math.Max(diff, 0)
		lossSum += math.Max(-diff, 0)
	}

	avgGain := gainSum / float64(window)
	avgLoss := lossSum / float64(window)
	out[window] = ptr(rsiFromAverages(avgGain, avgLoss))

	for i := window + 1; i < len(values); i++ {
		diff := values[i] - values[i-1]
		gain := math.Max(diff, 0)
		loss := math.Max(-diff, 0)

		avgGain = (avgGain*float64(window-1) + gain) / float64(window)
		avgLoss = (avgLoss*float64(window-1) + loss) / float64(window)
		out[i] = ptr(rsiFromAverages(avgGain, avgLoss))
	}

	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 && avgGain == 0 {
		return 50
	}
	if avgLoss == 0 {
		return 100
	}
	if avgGain == 0 {
		return 0
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ComputeATR computes Wilder's average true range. TR at index 0 is high-low;
// the first ATR is the simple mean of the first `window` true ranges placed at
// index window-1, smoothed thereafter.
func ComputeATR(high, low, close []float64, window int) []*float64 {
	length := len(close)
	tr := make([]float64, length)
	out := make([]*float64, length)

	for i := 0; i < length; i++ {
		if i == 0 {
			tr[i] = high[i] - low[i]
			continue
		}
		tr[i] = math.Max(high[i]-low[i],
			math.Max(math.Abs(high[i]-close[i-1]), math.Abs(low[i]-close[i-1])))
	}

	if length < window {
		return out
	}

	sum := 0.0
	for i := 0; i < window; i++ {
		sum += tr[i]
	}

	out[window-1] = ptr(sum / float64(window))
	for i := window; i < length; i++ {
		out[i] = ptr((*out[i-1]*float64(window-1) + tr[i]) / float64(window))
	}

	return out
}

// ComputeStreak counts consecutive up/down closes: extends on continuation,
// resets to ±1 on reversal, and to 0 on a tie.
func ComputeStreak(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		switch {
		case values[i] > values[i-1]:
			if out[i-1] >= 0 {
				out[i] = out[i-1] + 1
			} else {
				out[i] = 1
			}
		case values[i] < values[i-1]:
			if out[i-1] <= 0 {
				out[i] = out[i-1] - 1
			} else {
				out[i] = -1
			}
		default:
			out[i] = 0
		}
	}
	return out
}

// ComputePercentRank returns, for each index i >= window, the share of the
// trailing `window` prior values (current excluded) that are <= the current
// value, scaled to 0-100.
func ComputePercentRank(values []float64, window int) []*float64 {
	out := make([]*float64, len(values))
	for i := window; i < len(values); i++ {
		current := values[i]
		count := 0
		for j := i - window; j < i; j++ {
			if values[j] <= current {
				count++
			}
		}
		out[i] = ptr(float64(count) / float64(window) * 100)
	}
	return out
}

// RobustScale maps value onto a 0-100 stress scale using a median/MAD z-score
// against the reference series. Falls back to the sample std-dev when MAD is
// degenerate, with a denominator floor of 1. LowIsBad flips the sign before
// clipping to [-3.5, 3.5].
func RobustScale(value float64, series []float64, direction Direction) float64 {
	med := Median(series)
	madValue := MAD(series)
	fallbackStd := StdDev(series)

	denom := 1.0
	switch {
	case madValue > 1e-9:
		denom = madValue * 1.4826
	case fallbackStd > 1e-9:
		denom = fallbackStd
	}

	z := (value - med) / denom
	if direction == LowIsBad {
		z = -z
	}

	clipped := Clamp(z, -3.5, 3.5)
	return (clipped + 3.5) / 7 * 100
}
