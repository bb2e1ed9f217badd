package repository

// Range is a provider lookback window for daily candles.
type Range string

const (
	Range1M  Range = "1mo"
	Range3M  Range = "3mo"
	Range6M  Range = "6mo"
	Range1Y  Range = "1y"
	Range2Y  Range = "2y"
	Range5Y  Range = "5y"
	Range10Y Range = "10y"
	RangeMax Range = "max"
)

// IsValidRange returns true if rng is a supported lookback window.
func IsValidRange(rng Range) bool {
	switch rng {
	case Range1M, Range3M, Range6M, Range1Y, Range2Y, Range5Y, Range10Y, RangeMax:
		return true
	default:
		return false
	}
}

// DefaultRange returns the default lookback window.
func DefaultRange() Range { return Range5Y }

// NormalizeRange converts a raw string to a valid range (or the default).
func NormalizeRange(s string) Range {
	if s == "" {
		return DefaultRange()
	}
	rng := Range(s)
	if IsValidRange(rng) {
		return rng
	}
	return DefaultRange()
}
