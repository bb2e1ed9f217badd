package analytics

import (
	"math"
	"sort"

	"CrashLens/internal/domain/models"
)

// featureSpec binds a feature key to its accessor and normalization rules.
// Discrete features skip the robust-scale baseline and map directly to 0-100.
type featureSpec struct {
	key       models.CrashFeatureKey
	direction Direction
	discrete  bool
	getter    func(p *models.IndicatorPoint) *float64
}

var featureSpecs = []featureSpec{
	{key: models.FeatureZScore, direction: LowIsBad, getter: func(p *models.IndicatorPoint) *float64 { return p.ZScore }},
	{key: models.FeatureRSI, direction: LowIsBad, getter: func(p *models.IndicatorPoint) *float64 { return p.RSI }},
	{key: models.FeatureCRSI, direction: LowIsBad, getter: func(p *models.IndicatorPoint) *float64 { return p.CRSI }},
	{key: models.FeatureDrawdownRate, direction: LowIsBad, getter: func(p *models.IndicatorPoint) *float64 { return p.DrawdownRate }},
	{key: models.FeatureDrawdownSpeed, direction: LowIsBad, getter: func(p *models.IndicatorPoint) *float64 { return p.DrawdownSpeed }},
	{key: models.FeatureATRPct, direction: HighIsBad, getter: func(p *models.IndicatorPoint) *float64 { return p.ATRPct }},
	{key: models.FeatureVolumeShock, direction: HighIsBad, getter: func(p *models.IndicatorPoint) *float64 { return p.VolumeShock }},
	{key: models.FeatureRegime200, direction: HighIsBad, discrete: true, getter: func(p *models.IndicatorPoint) *float64 { return p.Regime200 }},
	{key: models.FeatureGapDownFreq, direction: HighIsBad, getter: func(p *models.IndicatorPoint) *float64 { return p.GapDownFreq }},
	{key: models.FeatureLow52W, direction: HighIsBad, discrete: true, getter: func(p *models.IndicatorPoint) *float64 {
		if p.Is52WLow == nil {
			return nil
		}
		if *p.Is52WLow {
			return ptr(1)
		}
		return ptr(0)
	}},
	{key: models.FeatureBreadth, direction: LowIsBad, getter: func(p *models.IndicatorPoint) *float64 { return p.Breadth }},
}

// FeatureValue reads the raw value of a feature from a point, nil during
// warm-up. Unknown keys return nil.
func FeatureValue(p *models.IndicatorPoint, key models.CrashFeatureKey) *float64 {
	for _, spec := range featureSpecs {
		if spec.key == key {
			return spec.getter(p)
		}
	}
	return nil
}

// DetectionOptions configures DetectCrashEvents. Zero-value mode defaults to
// composite scoring.
type DetectionOptions struct {
	Mode        models.DetectionMode
	Threshold   *float64
	CoolingDays *int
	Symbol      string
	SingleRule  *models.SingleRule
	Weights     models.CrashScoreWeights
}

// DetectionResult carries the scored series plus raw and severity-ranked
// collapsed events.
type DetectionResult struct {
	ScoredPoints []models.ScoredPoint `json:"scoredPoints"`
	Events       []models.CrashEvent  `json:"events"`
	Ranking      []models.CrashEvent  `json:"ranking"`
}

// A feature only contributes once its reference distribution has this many
// finite samples.
const minBaselineSamples = 8

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// featureSeries collects the finite values of one feature across the whole
// series. Every point is normalized against this same distribution.
func featureSeries(points []models.IndicatorPoint, spec featureSpec) []float64 {
	series := make([]float64, 0, len(points))
	for j := range points {
		v := spec.getter(&points[j])
		if v == nil || !isFinite(*v) {
			continue
		}
		series = append(series, *v)
	}
	return series
}

func discreteSignal(v float64) float64 {
	return Clamp(v*100, 0, 100)
}

// computeScores normalizes each feature per point and folds the available
// signals into a weight-normalized composite score.
func computeScores(points []models.IndicatorPoint, weights models.CrashScoreWeights) []models.ScoredPoint {
	baselines := make(map[models.CrashFeatureKey][]float64, len(featureSpecs))
	for _, spec := range featureSpecs {
		baselines[spec.key] = featureSeries(points, spec)
	}

	scored := make([]models.ScoredPoint, len(points))
	for i := range points {
		signals := make(map[models.CrashFeatureKey]float64)
		weightedSum := 0.0
		weightTotal := 0.0

		for _, spec := range featureSpecs {
			raw := spec.getter(&points[i])
			if raw == nil || !isFinite(*raw) {
				continue
			}

			var signal float64
			if spec.discrete {
				signal = discreteSignal(*raw)
			} else {
				series := baselines[spec.key]
				if len(series) < minBaselineSamples {
					continue
				}
				signal = RobustScale(*raw, series, spec.direction)
			}
			signals[spec.key] = signal

			w, ok := weights[spec.key]
			if !ok || !isFinite(w) || w <= 0 {
				continue
			}
			weightedSum += signal * w
			weightTotal += w
		}

		var score *float64
		if weightTotal > 0 {
			score = ptr(Clamp(weightedSum/weightTotal, 0, 100))
		}
		scored[i] = models.ScoredPoint{
			IndicatorPoint: points[i],
			CrashScore:     score,
			Signals:        signals,
		}
	}
	return scored
}

func evaluateRule(raw float64, rule models.SingleRule) bool {
	switch rule.Operator {
	case models.OpLT:
		return raw < rule.Value
	case models.OpLTE:
		return raw <= rule.Value
	case models.OpGT:
		return raw > rule.Value
	case models.OpGTE:
		return raw >= rule.Value
	default:
		return false
	}
}

// extractMetrics snapshots the raw feature values present at a point.
func extractMetrics(p *models.IndicatorPoint) map[models.CrashFeatureKey]float64 {
	metrics := make(map[models.CrashFeatureKey]float64)
	for _, spec := range featureSpecs {
		if v := spec.getter(p); v != nil && isFinite(*v) {
			metrics[spec.key] = *v
		}
	}
	return metrics
}

// collapseNearbyEvents merges candidates closer than coolingDays into one
// event, keeping the strictly most severe. A later candidate starting more
// than coolingDays after the kept one opens a new event.
func collapseNearbyEvents(events []models.CrashEvent, coolingDays int) []models.CrashEvent {
	if len(events) == 0 {
		return []models.CrashEvent{}
	}

	collapsed := []models.CrashEvent{events[0]}
	for _, current := range events[1:] {
		last := &collapsed[len(collapsed)-1]
		if current.Index-last.Index > coolingDays {
			collapsed = append(collapsed, current)
			continue
		}
		if current.Severity > last.Severity {
			*last = current
		}
	}
	return collapsed
}

// DetectCrashEvents scores the series and extracts collapsed, ranked crash
// events according to the options.
func DetectCrashEvents(points []models.IndicatorPoint, opts DetectionOptions) DetectionResult {
	mode := opts.Mode
	if mode == "" {
		mode = models.ModeScore
	}

	threshold := DefaultScoreThreshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	coolingDays := DefaultCoolingDays
	if opts.CoolingDays != nil {
		coolingDays = *opts.CoolingDays
	}

	weights := MergeCrashWeights(opts.Weights)
	scored := computeScores(points, weights)

	var candidates []models.CrashEvent
	switch mode {
	case models.ModeSingle:
		rule := DefaultSingleRule()
		if opts.SingleRule != nil {
			rule = *opts.SingleRule
		}
		for i := range points {
			raw := FeatureValue(&points[i], rule.Feature)
			if raw == nil || !isFinite(*raw) || !evaluateRule(*raw, rule) {
				continue
			}
			candidates = append(candidates, models.CrashEvent{
				Index:      i,
				Symbol:     opts.Symbol,
				Date:       points[i].Date,
				CrashScore: scored[i].CrashScore,
				Severity:   math.Abs(*raw-rule.Value) * 100,
				Signals:    scored[i].Signals,
				Metrics:    map[models.CrashFeatureKey]float64{rule.Feature: *raw},
			})
		}
	default:
		for i := range scored {
			score := scored[i].CrashScore
			if score == nil || *score < threshold {
				continue
			}
			candidates = append(candidates, models.CrashEvent{
				Index:      i,
				Symbol:     opts.Symbol,
				Date:       points[i].Date,
				CrashScore: score,
				Severity:   *score,
				Signals:    scored[i].Signals,
				Metrics:    extractMetrics(&points[i]),
			})
		}
	}

	events := collapseNearbyEvents(candidates, coolingDays)

	ranking := append([]models.CrashEvent(nil), events...)
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Severity > ranking[j].Severity
	})

	return DetectionResult{
		ScoredPoints: scored,
		Events:       events,
		Ranking:      ranking,
	}
}
