package analytics

import (
	"fmt"
	"math"
	"sort"

	"CrashLens/internal/domain/models"
)

// orderedFeatures is the fixed layout of the feature vector; crashScore is
// appended as the final dimension.
var orderedFeatures = []models.CrashFeatureKey{
	models.FeatureDrawdownRate,
	models.FeatureDrawdownSpeed,
	models.FeatureATRPct,
	models.FeatureVolumeShock,
	models.FeatureRegime200,
	models.FeatureGapDownFreq,
	models.FeatureZScore,
	models.FeatureRSI,
	models.FeatureCRSI,
	models.FeatureLow52W,
	models.FeatureBreadth,
}

// SimilarityQuery asks for historical events resembling the target event.
type SimilarityQuery struct {
	Candles    []models.Candle
	Events     []models.CrashEvent
	TargetDate string
	TopN       int
	PreDays    int
	PostDays   int
}

const (
	defaultTopN     = 5
	defaultPreDays  = 10
	defaultPostDays = 50
)

// normalizeWindow rebases a price window to its first value so windows at
// different price levels compare shape, not level.
func normalizeWindow(values []float64) []float64 {
	if len(values) == 0 {
		return []float64{}
	}
	base := values[0]
	if base == 0 {
		base = 1
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v / base
	}
	return out
}

// dtwDistance is the classic dynamic time warping distance with absolute
// point cost and the three-neighbor recurrence, normalized by n+m.
func dtwDistance(a, b []float64) float64 {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	dp := make([][]float64, n+1)
	for i := range dp {
		dp[i] = make([]float64, m+1)
		for j := range dp[i] {
			dp[i][j] = math.Inf(1)
		}
	}
	dp[0][0] = 0

	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			cost := math.Abs(a[i-1] - b[j-1])
			dp[i][j] = cost + math.Min(dp[i-1][j-1], math.Min(dp[i-1][j], dp[i][j-1]))
		}
	}
	return dp[n][m] / float64(n+m)
}

func euclideanDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// cosineDistance is 1 - cosine similarity; zero-norm vectors are treated as
// maximally distant via a unit denominator.
func cosineDistance(a, b []float64) float64 {
	dot, normA, normB := 0.0, 0.0, 0.0
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom <= 1e-12 {
		denom = 1
	}
	return 1 - dot/denom
}

// minMaxNormalize maps values onto [0, 1]; a degenerate span collapses
// everything to 0.5.
func minMaxNormalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	span := maxV - minV
	for i, v := range values {
		if span <= 1e-12 {
			out[i] = 0.5
		} else {
			out[i] = (v - minV) / span
		}
	}
	return out
}

// standardize z-scores each dimension jointly across all vectors. Degenerate
// dimensions get a unit denominator so they contribute zero spread.
func standardize(vectors [][]float64) [][]float64 {
	if len(vectors) == 0 {
		return [][]float64{}
	}
	dims := len(vectors[0])
	n := float64(len(vectors))

	means := make([]float64, dims)
	for _, vec := range vectors {
		for d, v := range vec {
			means[d] += v
		}
	}
	for d := range means {
		means[d] /= n
	}

	stds := make([]float64, dims)
	for _, vec := range vectors {
		for d, v := range vec {
			diff := v - means[d]
			stds[d] += diff * diff
		}
	}
	denom := math.Max(n-1, 1)
	for d := range stds {
		stds[d] = math.Sqrt(stds[d] / denom)
		if stds[d] <= 1e-9 {
			stds[d] = 1
		}
	}

	out := make([][]float64, len(vectors))
	for i, vec := range vectors {
		row := make([]float64, dims)
		for d, v := range vec {
			row[d] = (v - means[d]) / stds[d]
		}
		out[i] = row
	}
	return out
}

// pickWindow slices the normalized close path around an event index, clipped
// to the series bounds.
func pickWindow(closes []float64, index, preDays, postDays int) []float64 {
	start := index - preDays
	if start < 0 {
		start = 0
	}
	end := index + postDays + 1
	if end > len(closes) {
		end = len(closes)
	}
	if start >= end {
		return []float64{}
	}
	return normalizeWindow(closes[start:end])
}

// buildFeatureVector assembles the metric vector for one event. The second
// return is false when any ordered feature is missing from the event metrics.
func buildFeatureVector(event models.CrashEvent) ([]float64, bool) {
	vec := make([]float64, 0, len(orderedFeatures)+1)
	for _, key := range orderedFeatures {
		v, ok := event.Metrics[key]
		if !ok {
			return nil, false
		}
		vec = append(vec, v)
	}
	if event.CrashScore != nil {
		vec = append(vec, *event.CrashScore)
	} else {
		vec = append(vec, 0)
	}
	return vec, true
}

// topReasons explains a match with its two closest standardized features plus
// the DTW price-path note.
func topReasons(target, candidate []float64, dtw float64) []models.SimilarityReason {
	type diff struct {
		key models.CrashFeatureKey
		gap float64
	}
	diffs := make([]diff, len(orderedFeatures))
	for i, key := range orderedFeatures {
		diffs[i] = diff{key: key, gap: math.Abs(target[i] - candidate[i])}
	}
	sort.SliceStable(diffs, func(i, j int) bool { return diffs[i].gap < diffs[j].gap })

	reasons := make([]models.SimilarityReason, 0, 3)
	for _, d := range diffs[:2] {
		reasons = append(reasons, models.SimilarityReason{
			Feature: string(d.key),
			Note:    fmt.Sprintf("small gap on %s", d.key),
		})
	}
	reasons = append(reasons, models.SimilarityReason{
		Feature: "pricePath",
		Note:    fmt.Sprintf("price path DTW distance=%.4f", dtw),
	})
	return reasons
}

// FindSimilarEvents ranks past crash events by closeness to the target event,
// combining standardized metric distance with a DTW distance over the
// surrounding price path.
func FindSimilarEvents(query SimilarityQuery) models.SimilarityResult {
	topN := query.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	preDays := query.PreDays
	if preDays <= 0 {
		preDays = defaultPreDays
	}
	postDays := query.PostDays
	if postDays <= 0 {
		postDays = defaultPostDays
	}

	result := models.SimilarityResult{
		TargetDate: query.TargetDate,
		Matches:    []models.SimilarMatch{},
	}

	normalized := normalizeCandles(query.Candles)
	closes := make([]float64, len(normalized))
	dateIndex := make(map[string]int, len(normalized))
	for i, c := range normalized {
		closes[i] = c.Close
		dateIndex[c.Date] = i
	}

	var target *models.CrashEvent
	for i := range query.Events {
		if query.Events[i].Date == query.TargetDate {
			target = &query.Events[i]
			break
		}
	}
	if target == nil {
		return result
	}

	targetVec, ok := buildFeatureVector(*target)
	if !ok {
		return result
	}

	type candidate struct {
		event models.CrashEvent
		vec   []float64
	}
	var candidates []candidate
	for _, event := range query.Events {
		if event.Date == query.TargetDate {
			continue
		}
		vec, ok := buildFeatureVector(event)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{event: event, vec: vec})
	}
	if len(candidates) == 0 {
		return result
	}

	// Standardize target and candidates jointly so no single vector dominates
	// the scale.
	all := make([][]float64, 0, len(candidates)+1)
	all = append(all, targetVec)
	for _, c := range candidates {
		all = append(all, c.vec)
	}
	standardized := standardize(all)
	stdTarget := standardized[0]

	// A target date absent from the candle history has no price path to
	// compare against, so there is nothing to rank.
	targetIdx, ok := dateIndex[target.Date]
	if !ok {
		return result
	}
	targetWindow := pickWindow(closes, targetIdx, preDays, postDays)

	type scoredCandidate struct {
		event   models.CrashEvent
		stdVec  []float64
		feature float64
		dtw     float64
	}

	dim := float64(len(stdTarget))
	kept := make([]scoredCandidate, 0, len(candidates))
	for i, c := range candidates {
		idx, ok := dateIndex[c.event.Date]
		if !ok {
			continue
		}
		window := pickWindow(closes, idx, preDays, postDays)
		dtw := dtwDistance(targetWindow, window)
		if !isFinite(dtw) {
			continue
		}

		stdCand := standardized[i+1]
		feature := 0.6*cosineDistance(stdTarget, stdCand) +
			0.4*(euclideanDistance(stdTarget, stdCand)/math.Sqrt(dim))
		kept = append(kept, scoredCandidate{event: c.event, stdVec: stdCand, feature: feature, dtw: dtw})
	}
	if len(kept) == 0 {
		return result
	}

	featureDists := make([]float64, len(kept))
	dtwDists := make([]float64, len(kept))
	for i, c := range kept {
		featureDists[i] = c.feature
		dtwDists[i] = c.dtw
	}
	normFeature := minMaxNormalize(featureDists)
	normDTW := minMaxNormalize(dtwDists)

	matches := make([]models.SimilarMatch, len(kept))
	for i, c := range kept {
		combined := 0.65*normFeature[i] + 0.35*normDTW[i]
		matches[i] = models.SimilarMatch{
			Date:             c.event.Date,
			SimilarityScore:  Clamp((1-combined)*100, 0, 100),
			CombinedDistance: combined,
			FeatureDistance:  c.feature,
			DTWDistance:      c.dtw,
			Reasons:          topReasons(stdTarget, c.stdVec, c.dtw),
			Metrics:          c.event.Metrics,
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CombinedDistance < matches[j].CombinedDistance
	})
	if len(matches) > topN {
		matches = matches[:topN]
	}

	result.Matches = matches
	return result
}
