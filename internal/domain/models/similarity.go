package models

// SimilarityReason is a human-readable note on why a match ranked well. The
// feature is either a CrashFeatureKey or "pricePath" for the DTW component.
type SimilarityReason struct {
	Feature string `json:"feature"`
	Note    string `json:"note"`
}

// SimilarMatch is one ranked candidate from the similarity engine.
type SimilarMatch struct {
	Date             string                      `json:"date"`
	SimilarityScore  float64                     `json:"similarityScore"`
	CombinedDistance float64                     `json:"combinedDistance"`
	FeatureDistance  float64                     `json:"featureDistance"`
	DTWDistance      float64                     `json:"dtwDistance"`
	Reasons          []SimilarityReason          `json:"reasons"`
	Metrics          map[CrashFeatureKey]float64 `json:"metrics"`
}

// SimilarityResult holds the ranked matches for a target event date. An
// absent target or empty candidate pool yields an empty match list.
type SimilarityResult struct {
	TargetDate string         `json:"targetDate"`
	Matches    []SimilarMatch `json:"matches"`
}
