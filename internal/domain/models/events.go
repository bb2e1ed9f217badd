package models

// CrashFeatureKey is the closed enumeration of features that feed the
// composite crash score.
type CrashFeatureKey string

const (
	FeatureZScore        CrashFeatureKey = "zScore"
	FeatureRSI           CrashFeatureKey = "rsi"
	FeatureCRSI          CrashFeatureKey = "crsi"
	FeatureDrawdownRate  CrashFeatureKey = "drawdownRate"
	FeatureDrawdownSpeed CrashFeatureKey = "drawdownSpeed"
	FeatureATRPct        CrashFeatureKey = "atrPct"
	FeatureVolumeShock   CrashFeatureKey = "volumeShock"
	FeatureRegime200     CrashFeatureKey = "regime200"
	FeatureGapDownFreq   CrashFeatureKey = "gapDownFreq"
	FeatureLow52W        CrashFeatureKey = "low52w"
	FeatureBreadth       CrashFeatureKey = "breadth"
)

// CrashScoreWeights maps features to nonnegative weights. Only present,
// finite, positive weights contribute; they need not sum to 1.
type CrashScoreWeights map[CrashFeatureKey]float64

// DetectionMode selects how candidate events are found.
type DetectionMode string

const (
	ModeScore  DetectionMode = "score"
	ModeSingle DetectionMode = "single"
)

// RuleOperator is a comparison operator for single-rule detection.
type RuleOperator string

const (
	OpLT  RuleOperator = "<"
	OpLTE RuleOperator = "<="
	OpGT  RuleOperator = ">"
	OpGTE RuleOperator = ">="
)

// SingleRule is a threshold predicate over one raw feature, an alternative to
// composite scoring.
type SingleRule struct {
	Feature  CrashFeatureKey `json:"feature"`
	Operator RuleOperator    `json:"operator"`
	Value    float64         `json:"value"`
}

// ScoredPoint is an IndicatorPoint plus its composite crash score (0-100,
// nil when no feature contributed) and per-feature normalized signals.
type ScoredPoint struct {
	IndicatorPoint

	CrashScore *float64                    `json:"crashScore"`
	Signals    map[CrashFeatureKey]float64 `json:"signals"`
}

// CrashEvent is one (possibly collapsed) detection. Severity is always
// numeric and drives ranking and cooling-period collapse; CrashScore may be
// nil in single-rule mode before enough features warm up.
type CrashEvent struct {
	Index      int                         `json:"index"`
	Symbol     string                      `json:"symbol,omitempty"`
	Date       string                      `json:"date"`
	CrashScore *float64                    `json:"crashScore"`
	Severity   float64                     `json:"severity"`
	Signals    map[CrashFeatureKey]float64 `json:"signals"`
	Metrics    map[CrashFeatureKey]float64 `json:"metrics"`
}
