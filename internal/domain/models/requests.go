package models

// MarketDataRequest asks for daily candles for one symbol.
type MarketDataRequest struct {
	Symbol string `query:"symbol" validate:"required"`
	Range  string `query:"range" default:"5y" validate:"omitempty,oneof=1mo 3mo 6mo 1y 2y 5y 10y max"`
}

// IndicatorsRequest asks for the derived indicator series.
type IndicatorsRequest struct {
	Symbol  string `query:"symbol" validate:"required"`
	Range   string `query:"range" default:"5y" validate:"omitempty,oneof=1mo 3mo 6mo 1y 2y 5y 10y max"`
	Profile string `query:"profile"`
}

// DetectRequest configures crash-event detection over a fetched series.
type DetectRequest struct {
	Symbol      string                `json:"symbol" validate:"required"`
	Range       string                `json:"range" default:"5y" validate:"omitempty,oneof=1mo 3mo 6mo 1y 2y 5y 10y max"`
	Profile     string                `json:"profile"`
	Mode        string                `json:"mode" default:"score" validate:"omitempty,oneof=score single"`
	Threshold   *float64              `json:"threshold" validate:"omitempty,gte=0,lte=100"`
	CoolingDays *int                  `json:"coolingDays" validate:"omitempty,gte=0"`
	Params      *IndicatorParamsPatch `json:"params"`
	SingleRule  *SingleRule           `json:"singleRule"`
	Weights     CrashScoreWeights     `json:"weights"`
	Persist     bool                  `json:"persist"`
}

// SimilarEventsRequest asks for historical events resembling the target.
type SimilarEventsRequest struct {
	DetectRequest

	TargetDate string `json:"targetDate" validate:"required"`
	TopN       int    `json:"topN" default:"5" validate:"omitempty,gte=1,lte=50"`
	PreDays    int    `json:"preDays" default:"10" validate:"omitempty,gte=1,lte=120"`
	PostDays   int    `json:"postDays" default:"50" validate:"omitempty,gte=1,lte=250"`
}

// BacktestRequest asks for one strategy simulation.
type BacktestRequest struct {
	DetectRequest

	TemplateID string               `json:"templateId" default:"mean-rebound" validate:"omitempty,oneof=mean-rebound ma200-reclaim"`
	Backtest   *BacktestParamsPatch `json:"backtest"`
}

// SettingsRequest saves per-profile overrides.
type SettingsRequest struct {
	Profile    string                `param:"profile" validate:"required"`
	Indicators *IndicatorParamsPatch `json:"indicators"`
	Backtest   *BacktestParamsPatch  `json:"backtest"`
}

// ScanRequest runs detection over a list of symbols; empty means the
// configured watchlist.
type ScanRequest struct {
	Symbols []string `json:"symbols" validate:"omitempty,max=100,dive,required"`
	Async   bool     `json:"async"`
}
