package models

// BacktestTemplateID identifies a strategy template.
type BacktestTemplateID string

const (
	TemplateMeanRebound  BacktestTemplateID = "mean-rebound"
	TemplateMA200Reclaim BacktestTemplateID = "ma200-reclaim"
)

// BacktestParams configures a simulator run.
type BacktestParams struct {
	EntryThreshold float64 `json:"entryThreshold"`
	RSIMax         float64 `json:"rsiMax"`
	TakeProfitPct  float64 `json:"takeProfitPct"`
	StopLossPct    float64 `json:"stopLossPct"`
	MaxHoldDays    int     `json:"maxHoldDays"`
	ArmWindowDays  int     `json:"armWindowDays"`
	ApplyCosts     bool    `json:"applyCosts"`
	CostPct        float64 `json:"costPct"`
	SlippagePct    float64 `json:"slippagePct"`
}

// BacktestParamsPatch is a partial override merged field by field against the
// default parameters.
type BacktestParamsPatch struct {
	EntryThreshold *float64 `json:"entryThreshold,omitempty"`
	RSIMax         *float64 `json:"rsiMax,omitempty"`
	TakeProfitPct  *float64 `json:"takeProfitPct,omitempty"`
	StopLossPct    *float64 `json:"stopLossPct,omitempty"`
	MaxHoldDays    *int     `json:"maxHoldDays,omitempty"`
	ArmWindowDays  *int     `json:"armWindowDays,omitempty"`
	ApplyCosts     *bool    `json:"applyCosts,omitempty"`
	CostPct        *float64 `json:"costPct,omitempty"`
	SlippagePct    *float64 `json:"slippagePct,omitempty"`
}

// BacktestTrade is one closed round trip. Gross return is price-only; net
// return is capital-after over capital-before including costs.
type BacktestTrade struct {
	EntryDate      string  `json:"entryDate"`
	ExitDate       string  `json:"exitDate"`
	EntryPrice     float64 `json:"entryPrice"`
	ExitPrice      float64 `json:"exitPrice"`
	GrossReturnPct float64 `json:"grossReturnPct"`
	NetReturnPct   float64 `json:"netReturnPct"`
	HoldingDays    int     `json:"holdingDays"`
	ExitReason     string  `json:"exitReason"`
}

// EquityPoint is the mark-to-market equity at one bar.
type EquityPoint struct {
	Date   string  `json:"date"`
	Equity float64 `json:"equity"`
}

// BacktestSummary holds run-level performance metrics.
type BacktestSummary struct {
	TemplateID         BacktestTemplateID `json:"templateId"`
	TotalReturnPct     float64            `json:"totalReturnPct"`
	CAGRPct            float64            `json:"cagrPct"`
	MaxDrawdownPct     float64            `json:"maxDrawdownPct"`
	Sharpe             float64            `json:"sharpe"`
	Sortino            float64            `json:"sortino"`
	Calmar             float64            `json:"calmar"`
	WinRatePct         float64            `json:"winRatePct"`
	ProfitFactor       float64            `json:"profitFactor"`
	AverageHoldingDays float64            `json:"averageHoldingDays"`
	Trades             int                `json:"trades"`
}

// BacktestResult bundles the outputs of one simulator run.
type BacktestResult struct {
	Summary     BacktestSummary `json:"summary"`
	EquityCurve []EquityPoint   `json:"equityCurve"`
	Trades      []BacktestTrade `json:"trades"`
}

// BacktestTemplate describes a strategy template for clients.
type BacktestTemplate struct {
	ID            BacktestTemplateID `json:"id"`
	Label         string             `json:"label"`
	Description   string             `json:"description"`
	DefaultParams BacktestParams     `json:"defaultParams"`
}
