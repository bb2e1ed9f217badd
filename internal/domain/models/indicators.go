package models

// IndicatorParams holds window lengths per feature family. All windows are
// positive integers; defaults live in the analytics package.
type IndicatorParams struct {
	ZScore        ZScoreParams        `json:"zScore"`
	RSI           RSIParams           `json:"rsi"`
	CRSI          CRSIParams          `json:"crsi"`
	Drawdown      DrawdownParams      `json:"drawdown"`
	DrawdownSpeed DrawdownSpeedParams `json:"drawdownSpeed"`
	ATR           ATRParams           `json:"atr"`
	VolumeShock   VolumeShockParams   `json:"volumeShock"`
	MA200         MA200Params         `json:"ma200"`
	GapDown       GapDownParams       `json:"gapDown"`
	Low52W        Low52WParams        `json:"low52w"`
	Breadth       BreadthParams       `json:"breadth"`
}

type ZScoreParams struct {
	Window int `json:"window"`
}

type RSIParams struct {
	Window int `json:"window"`
}

type CRSIParams struct {
	RSIWindow    int `json:"rsiWindow"`
	StreakWindow int `json:"streakWindow"`
	RankWindow   int `json:"rankWindow"`
}

type DrawdownParams struct {
	Lookback int `json:"lookback"`
}

type DrawdownSpeedParams struct {
	Window1 int `json:"window1"`
	Window2 int `json:"window2"`
}

type ATRParams struct {
	Window int `json:"window"`
}

type VolumeShockParams struct {
	Window int `json:"window"`
}

type MA200Params struct {
	Window        int `json:"window"`
	SlopeLookback int `json:"slopeLookback"`
}

type GapDownParams struct {
	Window       int     `json:"window"`
	ThresholdPct float64 `json:"thresholdPct"`
}

type Low52WParams struct {
	Window int `json:"window"`
}

type BreadthParams struct {
	Window int `json:"window"`
}

// IndicatorParamsPatch is a partial override of IndicatorParams. Nil fields
// fall back to defaults field by field; unspecified nested values are never
// dropped by an override of a sibling.
type IndicatorParamsPatch struct {
	ZScore        *ZScoreParamsPatch        `json:"zScore,omitempty"`
	RSI           *RSIParamsPatch           `json:"rsi,omitempty"`
	CRSI          *CRSIParamsPatch          `json:"crsi,omitempty"`
	Drawdown      *DrawdownParamsPatch      `json:"drawdown,omitempty"`
	DrawdownSpeed *DrawdownSpeedParamsPatch `json:"drawdownSpeed,omitempty"`
	ATR           *ATRParamsPatch           `json:"atr,omitempty"`
	VolumeShock   *VolumeShockParamsPatch   `json:"volumeShock,omitempty"`
	MA200         *MA200ParamsPatch         `json:"ma200,omitempty"`
	GapDown       *GapDownParamsPatch       `json:"gapDown,omitempty"`
	Low52W        *Low52WParamsPatch        `json:"low52w,omitempty"`
	Breadth       *BreadthParamsPatch       `json:"breadth,omitempty"`
}

type ZScoreParamsPatch struct {
	Window *int `json:"window,omitempty"`
}

type RSIParamsPatch struct {
	Window *int `json:"window,omitempty"`
}

type CRSIParamsPatch struct {
	RSIWindow    *int `json:"rsiWindow,omitempty"`
	StreakWindow *int `json:"streakWindow,omitempty"`
	RankWindow   *int `json:"rankWindow,omitempty"`
}

type DrawdownParamsPatch struct {
	Lookback *int `json:"lookback,omitempty"`
}

type DrawdownSpeedParamsPatch struct {
	Window1 *int `json:"window1,omitempty"`
	Window2 *int `json:"window2,omitempty"`
}

type ATRParamsPatch struct {
	Window *int `json:"window,omitempty"`
}

type VolumeShockParamsPatch struct {
	Window *int `json:"window,omitempty"`
}

type MA200ParamsPatch struct {
	Window        *int `json:"window,omitempty"`
	SlopeLookback *int `json:"slopeLookback,omitempty"`
}

type GapDownParamsPatch struct {
	Window       *int     `json:"window,omitempty"`
	ThresholdPct *float64 `json:"thresholdPct,omitempty"`
}

type Low52WParamsPatch struct {
	Window *int `json:"window,omitempty"`
}

type BreadthParamsPatch struct {
	Window *int `json:"window,omitempty"`
}

// IndicatorPoint is a Candle extended with derived features. A nil field means
// the lookback window is not yet satisfied or a divisor was zero, never a
// computation error. Points are computed once per run and never mutated.
type IndicatorPoint struct {
	Candle

	DayReturnPct    *float64 `json:"dayReturnPct"`
	ZScore          *float64 `json:"zScore"`
	RSI             *float64 `json:"rsi"`
	CRSI            *float64 `json:"crsi"`
	DrawdownRate    *float64 `json:"drawdownRate"`
	DrawdownSpeed5  *float64 `json:"drawdownSpeed5"`
	DrawdownSpeed10 *float64 `json:"drawdownSpeed10"`
	DrawdownSpeed   *float64 `json:"drawdownSpeed"`
	ATR             *float64 `json:"atr"`
	ATRPct          *float64 `json:"atrPct"`
	VolumeShock     *float64 `json:"volumeShock"`
	SMA200          *float64 `json:"sma200"`
	Slope200        *float64 `json:"slope200"`
	Below200        *bool    `json:"below200"`
	Regime200       *float64 `json:"regime200"`
	GapDownPct      *float64 `json:"gapDownPct"`
	GapDownFreq     *float64 `json:"gapDownFreq"`
	Is52WLow        *bool    `json:"is52wLow"`
	Breadth         *float64 `json:"breadth"`
}
