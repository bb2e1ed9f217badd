package analytics

import "CrashLens/internal/domain/models"

// DefaultIndicatorParams returns the fixed default window configuration.
func DefaultIndicatorParams() models.IndicatorParams {
	return models.IndicatorParams{
		ZScore:        models.ZScoreParams{Window: 20},
		RSI:           models.RSIParams{Window: 14},
		CRSI:          models.CRSIParams{RSIWindow: 3, StreakWindow: 2, RankWindow: 100},
		Drawdown:      models.DrawdownParams{Lookback: 252},
		DrawdownSpeed: models.DrawdownSpeedParams{Window1: 5, Window2: 10},
		ATR:           models.ATRParams{Window: 14},
		VolumeShock:   models.VolumeShockParams{Window: 20},
		MA200:         models.MA200Params{Window: 200, SlopeLookback: 5},
		GapDown:       models.GapDownParams{Window: 20, ThresholdPct: -2.0},
		Low52W:        models.Low52WParams{Window: 252},
		Breadth:       models.BreadthParams{Window: 20},
	}
}

// DefaultCrashScoreWeights returns the default feature weighting.
func DefaultCrashScoreWeights() models.CrashScoreWeights {
	return models.CrashScoreWeights{
		models.FeatureDrawdownRate:  0.18,
		models.FeatureDrawdownSpeed: 0.14,
		models.FeatureATRPct:        0.11,
		models.FeatureVolumeShock:   0.09,
		models.FeatureRegime200:     0.10,
		models.FeatureGapDownFreq:   0.08,
		models.FeatureZScore:        0.07,
		models.FeatureRSI:           0.05,
		models.FeatureCRSI:          0.05,
		models.FeatureLow52W:        0.05,
		models.FeatureBreadth:       0.08,
	}
}

// DefaultSingleRule is the fallback single-rule predicate.
func DefaultSingleRule() models.SingleRule {
	return models.SingleRule{
		Feature:  models.FeatureDrawdownRate,
		Operator: models.OpLTE,
		Value:    -0.15,
	}
}

const (
	DefaultScoreThreshold = 70.0
	DefaultCoolingDays    = 10
)

// MergeIndicatorParams applies a partial override on top of the defaults,
// falling back field by field. A nil patch yields the defaults unchanged.
func MergeIndicatorParams(patch *models.IndicatorParamsPatch) models.IndicatorParams {
	p := DefaultIndicatorParams()
	if patch == nil {
		return p
	}

	if patch.ZScore != nil {
		applyInt(&p.ZScore.Window, patch.ZScore.Window)
	}
	if patch.RSI != nil {
		applyInt(&p.RSI.Window, patch.RSI.Window)
	}
	if patch.CRSI != nil {
		applyInt(&p.CRSI.RSIWindow, patch.CRSI.RSIWindow)
		applyInt(&p.CRSI.StreakWindow, patch.CRSI.StreakWindow)
		applyInt(&p.CRSI.RankWindow, patch.CRSI.RankWindow)
	}
	if patch.Drawdown != nil {
		applyInt(&p.Drawdown.Lookback, patch.Drawdown.Lookback)
	}
	if patch.DrawdownSpeed != nil {
		applyInt(&p.DrawdownSpeed.Window1, patch.DrawdownSpeed.Window1)
		applyInt(&p.DrawdownSpeed.Window2, patch.DrawdownSpeed.Window2)
	}
	if patch.ATR != nil {
		applyInt(&p.ATR.Window, patch.ATR.Window)
	}
	if patch.VolumeShock != nil {
		applyInt(&p.VolumeShock.Window, patch.VolumeShock.Window)
	}
	if patch.MA200 != nil {
		applyInt(&p.MA200.Window, patch.MA200.Window)
		applyInt(&p.MA200.SlopeLookback, patch.MA200.SlopeLookback)
	}
	if patch.GapDown != nil {
		applyInt(&p.GapDown.Window, patch.GapDown.Window)
		applyFloat(&p.GapDown.ThresholdPct, patch.GapDown.ThresholdPct)
	}
	if patch.Low52W != nil {
		applyInt(&p.Low52W.Window, patch.Low52W.Window)
	}
	if patch.Breadth != nil {
		applyInt(&p.Breadth.Window, patch.Breadth.Window)
	}

	return p
}

// MergeCrashWeights overlays partial weights on top of the defaults.
func MergeCrashWeights(partial models.CrashScoreWeights) models.CrashScoreWeights {
	merged := DefaultCrashScoreWeights()
	for key, w := range partial {
		merged[key] = w
	}
	return merged
}

// MergeBacktestParams applies a partial override on top of the default
// simulator parameters.
func MergeBacktestParams(patch *models.BacktestParamsPatch) models.BacktestParams {
	p := DefaultBacktestParams()
	if patch == nil {
		return p
	}

	applyFloat(&p.EntryThreshold, patch.EntryThreshold)
	applyFloat(&p.RSIMax, patch.RSIMax)
	applyFloat(&p.TakeProfitPct, patch.TakeProfitPct)
	applyFloat(&p.StopLossPct, patch.StopLossPct)
	applyInt(&p.MaxHoldDays, patch.MaxHoldDays)
	applyInt(&p.ArmWindowDays, patch.ArmWindowDays)
	if patch.ApplyCosts != nil {
		p.ApplyCosts = *patch.ApplyCosts
	}
	applyFloat(&p.CostPct, patch.CostPct)
	applyFloat(&p.SlippagePct, patch.SlippagePct)

	return p
}

func applyInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func applyFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
