package analyzer

import (
	"fmt"

	"EtfSentry/internal/calculator"
	"EtfSentry/internal/model"
)

// Hedge implements 对冲思维: 以变应变. It does not predict direction; it
// measures how much protection the current regime demands. Deep drawdown,
// expanding volatility, or a long losing streak all argue for cutting
// exposure regardless of what the other analyzers say.
type Hedge struct{}

func NewHedge() *Hedge { return &Hedge{} }

func (a *Hedge) Kind() model.AnalyzerKind { return model.KindHedge }

func (a *Hedge) MinLookback() int { return 30 }

func (a *Hedge) Score(snap *model.MarketSnapshot) (model.AnalyzerScore, error) {
	if len(snap.Bars) < a.MinLookback() {
		return model.AnalyzerScore{}, fmt.Errorf("hedge %s: %d bars < %d: %w",
			snap.Symbol, len(snap.Bars), a.MinLookback(), model.ErrInsufficientHistory)
	}

	dd := calculator.Drawdown(snap.Bars)

	// Volatility regime: daily-change std over the last 10 bars vs the
	// last 30. A ratio well above 1 means the regime is heating up.
	changes := calculator.PctChanges(snap.Bars)
	volRatio := 1.0
	if len(changes) >= 30 {
		recent := calculator.StdDev(changes[len(changes)-10:])
		longer := calculator.StdDev(changes[len(changes)-30:])
		if longer > 0 {
			volRatio = recent / longer
		}
	}

	_, losing := streaks(snap.Bars)

	// Severity in [0,1] from the three risk dimensions.
	severity := 0.0
	var reasons []string
	if dd > 0.05 {
		severity += clip((dd-0.05)/0.20, 0, 1) * 0.5
		reasons = append(reasons, fmt.Sprintf("回撤%.1f%%", dd*100))
	}
	if volRatio > 1.3 {
		severity += clip((volRatio-1.3)/1.0, 0, 1) * 0.3
		reasons = append(reasons, fmt.Sprintf("波动放大%.1f倍", volRatio))
	}
	if losing >= 4 {
		severity += clip(float64(losing-3)/4.0, 0, 1) * 0.2
		reasons = append(reasons, fmt.Sprintf("连跌%d日", losing))
	}
	severity = clamp01(severity)

	if severity < 0.15 {
		mom := calculator.Momentum(snap.Bars, 20)
		rationale := "风险平稳，无需对冲"
		if mom > 0 && dd < 0.03 {
			rationale = "低波动上行，风险可控，无需对冲"
		}
		return model.AnalyzerScore{
			Kind:       model.KindHedge,
			Direction:  model.Neutral,
			Magnitude:  severity,
			Confidence: 0.6,
			Rationale:  rationale,
		}, nil
	}

	// Confidence scales with severity: the deeper the stress, the surer
	// the call to reduce exposure.
	confidence := clamp01(0.5 + severity*0.45)

	rationale := "风险升温，以变应变，建议降低敞口"
	if len(reasons) > 0 {
		rationale = fmt.Sprintf("%s：%s", rationale, joinReasons(reasons))
	}

	return model.AnalyzerScore{
		Kind:       model.KindHedge,
		Direction:  model.Bearish,
		Magnitude:  severity,
		Confidence: confidence,
		Rationale:  rationale,
	}, nil
}

func joinReasons(reasons []string) string {
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += "，" + r
	}
	return out
}
