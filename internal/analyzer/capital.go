package analyzer

import (
	"fmt"

	"EtfSentry/internal/calculator"
	"EtfSentry/internal/model"
)

// Capital implements 资金面分析: 恶炒消耗资金. A rally that needs ever more
// turnover per point of price gain is consuming capital and will stall;
// a decline on drying volume signals sell-side exhaustion.
//
// The consumption cut-offs below are heuristic tuning constants carried as
// named configuration of the analyzer, not empirically validated ratios.
type Capital struct {
	// DeteriorationRatio: recent capital consumption per unit move must
	// exceed the prior period by this factor to count as 恶炒.
	DeteriorationRatio float64
	// ExhaustionRatio: recent volume below this fraction of the longer
	// average counts as sell-side exhaustion on a decline.
	ExhaustionRatio float64
}

func NewCapital() *Capital {
	return &Capital{DeteriorationRatio: 2.0, ExhaustionRatio: 0.6}
}

func (a *Capital) Kind() model.AnalyzerKind { return model.KindCapital }

func (a *Capital) MinLookback() int { return 40 }

func (a *Capital) Score(snap *model.MarketSnapshot) (model.AnalyzerScore, error) {
	if len(snap.Bars) < a.MinLookback() {
		return model.AnalyzerScore{}, fmt.Errorf("capital %s: %d bars < %d: %w",
			snap.Symbol, len(snap.Bars), a.MinLookback(), model.ErrInsufficientHistory)
	}

	weekly := calculator.AggregateWeekly(snap.Bars)
	if len(weekly) < 8 {
		return model.AnalyzerScore{}, fmt.Errorf("capital %s: %d weekly bars < 8: %w",
			snap.Symbol, len(weekly), model.ErrInsufficientHistory)
	}

	// Split the last 8 weeks into two halves and compare the dollar volume
	// consumed per unit of absolute price movement.
	window := weekly[len(weekly)-8:]
	prior, recent := window[:4], window[4:]

	priorEff := consumption(prior)
	recentEff := consumption(recent)

	priceTrend := calculator.Momentum(weekly, 4)

	recentVol := avgVolume(recent)
	longerVol := avgVolume(weekly[max(0, len(weekly)-13):])

	switch {
	case priceTrend > 0.02 && priorEff > 0 && recentEff > priorEff*a.DeteriorationRatio:
		// Rising price, sharply deteriorating capital efficiency: the rally
		// is being bought at an unsustainable cost.
		ratio := recentEff / priorEff
		return model.AnalyzerScore{
			Kind:       model.KindCapital,
			Direction:  model.Bearish,
			Magnitude:  clamp01(0.4 + 0.1*ratio/a.DeteriorationRatio),
			Confidence: 0.7,
			Rationale:  fmt.Sprintf("上涨但资金消耗升至前期%.1f倍，恶炒特征，拉抬性弱", ratio),
		}, nil
	case priceTrend < -0.02 && longerVol > 0 && recentVol < longerVol*a.ExhaustionRatio:
		// Falling price on drying volume: sellers are exhausted.
		return model.AnalyzerScore{
			Kind:       model.KindCapital,
			Direction:  model.Bullish,
			Magnitude:  clamp01(1 - recentVol/longerVol),
			Confidence: 0.65,
			Rationale:  fmt.Sprintf("下跌缩量至均量%.0f%%，卖压衰竭", recentVol/longerVol*100),
		}, nil
	case priceTrend > 0.02 && priorEff > 0 && recentEff < priorEff:
		// Rising price on improving efficiency: healthy, sustainable demand.
		return model.AnalyzerScore{
			Kind:       model.KindCapital,
			Direction:  model.Bullish,
			Magnitude:  clamp01(0.3 + 0.3*(1-recentEff/priorEff)),
			Confidence: 0.6,
			Rationale:  "上涨且资金效率改善，资金面健康，拉抬性强",
		}, nil
	}

	return model.AnalyzerScore{
		Kind:       model.KindCapital,
		Direction:  model.Neutral,
		Magnitude:  0.2,
		Confidence: 0.5,
		Rationale:  "资金消耗与价格走势匹配，资金面中性",
	}, nil
}

// consumption returns the dollar volume spent per unit of absolute price
// movement over the given weeks. Higher means less efficient.
func consumption(weeks []model.OHLCV) float64 {
	if len(weeks) < 2 {
		return 0
	}
	var amount float64
	for _, w := range weeks {
		amount += w.Close * w.Volume
	}
	move := weeks[len(weeks)-1].Close - weeks[0].Close
	if move < 0 {
		move = -move
	}
	if move < 1e-9 {
		return 0
	}
	return amount / move
}

func avgVolume(weeks []model.OHLCV) float64 {
	if len(weeks) == 0 {
		return 0
	}
	var sum float64
	for _, w := range weeks {
		sum += w.Volume
	}
	return sum / float64(len(weeks))
}
