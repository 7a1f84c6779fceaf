package analyzer

import (
	"fmt"

	"EtfSentry/internal/calculator"
	"EtfSentry/internal/model"
)

// Emotion implements 情绪周期分析: 行情在绝望中产生，犹豫中发展，疯狂中消亡.
// The phase verdict is contrarian: despair is a buying phase, frenzy a
// selling phase, hesitation calls for holding.
type Emotion struct{}

func NewEmotion() *Emotion { return &Emotion{} }

func (a *Emotion) Kind() model.AnalyzerKind { return model.KindEmotion }

func (a *Emotion) MinLookback() int { return 60 }

// phase labels, reported in the rationale.
const (
	phaseDespair    = "绝望期"
	phaseHesitation = "犹豫期"
	phaseFrenzy     = "疯狂期"
)

func (a *Emotion) Score(snap *model.MarketSnapshot) (model.AnalyzerScore, error) {
	if len(snap.Bars) < a.MinLookback() {
		return model.AnalyzerScore{}, fmt.Errorf("emotion %s: %d bars < %d: %w",
			snap.Symbol, len(snap.Bars), a.MinLookback(), model.ErrInsufficientHistory)
	}

	weekly := calculator.AggregateWeekly(snap.Bars)
	index := emotionIndex(weekly)
	rsi, _ := calculator.RSI(weekly, 6)
	pos := calculator.PricePosition(weekly)

	// Phase scoring: each dimension votes; the phase with the most votes
	// wins, with consistency corrections so RSI cannot contradict the call.
	var despair, hesitation, frenzy int

	switch {
	case index < -0.4:
		despair += 5
	case index < -0.2:
		despair += 3
		hesitation++
	case index < 0.2:
		hesitation += 5
	case index < 0.4:
		hesitation += 2
		frenzy += 2
	default:
		frenzy += 5
	}

	switch {
	case rsi < 30:
		despair += 4
	case rsi < 40:
		despair += 2
		hesitation++
	case rsi < 60:
		hesitation += 3
	case rsi < 70:
		hesitation += 2
		frenzy++
	default:
		frenzy += 4
	}

	switch {
	case pos < 0.2:
		despair += 2
	case pos < 0.4:
		despair++
	case pos < 0.6:
		hesitation += 2
	case pos < 0.8:
		frenzy++
	default:
		frenzy += 2
	}

	// Streak votes.
	up, down := streaks(weekly)
	switch {
	case down >= 3:
		despair += 2
	case up >= 3:
		frenzy += 2
	default:
		hesitation++
	}

	// Consistency corrections.
	if rsi >= 40 && rsi <= 65 && index >= -0.2 && index <= 0.2 {
		hesitation += 3
	}
	if rsi < 40 && frenzy > despair {
		despair += 3
		frenzy -= 2
	}
	if rsi > 65 && despair > frenzy {
		frenzy += 3
		despair -= 2
	}

	phase, phaseScore := phaseHesitation, hesitation
	if despair > phaseScore {
		phase, phaseScore = phaseDespair, despair
	}
	if frenzy > phaseScore {
		phase, phaseScore = phaseFrenzy, frenzy
	}

	total := despair + hesitation + frenzy
	strength := 0.0
	if total > 0 {
		strength = float64(phaseScore) / float64(total)
	}

	var dir model.Direction
	var rationale string
	switch phase {
	case phaseDespair:
		dir = model.Bullish
		rationale = "处于绝望期，净卖盘衰竭，逆向买入机会"
	case phaseFrenzy:
		dir = model.Bearish
		rationale = "处于疯狂期，净买盘衰竭，注意风险"
	default:
		dir = model.Neutral
		rationale = "处于犹豫期，换手充分，持有观望"
	}

	// Confidence rises when RSI and the emotion index agree with the phase.
	confidence := 0.5
	if (phase == phaseDespair && rsi < 35 && index < -0.3) ||
		(phase == phaseFrenzy && rsi > 70 && index > 0.3) {
		confidence = 0.85
	} else if strength > 0.5 {
		confidence = 0.7
	}

	return model.AnalyzerScore{
		Kind:       model.KindEmotion,
		Direction:  dir,
		Magnitude:  clamp01(strength),
		Confidence: clamp01(confidence),
		Rationale:  fmt.Sprintf("%s（情绪指数%+.2f，周RSI=%.0f，位置%.0f%%）", rationale, index, rsi, pos*100),
	}, nil
}

// emotionIndex combines RSI, price position, volume z-score, volatility
// ratio, momentum, and the up-week ratio into a -1 (extreme fear) to
// +1 (extreme greed) index.
func emotionIndex(weekly []model.OHLCV) float64 {
	rsi, _ := calculator.RSI(weekly, 6)
	rsiNorm := (rsi - 50) / 50

	posNorm := calculator.PricePosition(weekly)*2 - 1

	// Volume z-score over a 10-week window, clipped to ±2.
	volNorm := 0.0
	if len(weekly) >= 10 {
		window := weekly[len(weekly)-10:]
		vols := make([]float64, len(window))
		for i, w := range window {
			vols[i] = w.Volume
		}
		if sd := calculator.StdDev(vols); sd > 0 {
			z := (weekly[len(weekly)-1].Volume - calculator.Mean(vols)) / sd
			volNorm = clip(z, -2, 2) / 2
		}
	}

	// Volatility ratio: recent vs longer-window std of weekly changes.
	volatilityNorm := 0.0
	changes := calculator.PctChanges(weekly)
	if len(changes) >= 16 {
		recent := calculator.StdDev(changes[len(changes)-8:])
		longer := calculator.StdDev(changes[len(changes)-16:])
		if longer > 0 {
			ratio := clip(recent/longer, 0.5, 2)
			volatilityNorm = (ratio - 1.25) / 0.75
		}
	}

	momNorm := clip(calculator.Momentum(weekly, 4)*100, -20, 20) / 20

	upRatioNorm := 0.0
	if len(changes) >= 8 {
		ups := 0
		for _, c := range changes[len(changes)-8:] {
			if c > 0 {
				ups++
			}
		}
		upRatioNorm = float64(ups)/8*2 - 1
	}

	return rsiNorm*0.25 + posNorm*0.20 + volNorm*0.15 +
		volatilityNorm*0.10 + momNorm*0.15 + upRatioNorm*0.15
}

// streaks returns the current consecutive up- and down-week counts.
func streaks(weekly []model.OHLCV) (up, down int) {
	changes := calculator.PctChanges(weekly)
	for i := len(changes) - 1; i > 0; i-- {
		if changes[i] > 0 {
			if down > 0 {
				return
			}
			up++
		} else if changes[i] < 0 {
			if up > 0 {
				return
			}
			down++
		} else {
			return
		}
	}
	return
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
