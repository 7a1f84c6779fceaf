package analyzer

import (
	"fmt"
	"math"
	"strings"

	"EtfSentry/internal/calculator"
	"EtfSentry/internal/model"
)

// Strength implements 强弱分析法: 该涨不涨看跌，该跌不跌看涨.
// When a strong short-term impulse hits the market and price refuses to
// follow, the medium-term forces point the other way. Analysis runs at the
// weekly level to reduce daily noise.
type Strength struct{}

func NewStrength() *Strength { return &Strength{} }

func (a *Strength) Kind() model.AnalyzerKind { return model.KindStrength }

func (a *Strength) MinLookback() int { return 60 }

func (a *Strength) Score(snap *model.MarketSnapshot) (model.AnalyzerScore, error) {
	if len(snap.Bars) < a.MinLookback() {
		return model.AnalyzerScore{}, fmt.Errorf("strength %s: %d bars < %d: %w",
			snap.Symbol, len(snap.Bars), a.MinLookback(), model.ErrInsufficientHistory)
	}

	weekly := calculator.AggregateWeekly(snap.Bars)
	changes := calculator.PctChanges(weekly)

	score := 0
	var reasons []string

	latest := weekly[len(weekly)-1]

	// Long-window volume average (13 weeks ≈ quarterly).
	volWindow := 13
	if volWindow > len(weekly) {
		volWindow = len(weekly)
	}
	var volSum float64
	for _, w := range weekly[len(weekly)-volWindow:] {
		volSum += w.Volume
	}
	volMaLong := volSum / float64(volWindow)

	// Last 3 completed weeks: does volume dry up against the move?
	recentN := 3
	if recentN >= len(weekly) {
		recentN = len(weekly) - 1
	}
	var downVols, upVols []float64
	for i := len(weekly) - recentN; i < len(weekly); i++ {
		switch {
		case changes[i] < 0:
			downVols = append(downVols, weekly[i].Volume)
		case changes[i] > 0:
			upVols = append(upVols, weekly[i].Volume)
		}
	}
	if len(downVols) >= 2 && calculator.Mean(downVols) < volMaLong*0.7 {
		score += 2
		reasons = append(reasons, "下跌缩量，卖压减轻")
	}
	if len(upVols) >= 2 && calculator.Mean(upVols) < volMaLong*0.7 {
		score -= 2
		reasons = append(reasons, "上涨缩量，买盘不足")
	}

	// Weekly RSI(6) zones and divergence against the 10-week lookback.
	rsi, _ := calculator.RSI(weekly, 6)
	if rsi < 35 {
		if divergedLow(weekly, 10) {
			score += 2
			reasons = append(reasons, "RSI底背离")
		} else {
			score++
			reasons = append(reasons, "RSI超卖区域")
		}
	} else if rsi > 70 {
		if divergedHigh(weekly, 10) {
			score -= 2
			reasons = append(reasons, "RSI顶背离")
		} else {
			score--
			reasons = append(reasons, "RSI超买区域")
		}
	}

	// Bollinger position (10-week band).
	if bb, err := calculator.BollingerPosition(weekly, 10); err == nil {
		if bb < 0.2 {
			score++
			reasons = append(reasons, "接近布林带下轨")
		} else if bb > 0.8 {
			score--
			reasons = append(reasons, "接近布林带上轨")
		}
	}

	// MACD histogram vs price direction over the recent weeks.
	hist := calculator.MACDHistogram(weekly, 6, 13, 4)
	if len(hist) >= 6 {
		histTrend := calculator.Mean(hist[len(hist)-3:]) - calculator.Mean(hist[len(hist)-6:len(hist)-3])
		priceTrend := calculator.Momentum(weekly, 3)
		if histTrend > 0 && priceTrend < 0 {
			score++
			reasons = append(reasons, "MACD底背离")
		} else if histTrend < 0 && priceTrend > 0 {
			score--
			reasons = append(reasons, "MACD顶背离")
		}
	}

	// Moving-average alignment: trend protection against counter-trend
	// signals, reinforcement for with-trend ones.
	dir, confirmed := weeklyTrend(weekly)
	if confirmed {
		switch {
		case dir > 0 && score < 0:
			score += 2
			reasons = append(reasons, "上升趋势保护")
		case dir < 0 && score > 0:
			score -= 2
			reasons = append(reasons, "下降趋势警示")
		case dir > 0 && score > 0:
			score++
			reasons = append(reasons, "顺势做多")
		case dir < 0 && score < 0:
			score--
			reasons = append(reasons, "顺势做空")
		}
	}

	// Momentum extremes relative to price position.
	mom := calculator.Momentum(weekly, 4)
	pos := calculator.PricePosition(weekly)
	if mom < -0.10 && pos > 0.3 {
		score++
		reasons = append(reasons, "动量超跌")
	} else if mom > 0.15 && pos < 0.7 {
		score--
		reasons = append(reasons, "动量过热")
	}

	return scoreToResult(model.KindStrength, score, latest.Close, reasons), nil
}

// weeklyTrend reports the moving-average alignment: +1 bull, -1 bear,
// 0 sideways; confirmed when the full 4/13/26-week ladder lines up.
func weeklyTrend(weekly []model.OHLCV) (dir int, confirmed bool) {
	closes := calculator.Closes(weekly)
	maShort, err1 := calculator.SMA(closes, 4)
	maMid, err2 := calculator.SMA(closes, 13)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	price := closes[len(closes)-1]
	maLong, err3 := calculator.SMA(closes, 26)

	if err3 == nil && price > maShort && maShort > maMid && maMid > maLong {
		return 1, true
	}
	if err3 == nil && price < maShort && maShort < maMid && maMid < maLong {
		return -1, true
	}
	if price > maShort && maShort > maMid {
		return 1, true
	}
	if price < maShort && maShort < maMid {
		return -1, true
	}
	return 0, false
}

// divergedLow reports an RSI bottom divergence: the latest close is above
// the close at the lookback's lowest close while RSI sits in oversold.
func divergedLow(weekly []model.OHLCV, lookback int) bool {
	if len(weekly) < lookback+1 {
		return false
	}
	window := weekly[len(weekly)-1-lookback : len(weekly)-1]
	lowIdx := 0
	for i, w := range window {
		if w.Close < window[lowIdx].Close {
			lowIdx = i
		}
	}
	return weekly[len(weekly)-1].Close > window[lowIdx].Close
}

// divergedHigh reports an RSI top divergence: the latest close is below
// the close at the lookback's highest close while RSI sits in overbought.
func divergedHigh(weekly []model.OHLCV, lookback int) bool {
	if len(weekly) < lookback+1 {
		return false
	}
	window := weekly[len(weekly)-1-lookback : len(weekly)-1]
	highIdx := 0
	for i, w := range window {
		if w.Close > window[highIdx].Close {
			highIdx = i
		}
	}
	return weekly[len(weekly)-1].Close < window[highIdx].Close
}

// scoreToResult maps an integer strength score onto the normalized scale.
// |score| < 3 is neutral (the original buy/sell cut-off); magnitude grows
// linearly and saturates at |score| = 6.
func scoreToResult(kind model.AnalyzerKind, score int, price float64, reasons []string) model.AnalyzerScore {
	dir := model.Neutral
	if score >= 3 {
		dir = model.Bullish
	} else if score <= -3 {
		dir = model.Bearish
	}

	magnitude := clamp01(math.Abs(float64(score)) / 6.0)
	confidence := clamp01(0.4 + 0.1*float64(len(reasons)))

	rationale := "震荡，无明确强弱信号"
	if len(reasons) > 0 {
		rationale = strings.Join(reasons, "；")
	}
	rationale = fmt.Sprintf("%s（评分%+d，现价%.3f）", rationale, score, price)

	return model.AnalyzerScore{
		Kind:       kind,
		Direction:  dir,
		Magnitude:  magnitude,
		Confidence: confidence,
		Rationale:  rationale,
	}
}
