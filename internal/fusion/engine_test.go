package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EtfSentry/internal/config"
	"EtfSentry/internal/model"
)

func testEngine() *Engine {
	return NewEngine(
		config.Weights{Strength: 0.40, Emotion: 0.25, Capital: 0.15, Hedge: 0.20},
		config.Thresholds{Neutrality: 0.15, Buy: 0.35, Sell: 0.35, HedgeOverride: 0.75},
		config.Constraints{MaxPositionPct: 0.25, MinCashReservePct: 0.20, MaxSectorConcentrationPct: 0.40},
	)
}

func score(kind model.AnalyzerKind, dir model.Direction, mag, conf float64) model.AnalyzerScore {
	return model.AnalyzerScore{Kind: kind, Direction: dir, Magnitude: mag, Confidence: conf}
}

func allNeutral() []model.AnalyzerScore {
	return []model.AnalyzerScore{
		score(model.KindStrength, model.Neutral, 0.2, 0.5),
		score(model.KindEmotion, model.Neutral, 0.1, 0.5),
		score(model.KindCapital, model.Neutral, 0.2, 0.5),
		score(model.KindHedge, model.Neutral, 0.0, 0.6),
	}
}

func TestNeutralScoresHold(t *testing.T) {
	d, err := testEngine().Decide("510300", "沪深300ETF", 0.1, allNeutral())
	require.NoError(t, err)
	assert.Equal(t, model.ActionHold, d.Action)
	assert.Zero(t, d.Strength)
	assert.InDelta(t, 0.0, d.Composite, 1e-9)
}

func TestDecideDeterministic(t *testing.T) {
	scores := []model.AnalyzerScore{
		score(model.KindStrength, model.Bullish, 0.7, 0.8),
		score(model.KindEmotion, model.Bearish, 0.4, 0.6),
		score(model.KindCapital, model.Neutral, 0.2, 0.5),
		score(model.KindHedge, model.Neutral, 0.1, 0.6),
	}
	e := testEngine()
	first, err := e.Decide("510050", "上证50ETF", 0.05, scores)
	require.NoError(t, err)
	second, err := e.Decide("510050", "上证50ETF", 0.05, scores)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMissingKindFailsIncomplete(t *testing.T) {
	scores := allNeutral()[:3] // no hedge score
	_, err := testEngine().Decide("510300", "沪深300ETF", 0, scores)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrIncompleteAnalysis)
	assert.Contains(t, err.Error(), string(model.KindHedge))
}

func TestDuplicateKindFailsIncomplete(t *testing.T) {
	scores := allNeutral()
	scores[3] = score(model.KindStrength, model.Neutral, 0.1, 0.5)
	_, err := testEngine().Decide("510300", "沪深300ETF", 0, scores)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrIncompleteAnalysis)
}

func TestHedgeVetoCapsBuy(t *testing.T) {
	e := NewEngine(
		config.Weights{Strength: 0.40, Emotion: 0.25, Capital: 0.15, Hedge: 0.20},
		config.Thresholds{Neutrality: 0.15, Buy: 0.35, Sell: 0.35, HedgeOverride: 0.90},
		config.Constraints{MaxPositionPct: 0.25, MinCashReservePct: 0.20, MaxSectorConcentrationPct: 0.40},
	)
	scores := []model.AnalyzerScore{
		score(model.KindStrength, model.Bullish, 0.9, 0.9),
		score(model.KindEmotion, model.Bullish, 0.8, 0.8),
		score(model.KindCapital, model.Neutral, 0.2, 0.5),
		score(model.KindHedge, model.Bearish, 0.7, 0.95),
	}

	// Without a position the veto caps the would-be Buy at Hold.
	d, err := e.Decide("512480", "半导体ETF", 0, scores)
	require.NoError(t, err)
	assert.NotEqual(t, model.ActionBuy, d.Action)
	assert.Equal(t, model.ActionHold, d.Action)
	assert.True(t, d.HedgeVeto)
	assert.GreaterOrEqual(t, d.Composite, 0.35, "composite alone would have bought")

	// Holding a position, the veto trims instead.
	d, err = e.Decide("512480", "半导体ETF", 0.10, scores)
	require.NoError(t, err)
	assert.Equal(t, model.ActionReduce, d.Action)
	assert.True(t, d.HedgeVeto)
}

func TestStrongConsensusBuysUpToCap(t *testing.T) {
	scores := []model.AnalyzerScore{
		score(model.KindStrength, model.Bullish, 0.9, 0.9),
		score(model.KindEmotion, model.Bullish, 0.9, 0.9),
		score(model.KindCapital, model.Bullish, 0.9, 0.9),
		score(model.KindHedge, model.Neutral, 0.1, 0.6),
	}
	d, err := testEngine().Decide("159949", "创业板50ETF", 0, scores)
	require.NoError(t, err)
	assert.Equal(t, model.ActionBuy, d.Action)
	assert.InDelta(t, 0.25, d.Strength, 1e-9, "clamped to max position")
	assert.False(t, d.HedgeVeto)
}

func TestBuyWithoutHeadroomDemotesToHold(t *testing.T) {
	scores := []model.AnalyzerScore{
		score(model.KindStrength, model.Bullish, 0.9, 0.9),
		score(model.KindEmotion, model.Bullish, 0.9, 0.9),
		score(model.KindCapital, model.Bullish, 0.9, 0.9),
		score(model.KindHedge, model.Neutral, 0.1, 0.6),
	}
	d, err := testEngine().Decide("159949", "创业板50ETF", 0.25, scores)
	require.NoError(t, err)
	assert.Equal(t, model.ActionHold, d.Action)
	assert.Zero(t, d.Strength)
}

func TestStrongConsensusSells(t *testing.T) {
	scores := []model.AnalyzerScore{
		score(model.KindStrength, model.Bearish, 0.9, 0.9),
		score(model.KindEmotion, model.Bearish, 0.8, 0.8),
		score(model.KindCapital, model.Bearish, 0.7, 0.7),
		score(model.KindHedge, model.Bearish, 0.8, 0.9),
	}
	d, err := testEngine().Decide("512690", "酒ETF", 0.15, scores)
	require.NoError(t, err)
	assert.Equal(t, model.ActionSell, d.Action)
	assert.Greater(t, d.Strength, 0.0)
	assert.Less(t, d.Composite, 0.0)
}

func TestWeakDirectionalReducesOnlyHeldPositions(t *testing.T) {
	scores := []model.AnalyzerScore{
		score(model.KindStrength, model.Bullish, 0.6, 0.8), // composite ≈ 0.192
		score(model.KindEmotion, model.Neutral, 0.1, 0.5),
		score(model.KindCapital, model.Neutral, 0.1, 0.5),
		score(model.KindHedge, model.Neutral, 0.1, 0.6),
	}
	e := testEngine()

	d, err := e.Decide("159902", "中小100ETF", 0.10, scores)
	require.NoError(t, err)
	assert.Equal(t, model.ActionReduce, d.Action)
	assert.LessOrEqual(t, d.Strength, 0.10, "cannot trim more than is held")

	d, err = e.Decide("159902", "中小100ETF", 0, scores)
	require.NoError(t, err)
	assert.Equal(t, model.ActionHold, d.Action)
}
