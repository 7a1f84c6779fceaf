package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"EtfSentry/internal/model"
	"EtfSentry/internal/portfolio"
)

func sampleResult() *portfolio.Result {
	return &portfolio.Result{
		Decisions: []model.CompositeDecision{
			{
				Symbol:    "510300",
				Name:      "沪深300ETF",
				Action:    model.ActionBuy,
				Strength:  0.18,
				Composite: 0.42,
				Scores: []model.AnalyzerScore{
					{Kind: model.KindStrength, Direction: model.Bullish, Magnitude: 0.67, Confidence: 0.8, Rationale: "下跌缩量，卖压减轻"},
					{Kind: model.KindEmotion, Direction: model.Bullish, Magnitude: 0.5, Confidence: 0.7, Rationale: "处于绝望期"},
					{Kind: model.KindCapital, Direction: model.Neutral, Magnitude: 0.2, Confidence: 0.5, Rationale: "资金面中性"},
					{Kind: model.KindHedge, Direction: model.Neutral, Magnitude: 0.1, Confidence: 0.6, Rationale: "风险平稳"},
				},
			},
			{
				Symbol:    "512480",
				Name:      "半导体ETF",
				Action:    model.ActionHold,
				Composite: 0.05,
				HedgeVeto: true,
			},
		},
		Unevaluable: []model.Unevaluable{
			{Symbol: "159941", Name: "纳指ETF", Reason: "行情获取失败"},
		},
		Summary:     model.Summary{Buy: 1, Hold: 1, Unevaluable: 1},
		EvaluatedAt: time.Date(2025, 7, 7, 8, 0, 0, 0, time.UTC),
	}
}

func TestRenderRankedIdempotent(t *testing.T) {
	res := sampleResult()
	assert.Equal(t, RenderRanked(res), RenderRanked(res))
}

func TestRenderRankedContent(t *testing.T) {
	out := RenderRanked(sampleResult())

	assert.Contains(t, out, "买入 510300")
	assert.Contains(t, out, "下跌缩量，卖压减轻")
	assert.Contains(t, out, "建议仓位调整 18.0%")
	assert.Contains(t, out, "对冲否决买入")
	assert.Contains(t, out, "159941 纳指ETF: 行情获取失败")
	assert.Contains(t, out, "共3")
	assert.NotContains(t, out, "2025", "ranked body must carry no wall-clock content")
}

func TestRenderHeaderCarriesTimestamp(t *testing.T) {
	out := Render(sampleResult())
	assert.Contains(t, out, "2025-07-07")
}
