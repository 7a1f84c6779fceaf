package report

import (
	"fmt"
	"strings"

	"EtfSentry/internal/model"
	"EtfSentry/internal/portfolio"
)

// Render produces the full report: a timestamped header followed by the
// ranked body. Only the header carries wall-clock content.
func Render(res *portfolio.Result) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>ETF 信号融合周报</b> | %s\n\n",
		res.EvaluatedAt.Format("2006-01-02 15:04")))
	b.WriteString(RenderRanked(res))
	return b.String()
}

// RenderRanked renders the ranked decisions, per-decision factor breakdown,
// summary, and unevaluable section. Identical results render byte-identical:
// no timestamps, no map iteration, no randomness.
func RenderRanked(res *portfolio.Result) string {
	var b strings.Builder

	for _, d := range res.Decisions {
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s %s  综合评分 %+.3f",
			actionEmoji(d.Action), actionLabel(d.Action), d.Symbol, d.Name, d.Composite))
		if d.Action.Directional() {
			b.WriteString(fmt.Sprintf("  建议仓位调整 %.1f%%", d.Strength*100))
		}
		b.WriteString("\n")
		for _, s := range d.Scores {
			b.WriteString(fmt.Sprintf("  %s %s %.2f×%.2f  %s\n",
				kindLabel(s.Kind), s.Direction, s.Magnitude, s.Confidence, s.Rationale))
		}
		if d.HedgeVeto {
			b.WriteString("  ⛔ 对冲否决买入，留有余地\n")
		}
		b.WriteString("\n")
	}

	if len(res.Unevaluable) > 0 {
		b.WriteString("⚠️ <b>无法评估:</b>\n")
		for _, u := range res.Unevaluable {
			b.WriteString(fmt.Sprintf("  %s %s: %s\n", u.Symbol, u.Name, u.Reason))
		}
		b.WriteString("\n")
	}

	s := res.Summary
	b.WriteString("─────────────────\n")
	b.WriteString(fmt.Sprintf("汇总: 买入%d 卖出%d 减仓%d 持有%d 无法评估%d (共%d)\n",
		s.Buy, s.Sell, s.Reduce, s.Hold, s.Unevaluable, s.Total()))
	return b.String()
}

func actionLabel(a model.Action) string {
	switch a {
	case model.ActionBuy:
		return "买入"
	case model.ActionSell:
		return "卖出"
	case model.ActionReduce:
		return "减仓"
	default:
		return "持有"
	}
}

func actionEmoji(a model.Action) string {
	switch a {
	case model.ActionBuy:
		return "🟢"
	case model.ActionSell:
		return "🔴"
	case model.ActionReduce:
		return "🟡"
	default:
		return "⚪"
	}
}

func kindLabel(k model.AnalyzerKind) string {
	switch k {
	case model.KindStrength:
		return "强弱"
	case model.KindEmotion:
		return "情绪"
	case model.KindCapital:
		return "资金"
	case model.KindHedge:
		return "对冲"
	default:
		return string(k)
	}
}
