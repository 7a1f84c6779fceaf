package fusion

import (
	"fmt"
	"math"
	"strings"

	"EtfSentry/internal/config"
	"EtfSentry/internal/model"
)

// Engine fuses the four analyzer scores into one decision per symbol.
// Decide is a pure function of its inputs: deterministic, no I/O, no clock.
type Engine struct {
	weights     config.Weights
	thresholds  config.Thresholds
	constraints config.Constraints
}

func NewEngine(weights config.Weights, thresholds config.Thresholds, constraints config.Constraints) *Engine {
	return &Engine{weights: weights, thresholds: thresholds, constraints: constraints}
}

// Decide fuses scores for one symbol into a CompositeDecision. held is the
// current position as a fraction of total capital. Exactly one score per
// analyzer kind is required; a missing kind fails with ErrIncompleteAnalysis.
func (e *Engine) Decide(symbol, name string, held float64, scores []model.AnalyzerScore) (model.CompositeDecision, error) {
	byKind := make(map[model.AnalyzerKind]model.AnalyzerScore, len(scores))
	for _, s := range scores {
		if _, dup := byKind[s.Kind]; dup {
			return model.CompositeDecision{}, fmt.Errorf(
				"fuse %s: duplicate score for %s: %w", symbol, s.Kind, model.ErrIncompleteAnalysis)
		}
		byKind[s.Kind] = s
	}

	composite := 0.0
	ordered := make([]model.AnalyzerScore, 0, len(model.AllKinds))
	for _, kind := range model.AllKinds {
		s, ok := byKind[kind]
		if !ok {
			return model.CompositeDecision{}, fmt.Errorf(
				"fuse %s: missing %s score: %w", symbol, kind, model.ErrIncompleteAnalysis)
		}
		composite += e.weights.Of(kind) * s.Weighted()
		ordered = append(ordered, s)
	}

	action := e.actionFor(composite, held)

	// 对冲否决: a high-confidence bearish hedge caps the action. The other
	// three analyzers may scream buy; we still leave room for being wrong.
	veto := false
	hedge := byKind[model.KindHedge]
	if hedge.Direction == model.Bearish && hedge.Confidence > e.thresholds.HedgeOverride {
		if action == model.ActionBuy {
			veto = true
			if held > 0 {
				action = model.ActionReduce
			} else {
				action = model.ActionHold
			}
		}
	}

	strength := e.sizeFor(action, composite, held)

	// A Buy with no position headroom is a Hold in practice.
	if action == model.ActionBuy && strength <= 0 {
		action = model.ActionHold
		strength = 0
	}

	return model.CompositeDecision{
		Symbol:      symbol,
		Name:        name,
		Action:      action,
		Strength:    strength,
		Composite:   composite,
		Scores:      ordered,
		Explanation: explain(action, composite, veto, ordered),
		HedgeVeto:   veto,
	}, nil
}

// actionFor maps the composite score onto an action. Disagreement between
// the analyzers lands near zero and defaults to Hold: 策略比预测更重要.
func (e *Engine) actionFor(composite, held float64) model.Action {
	t := e.thresholds
	switch {
	case math.Abs(composite) < t.Neutrality:
		return model.ActionHold
	case composite >= t.Buy:
		return model.ActionBuy
	case composite <= -t.Sell:
		return model.ActionSell
	default:
		// Directional but weak, either sign: trim if we hold anything.
		if held > 0 {
			return model.ActionReduce
		}
		return model.ActionHold
	}
}

// sizeFor turns the composite score into a suggested position adjustment,
// clamped by the per-position cap and the cash reserve floor.
func (e *Engine) sizeFor(action model.Action, composite, held float64) float64 {
	switch action {
	case model.ActionBuy:
		size := clamp01(math.Abs(composite))
		if headroom := e.constraints.MaxPositionPct - held; size > headroom {
			size = headroom
		}
		if investable := 1 - e.constraints.MinCashReservePct; size > investable {
			size = investable
		}
		if size < 0 {
			size = 0
		}
		return size
	case model.ActionSell:
		return clamp01(math.Abs(composite))
	case model.ActionReduce:
		size := clamp01(math.Abs(composite))
		if size > held {
			size = held
		}
		return size
	default:
		return 0
	}
}

func explain(action model.Action, composite float64, veto bool, scores []model.AnalyzerScore) string {
	var b strings.Builder
	fmt.Fprintf(&b, "综合评分%+.3f → %s", composite, action)
	if veto {
		b.WriteString("（对冲否决买入，留有余地）")
	}
	for _, s := range scores {
		fmt.Fprintf(&b, "；%s %s %.2f×%.2f", s.Kind, s.Direction, s.Magnitude, s.Confidence)
	}
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
