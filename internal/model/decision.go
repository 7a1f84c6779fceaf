package model

// Action is the fused recommendation for one symbol.
type Action string

const (
	ActionBuy    Action = "BUY"
	ActionSell   Action = "SELL"
	ActionHold   Action = "HOLD"
	ActionReduce Action = "REDUCE"
)

// Directional reports whether the action proposes a position change.
func (a Action) Directional() bool { return a != ActionHold }

// CompositeDecision is the final output of the fusion engine for one symbol.
// Action is derivable deterministically from Scores under the fusion rule;
// there is no hidden randomness and no time-of-day tie-breaking.
type CompositeDecision struct {
	Symbol      string
	Name        string
	Action      Action
	Strength    float64 // 0.0 ~ 1.0, suggested position adjustment
	Composite   float64 // weighted directional score, -1.0 ~ 1.0
	Scores      []AnalyzerScore
	Explanation string
	HedgeVeto   bool // action was capped by the hedge analyzer
}

// Unevaluable marks a symbol excluded from the ranked decisions this run.
type Unevaluable struct {
	Symbol string
	Name   string
	Reason string
}

// Summary holds per-run counts by action.
type Summary struct {
	Buy         int
	Sell        int
	Hold        int
	Reduce      int
	Unevaluable int
}

// Total returns the number of symbols the run attempted.
func (s Summary) Total() int {
	return s.Buy + s.Sell + s.Hold + s.Reduce + s.Unevaluable
}
