package model

// AnalyzerKind identifies one of the four analytical heuristics.
type AnalyzerKind string

const (
	KindStrength AnalyzerKind = "STRENGTH" // 强弱分析：该涨不涨看跌，该跌不跌看涨
	KindEmotion  AnalyzerKind = "EMOTION"  // 情绪周期：绝望中产生，犹豫中发展，疯狂中消亡
	KindCapital  AnalyzerKind = "CAPITAL"  // 资金面：恶炒消耗资金
	KindHedge    AnalyzerKind = "HEDGE"    // 对冲战法：以变应变，留有余地
)

// AllKinds lists the analyzer kinds in their canonical reporting order.
var AllKinds = []AnalyzerKind{KindStrength, KindEmotion, KindCapital, KindHedge}

// Direction is the signal direction an analyzer reports.
type Direction int

const (
	Bearish Direction = -1
	Neutral Direction = 0
	Bullish Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Bullish:
		return "BULLISH"
	case Bearish:
		return "BEARISH"
	default:
		return "NEUTRAL"
	}
}

// Sign returns the direction as a scoring multiplier (-1, 0, +1).
func (d Direction) Sign() float64 { return float64(d) }

// AnalyzerScore is one analyzer's normalized verdict for one symbol.
// Produced fresh each run and never mutated afterwards.
type AnalyzerScore struct {
	Kind       AnalyzerKind
	Direction  Direction
	Magnitude  float64 // 0.0 ~ 1.0
	Confidence float64 // 0.0 ~ 1.0
	Rationale  string
}

// Weighted returns this score's signed contribution before the kind weight.
func (s AnalyzerScore) Weighted() float64 {
	return s.Direction.Sign() * s.Magnitude * s.Confidence
}
