package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"EtfSentry/internal/analyzer"
	"EtfSentry/internal/config"
	"EtfSentry/internal/fusion"
	"EtfSentry/internal/model"
	"EtfSentry/internal/provider"
)

// Result is the complete outcome of one evaluation run. Decisions are
// ranked; Unevaluable symbols are reported separately, never silently
// dropped.
type Result struct {
	Decisions   []model.CompositeDecision
	Unevaluable []model.Unevaluable
	Summary     model.Summary
	EvaluatedAt time.Time
}

// Evaluator runs the pool through fetch, analysis, and fusion, then applies
// the portfolio-level constraints. The per-symbol phase fans out one
// goroutine per symbol; results are joined by index, so no shared state is
// mutated concurrently.
type Evaluator struct {
	pool        []config.PoolEntry
	constraints config.Constraints
	fetchCfg    config.Fetch
	provider    provider.Provider
	analyzers   []analyzer.Analyzer
	engine      *fusion.Engine
	log         zerolog.Logger
}

func NewEvaluator(cfg *config.Config, prov provider.Provider, analyzers []analyzer.Analyzer, engine *fusion.Engine, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		pool:        cfg.Pool,
		constraints: cfg.Constraints,
		fetchCfg:    cfg.Fetch,
		provider:    prov,
		analyzers:   analyzers,
		engine:      engine,
		log:         log.With().Str("component", "evaluator").Logger(),
	}
}

// symbolOutcome is the per-goroutine result of the map phase.
type symbolOutcome struct {
	decision    *model.CompositeDecision
	unevaluable *model.Unevaluable
}

// Run evaluates the whole pool. One symbol failing never aborts the run;
// it lands in Result.Unevaluable with a reason.
func (e *Evaluator) Run(ctx context.Context, holdings Holdings) (*Result, error) {
	outcomes := make([]symbolOutcome, len(e.pool))

	var wg sync.WaitGroup
	for i, entry := range e.pool {
		wg.Add(1)
		go func(i int, entry config.PoolEntry) {
			defer wg.Done()
			outcomes[i] = e.evaluateSymbol(ctx, entry, holdings.Of(entry.Symbol))
		}(i, entry)
	}
	wg.Wait()

	res := &Result{EvaluatedAt: time.Now()}
	for _, out := range outcomes {
		switch {
		case out.decision != nil:
			res.Decisions = append(res.Decisions, *out.decision)
		case out.unevaluable != nil:
			res.Unevaluable = append(res.Unevaluable, *out.unevaluable)
		}
	}

	// Sequential reduce over evaluated symbols only: unevaluable symbols
	// never participate in the scaling math.
	e.applySectorCap(res.Decisions, holdings)
	e.applyCashReserve(res.Decisions, holdings)

	rank(res.Decisions)
	res.Summary = summarize(res)

	e.log.Info().
		Int("decisions", len(res.Decisions)).
		Int("unevaluable", len(res.Unevaluable)).
		Msg("evaluation complete")
	return res, nil
}

// evaluateSymbol fetches, analyzes, and fuses one symbol. Fetch gets a
// per-symbol timeout and one bounded retry on ErrDataUnavailable.
func (e *Evaluator) evaluateSymbol(ctx context.Context, entry config.PoolEntry, held float64) symbolOutcome {
	timeout := time.Duration(e.fetchCfg.TimeoutSeconds) * time.Second

	var snap *model.MarketSnapshot
	var err error
	for attempt := 0; attempt <= e.fetchCfg.Retries; attempt++ {
		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		snap, err = e.provider.Fetch(fetchCtx, entry.Symbol, e.fetchCfg.LookbackBars)
		cancel()
		if err == nil || !errors.Is(err, model.ErrDataUnavailable) {
			break
		}
		e.log.Warn().Str("symbol", entry.Symbol).Int("attempt", attempt+1).Err(err).
			Msg("fetch failed")
	}
	if err != nil {
		return unevaluable(entry, fmt.Sprintf("行情获取失败: %v", err))
	}

	scores := make([]model.AnalyzerScore, 0, len(e.analyzers))
	for _, a := range e.analyzers {
		score, err := a.Score(snap)
		if err != nil {
			return unevaluable(entry, fmt.Sprintf("%s 分析失败: %v", a.Kind(), err))
		}
		scores = append(scores, score)
	}

	decision, err := e.engine.Decide(entry.Symbol, entry.Name, held, scores)
	if err != nil {
		return unevaluable(entry, fmt.Sprintf("信号融合失败: %v", err))
	}
	return symbolOutcome{decision: &decision}
}

func unevaluable(entry config.PoolEntry, reason string) symbolOutcome {
	return symbolOutcome{unevaluable: &model.Unevaluable{
		Symbol: entry.Symbol,
		Name:   entry.Name,
		Reason: reason,
	}}
}

// applySectorCap scales each sector's proposed Buys so held + proposed
// exposure stays within MaxSectorConcentrationPct. Sectors are independent;
// scaling is proportional within a sector.
func (e *Evaluator) applySectorCap(decisions []model.CompositeDecision, holdings Holdings) {
	limit := e.constraints.MaxSectorConcentrationPct
	if limit <= 0 || len(decisions) == 0 {
		return
	}

	sectorOf := make(map[string]string, len(e.pool))
	for _, entry := range e.pool {
		sectorOf[entry.Symbol] = entry.Sector
	}

	heldBySector := make(map[string]float64)
	buyBySector := make(map[string]float64)
	for i := range decisions {
		sector := sectorOf[decisions[i].Symbol]
		heldBySector[sector] += holdings.Of(decisions[i].Symbol)
		if decisions[i].Action == model.ActionBuy {
			buyBySector[sector] += decisions[i].Strength
		}
	}

	factors := make(map[string]float64)
	for sector, buySum := range buyBySector {
		if buySum <= 0 {
			continue
		}
		room := limit - heldBySector[sector]
		if room < 0 {
			room = 0
		}
		if buySum > room {
			factors[sector] = room / buySum
			e.log.Info().Str("sector", sector).Float64("factor", factors[sector]).
				Msg("sector concentration cap scales buys")
		}
	}

	for i := range decisions {
		if decisions[i].Action != model.ActionBuy {
			continue
		}
		if factor, ok := factors[sectorOf[decisions[i].Symbol]]; ok {
			decisions[i].Strength *= factor
			if decisions[i].Strength == 0 {
				decisions[i].Action = model.ActionHold
			}
		}
	}
}

// applyCashReserve scales all Buys by one common factor so aggregate
// exposure never eats into the cash reserve. A single factor preserves the
// relative rank of the proposals.
func (e *Evaluator) applyCashReserve(decisions []model.CompositeDecision, holdings Holdings) {
	investable := 1 - e.constraints.MinCashReservePct
	heldTotal := holdings.TotalExposure()

	buyTotal := 0.0
	for i := range decisions {
		if decisions[i].Action == model.ActionBuy {
			buyTotal += decisions[i].Strength
		}
	}
	if buyTotal <= 0 || heldTotal+buyTotal <= investable {
		return
	}

	room := investable - heldTotal
	if room < 0 {
		room = 0
	}
	factor := room / buyTotal
	e.log.Info().Float64("factor", factor).Msg("cash reserve scales buys")

	for i := range decisions {
		if decisions[i].Action != model.ActionBuy {
			continue
		}
		decisions[i].Strength *= factor
		if decisions[i].Strength == 0 {
			decisions[i].Action = model.ActionHold
		}
	}
}

// rank orders decisions for presentation: actionable signals before Hold,
// stronger first, symbol as the deterministic tie-break.
func rank(decisions []model.CompositeDecision) {
	sort.Slice(decisions, func(i, j int) bool {
		di, dj := decisions[i], decisions[j]
		if di.Action.Directional() != dj.Action.Directional() {
			return di.Action.Directional()
		}
		if di.Strength != dj.Strength {
			return di.Strength > dj.Strength
		}
		return di.Symbol < dj.Symbol
	})
}

func summarize(res *Result) model.Summary {
	s := model.Summary{Unevaluable: len(res.Unevaluable)}
	for _, d := range res.Decisions {
		switch d.Action {
		case model.ActionBuy:
			s.Buy++
		case model.ActionSell:
			s.Sell++
		case model.ActionReduce:
			s.Reduce++
		default:
			s.Hold++
		}
	}
	return s
}
