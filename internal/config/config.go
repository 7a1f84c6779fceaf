package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"EtfSentry/internal/model"
)

// PoolEntry is one tradable fund in the fixed ETF pool.
type PoolEntry struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name"`
	Sector string `yaml:"sector"`
}

// Weights holds the static per-analyzer fusion weights. They must sum to 1.0.
type Weights struct {
	Strength float64 `yaml:"strength"`
	Emotion  float64 `yaml:"emotion"`
	Capital  float64 `yaml:"capital"`
	Hedge    float64 `yaml:"hedge"`
}

// Of returns the weight configured for the given analyzer kind.
func (w Weights) Of(kind model.AnalyzerKind) float64 {
	switch kind {
	case model.KindStrength:
		return w.Strength
	case model.KindEmotion:
		return w.Emotion
	case model.KindCapital:
		return w.Capital
	case model.KindHedge:
		return w.Hedge
	}
	return 0
}

// Sum returns the total of all four weights.
func (w Weights) Sum() float64 {
	return w.Strength + w.Emotion + w.Capital + w.Hedge
}

// Thresholds holds the decision cut-offs on the composite score.
type Thresholds struct {
	Neutrality    float64 `yaml:"neutrality"`     // below this |composite| → HOLD
	Buy           float64 `yaml:"buy"`            // composite ≥ buy → BUY
	Sell          float64 `yaml:"sell"`           // composite ≤ -sell → SELL
	HedgeOverride float64 `yaml:"hedge_override"` // hedge confidence above this vetoes BUY
}

// Constraints holds the portfolio-level position limits.
type Constraints struct {
	MaxPositionPct            float64 `yaml:"max_position_pct"`
	MinCashReservePct         float64 `yaml:"min_cash_reserve_pct"`
	MaxSectorConcentrationPct float64 `yaml:"max_sector_concentration_pct"`
}

// Fetch holds data-source settings.
type Fetch struct {
	Source         string  `yaml:"source"` // "eastmoney" or "mock"
	BaseURL        string  `yaml:"base_url"`
	LookbackBars   int     `yaml:"lookback_bars"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	Retries        int     `yaml:"retries"`
	RatePerSecond  float64 `yaml:"rate_per_second"`
	CachePath      string  `yaml:"cache_path"`
	CacheMaxAgeHrs int     `yaml:"cache_max_age_hours"`
}

// Config holds all application configuration. It is loaded once per
// evaluation run; watch mode reloads it between runs.
type Config struct {
	Pool        []PoolEntry `yaml:"pool"`
	Weights     Weights     `yaml:"weights"`
	Thresholds  Thresholds  `yaml:"thresholds"`
	Constraints Constraints `yaml:"constraints"`
	Fetch       Fetch       `yaml:"fetch"`
	Schedule    struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	HoldingsFile string `yaml:"holdings_file"`
	Proxy        string `yaml:"proxy"`
}

const weightEpsilon = 1e-6

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		cfg.Fetch.Source = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.Fetch.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CACHE_PATH"); v != "" {
		cfg.Fetch.CachePath = v
	}
	if v := os.Getenv("EVAL_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("HOLDINGS_FILE"); v != "" {
		cfg.HoldingsFile = v
	}
	if v := os.Getenv("FETCH_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Fetch.TimeoutSeconds = n
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills unset fields. The default weights and thresholds are
// tuning constants, not validated ratios; they are configuration precisely so
// that they can be revised without a code change.
func applyDefaults(cfg *Config) {
	if cfg.Weights.Sum() == 0 {
		cfg.Weights = Weights{Strength: 0.40, Emotion: 0.25, Capital: 0.15, Hedge: 0.20}
	}
	if cfg.Thresholds.Neutrality == 0 {
		cfg.Thresholds.Neutrality = 0.15
	}
	if cfg.Thresholds.Buy == 0 {
		cfg.Thresholds.Buy = 0.35
	}
	if cfg.Thresholds.Sell == 0 {
		cfg.Thresholds.Sell = 0.35
	}
	if cfg.Thresholds.HedgeOverride == 0 {
		cfg.Thresholds.HedgeOverride = 0.75
	}
	if cfg.Constraints.MaxPositionPct == 0 {
		cfg.Constraints.MaxPositionPct = 0.25
	}
	if cfg.Constraints.MinCashReservePct == 0 {
		cfg.Constraints.MinCashReservePct = 0.20
	}
	if cfg.Constraints.MaxSectorConcentrationPct == 0 {
		cfg.Constraints.MaxSectorConcentrationPct = 0.40
	}
	if cfg.Fetch.Source == "" {
		cfg.Fetch.Source = "eastmoney"
	}
	if cfg.Fetch.LookbackBars == 0 {
		cfg.Fetch.LookbackBars = 250
	}
	if cfg.Fetch.TimeoutSeconds == 0 {
		cfg.Fetch.TimeoutSeconds = 15
	}
	if cfg.Fetch.Retries == 0 {
		cfg.Fetch.Retries = 1
	}
	if cfg.Fetch.RatePerSecond == 0 {
		cfg.Fetch.RatePerSecond = 2
	}
	if cfg.Fetch.CacheMaxAgeHrs == 0 {
		cfg.Fetch.CacheMaxAgeHrs = 18
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = "0 0 8 * * 1" // Monday 08:00
	}
	if len(cfg.Pool) == 0 {
		cfg.Pool = defaultPool()
	}
}

// defaultPool mirrors the standard A-share ETF watch list.
func defaultPool() []PoolEntry {
	return []PoolEntry{
		{Symbol: "510300", Name: "沪深300ETF", Sector: "core"},
		{Symbol: "510050", Name: "上证50ETF", Sector: "core"},
		{Symbol: "515450", Name: "红利低波50ETF", Sector: "dividend"},
		{Symbol: "159949", Name: "创业板50ETF", Sector: "growth"},
		{Symbol: "512480", Name: "半导体ETF", Sector: "growth"},
		{Symbol: "159902", Name: "中小100ETF", Sector: "mid_small"},
		{Symbol: "512690", Name: "酒ETF", Sector: "consumer"},
		{Symbol: "159934", Name: "黄金ETF", Sector: "commodity"},
		{Symbol: "159941", Name: "纳指ETF", Sector: "overseas"},
	}
}

// Validate checks weights, thresholds, and constraints. Any failure wraps
// model.ErrConfigValidation and aborts the run before evaluation starts.
func (c *Config) Validate() error {
	if len(c.Pool) == 0 {
		return fmt.Errorf("%w: pool must not be empty", model.ErrConfigValidation)
	}
	seen := make(map[string]bool, len(c.Pool))
	for _, e := range c.Pool {
		if e.Symbol == "" {
			return fmt.Errorf("%w: pool entry missing symbol", model.ErrConfigValidation)
		}
		if seen[e.Symbol] {
			return fmt.Errorf("%w: duplicate pool symbol %s", model.ErrConfigValidation, e.Symbol)
		}
		seen[e.Symbol] = true
	}

	if math.Abs(c.Weights.Sum()-1.0) > weightEpsilon {
		return fmt.Errorf("%w: analyzer weights must sum to 1.0, got %.6f",
			model.ErrConfigValidation, c.Weights.Sum())
	}
	for kind, w := range map[model.AnalyzerKind]float64{
		model.KindStrength: c.Weights.Strength,
		model.KindEmotion:  c.Weights.Emotion,
		model.KindCapital:  c.Weights.Capital,
		model.KindHedge:    c.Weights.Hedge,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: weight for %s must be in [0,1], got %.3f",
				model.ErrConfigValidation, kind, w)
		}
	}

	t := c.Thresholds
	if t.Neutrality <= 0 || t.Neutrality >= 1 {
		return fmt.Errorf("%w: neutrality threshold must be in (0,1), got %.3f",
			model.ErrConfigValidation, t.Neutrality)
	}
	if t.Buy <= t.Neutrality || t.Buy > 1 {
		return fmt.Errorf("%w: buy threshold must be in (neutrality,1], got %.3f",
			model.ErrConfigValidation, t.Buy)
	}
	if t.Sell <= t.Neutrality || t.Sell > 1 {
		return fmt.Errorf("%w: sell threshold must be in (neutrality,1], got %.3f",
			model.ErrConfigValidation, t.Sell)
	}
	if t.HedgeOverride <= 0 || t.HedgeOverride > 1 {
		return fmt.Errorf("%w: hedge override threshold must be in (0,1], got %.3f",
			model.ErrConfigValidation, t.HedgeOverride)
	}

	for name, pct := range map[string]float64{
		"max_position_pct":             c.Constraints.MaxPositionPct,
		"min_cash_reserve_pct":         c.Constraints.MinCashReservePct,
		"max_sector_concentration_pct": c.Constraints.MaxSectorConcentrationPct,
	} {
		if pct < 0 || pct > 1 {
			return fmt.Errorf("%w: %s must be in [0,1], got %.3f",
				model.ErrConfigValidation, name, pct)
		}
	}
	if c.Constraints.MinCashReservePct >= 1 {
		return fmt.Errorf("%w: min_cash_reserve_pct leaves no investable capital",
			model.ErrConfigValidation)
	}

	if c.Fetch.Retries < 0 || c.Fetch.Retries > 3 {
		return fmt.Errorf("%w: fetch retries must be in [0,3], got %d",
			model.ErrConfigValidation, c.Fetch.Retries)
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: fetch timeout must be positive", model.ErrConfigValidation)
	}
	if c.Fetch.LookbackBars < 30 {
		return fmt.Errorf("%w: lookback_bars must be at least 30, got %d",
			model.ErrConfigValidation, c.Fetch.LookbackBars)
	}
	return nil
}
