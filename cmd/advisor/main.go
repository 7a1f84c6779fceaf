package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"EtfSentry/internal/analyzer"
	"EtfSentry/internal/config"
	"EtfSentry/internal/fusion"
	"EtfSentry/internal/notifier"
	"EtfSentry/internal/portfolio"
	"EtfSentry/internal/provider"
	"EtfSentry/internal/report"
	"EtfSentry/internal/scheduler"
)

// errPartialRun marks a run that completed but left symbols unevaluable.
// main maps it to exit code 2 so cron wrappers can tell partial from fatal.
var errPartialRun = errors.New("run completed with unevaluable symbols")

var (
	flagConfig   string
	flagHoldings string
	flagMock     bool
	flagTop      int
	flagVerbose  bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errPartialRun) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "advisor",
		Short:         "ETF 信号融合决策引擎",
		Long:          "Fuses trend-strength, sentiment-cycle, capital-consumption, and hedging signals into per-ETF Buy/Sell/Hold/Reduce decisions.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "configs/config.yaml", "path to the YAML config")
	root.PersistentFlags().StringVar(&flagHoldings, "holdings", "", "path to the holdings snapshot JSON (overrides config)")
	root.PersistentFlags().BoolVar(&flagMock, "mock", false, "use the deterministic mock data source")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	evaluate := &cobra.Command{
		Use:   "evaluate",
		Short: "Run one evaluation of the pool and print the report",
		RunE:  runEvaluate,
	}
	evaluate.Flags().IntVar(&flagTop, "top", 0, "limit the report to the top N ranked decisions (0 = all)")

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the evaluation on the configured cron schedule",
		RunE:  runWatch,
	}

	root.AddCommand(evaluate, watch)
	return root
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	log := newLogger()

	res, rendered, err := evaluateOnce(cmd.Context(), log)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), rendered)

	if len(res.Unevaluable) > 0 {
		return fmt.Errorf("%w: %d of %d", errPartialRun, len(res.Unevaluable), res.Summary.Total())
	}
	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	log := newLogger()

	// Peek at the config once up front so a broken file fails fast instead
	// of on the first tick.
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tg := notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log)

	sched := scheduler.New(ctx, func(ctx context.Context) error {
		res, rendered, err := evaluateOnce(ctx, log)
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		if tg.Configured() {
			if err := tg.SendWithRetry(ctx, report.Render(res), 3); err != nil {
				log.Error().Err(err).Msg("report push failed")
			}
		}
		return nil
	}, log)

	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	log.Info().Str("cron", cfg.Schedule.Cron).Msg("watch mode running")
	<-ctx.Done()
	return nil
}

// evaluateOnce loads config fresh (watch mode reloads constraints between
// runs), builds the pipeline, and runs one evaluation.
func evaluateOnce(ctx context.Context, log zerolog.Logger) (*portfolio.Result, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}

	holdingsPath := cfg.HoldingsFile
	if flagHoldings != "" {
		holdingsPath = flagHoldings
	}
	holdings, err := portfolio.LoadHoldings(holdingsPath)
	if err != nil {
		return nil, "", err
	}

	prov, closer, err := buildProvider(cfg, log)
	if err != nil {
		return nil, "", err
	}
	if closer != nil {
		defer closer()
	}

	engine := fusion.NewEngine(cfg.Weights, cfg.Thresholds, cfg.Constraints)
	ev := portfolio.NewEvaluator(cfg, prov, analyzer.DefaultSet(), engine, log)

	res, err := ev.Run(ctx, holdings)
	if err != nil {
		return nil, "", err
	}

	display := *res
	if flagTop > 0 && flagTop < len(display.Decisions) {
		display.Decisions = display.Decisions[:flagTop]
	}
	return res, report.Render(&display), nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildProvider assembles the data source: mock, or the EastMoney fetcher
// optionally wrapped with the SQLite bar cache.
func buildProvider(cfg *config.Config, log zerolog.Logger) (provider.Provider, func(), error) {
	if flagMock || cfg.Fetch.Source == "mock" {
		return provider.NewMock(), nil, nil
	}

	fetcher := provider.NewEastMoney(
		cfg.Fetch.BaseURL,
		cfg.Proxy,
		time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second,
		cfg.Fetch.RatePerSecond,
		log,
	)
	if cfg.Fetch.CachePath == "" {
		return fetcher, nil, nil
	}

	cache, err := provider.OpenBarCache(cfg.Fetch.CachePath)
	if err != nil {
		return nil, nil, err
	}
	maxAge := time.Duration(cfg.Fetch.CacheMaxAgeHrs) * time.Hour
	cached := provider.NewCached(fetcher, cache, maxAge, log)
	return cached, func() { cache.Close() }, nil
}
