package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// RunFunc executes one full evaluation (config reload, fetch, fuse, report,
// notify). The scheduler owns nothing about how the evaluation works; it
// only decides when.
type RunFunc func(ctx context.Context) error

// Scheduler drives watch mode: periodic re-evaluation on a cron spec.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	run  RunFunc
	log  zerolog.Logger
}

func New(ctx context.Context, run RunFunc, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithSeconds()),
		ctx:  ctx,
		run:  run,
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Register adds the evaluation task on the given six-field cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("register evaluation task %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) tick() {
	s.log.Info().Msg("scheduled evaluation starting")
	if err := s.run(s.ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled evaluation failed")
	}
}

// RunNow executes the evaluation immediately (manual trigger / run-on-start).
func (s *Scheduler) RunNow() error { return s.run(s.ctx) }

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info().Msg("scheduler stopped")
}
