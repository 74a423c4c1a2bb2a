// Package scheduler runs rebalances and end-of-day summaries on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tinkoff-invest-bot/internal/interfaces"
	"tinkoff-invest-bot/internal/logger"
)

// Options configures a Scheduler. EODTime is HH:MM; empty disables the EOD job.
type Options struct {
	Spec          string
	Location      *time.Location
	RunOnStart    bool
	EODTime       string
	RetentionDays int
	// Compress is called after the EOD summary with RetentionDays.
	Compress func(retentionDays int) error
}

type Scheduler struct {
	cron      *cron.Cron
	eng       interfaces.Engine
	eod       interfaces.EodSummarizer
	opts      Options
	rebalance cron.Job
	eodJob    cron.Job

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// cronLogger routes cron's own messages into the structured logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.Debug(context.Background(), "cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.ErrorWithErr(context.Background(), "cron: "+msg, err, keysAndValues...)
}

func New(eng interfaces.Engine, eod interfaces.EodSummarizer, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(opts.Location),
			cron.WithLogger(cronLogger{}),
		),
		eng:    eng,
		eod:    eod,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}
	s.rebalance = cron.NewChain(
		cron.Recover(cronLogger{}),
		cron.SkipIfStillRunning(cronLogger{}),
	).Then(cron.FuncJob(s.runRebalance))
	s.eodJob = cron.NewChain(cron.Recover(cronLogger{})).Then(cron.FuncJob(s.runEOD))
	return s
}

func (s *Scheduler) runRebalance() {
	res, err := s.eng.Rebalance(s.ctx)
	if err != nil {
		logger.ErrorWithErr(s.ctx, "Scheduled rebalance failed", err)
		return
	}
	logger.Info(s.ctx, "Scheduled rebalance finished",
		"orders", len(res.Orders),
		"skipped", len(res.Skipped),
		"spent", res.Spent.String(),
	)
}

func (s *Scheduler) runEOD() {
	if s.eod == nil {
		return
	}
	if ok, _ := s.eod.ShouldRunNow(); ok {
		if _, err := s.eod.SummarizeToday(); err != nil {
			logger.ErrorWithErr(s.ctx, "EOD summary failed", err)
		}
	}
	if s.opts.Compress != nil && s.opts.RetentionDays > 0 {
		if err := s.opts.Compress(s.opts.RetentionDays); err != nil {
			logger.ErrorWithErr(s.ctx, "Log compression failed", err)
		}
	}
}

// eodSpec turns HH:MM into a daily cron spec.
func eodSpec(hhmm string) (string, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return "", fmt.Errorf("invalid EOD time %q: %w", hhmm, err)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	sched, err := cron.ParseStandard(s.opts.Spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.opts.Spec, err)
	}
	s.cron.Schedule(sched, s.rebalance)

	if s.eod != nil && s.opts.EODTime != "" {
		spec, err := eodSpec(s.opts.EODTime)
		if err != nil {
			return err
		}
		if _, err := s.cron.AddJob(spec, s.eodJob); err != nil {
			return err
		}
	}

	s.cron.Start()
	logger.Info(s.ctx, "Scheduler started",
		"schedule", s.opts.Spec,
		"timezone", s.opts.Location.String(),
		"eod_time", s.opts.EODTime,
		"next_run", sched.Next(time.Now().In(s.opts.Location)).Format(time.RFC3339),
	)

	if s.opts.RunOnStart {
		s.RunNow()
	}
	return nil
}

// RunNow triggers a rebalance in the background. It is skipped when one is
// already running.
func (s *Scheduler) RunNow() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.rebalance.Run()
	}()
}

// Stop cancels running jobs and waits for them until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		<-cronDone.Done()
		close(done)
	}()

	select {
	case <-done:
		logger.Info(ctx, "Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
