package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tinkoff-invest-bot/internal/logger"
	"tinkoff-invest-bot/internal/metrics"
	"tinkoff-invest-bot/internal/scheduler"
)

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}

func newWeightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weights",
		Short: "Print the index weights resolved to tickers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			weights, err := appFrom(cmd).strategy.CollectIndexWeights(cmd.Context())
			if err != nil {
				return err
			}
			renderWeights(cmd.OutOrStdout(), weights)
			return nil
		},
	}
}

func newPortfolioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "portfolio",
		Short: "Print holdings against their ideal allocation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := appFrom(cmd).strategy.Portfolio(cmd.Context())
			if err != nil {
				return err
			}
			renderPortfolio(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func newPlanCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the lots to buy without placing orders",
		Example: `  # Table of planned buys
  bot plan

  # FIGI -> lots as JSON
  bot plan --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan, err := appFrom(cmd).engine.Plan(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(plan.Lots())
			}
			renderPlan(cmd.OutOrStdout(), plan)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print FIGI -> lots as JSON")
	return cmd
}

func newRebalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebalance",
		Short: "Run one rebalance (orders are simulated in DRY_RUN)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := appFrom(cmd).engine.Rebalance(cmd.Context())
			if err != nil {
				return err
			}
			renderRebalance(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Rebalance on the configured schedule until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context(), appFrom(cmd))
		},
	}
}

func runDaemon(ctx context.Context, a *app) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	metricsErr := make(chan error, 1)
	if a.cfg.Metrics.Addr != "" {
		go func() { metricsErr <- metrics.Serve(ctx, a.cfg.Metrics.Addr) }()
	}

	s := scheduler.New(a.engine, a.eod, scheduler.Options{
		Spec:          a.cfg.Schedule.Cron,
		Location:      loc,
		RunOnStart:    a.cfg.Schedule.RunOnStart,
		EODTime:       a.cfg.Schedule.EODTime,
		RetentionDays: a.cfg.TradeLog.RetentionDays,
		Compress:      a.tlog.CompressOlder,
	})
	if err := s.Start(); err != nil {
		return err
	}
	logger.Info(ctx, "Bot started", "mode", a.cfg.Mode)

	select {
	case <-ctx.Done():
		logger.Info(ctx, "Shutting down...")
	case err = <-metricsErr:
		if err != nil {
			logger.ErrorWithErr(ctx, "Metrics server failed", err)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if stopErr := s.Stop(stopCtx); stopErr != nil {
		err = errors.Join(err, fmt.Errorf("scheduler stop: %w", stopErr))
	}
	if p, eodErr := a.eod.SummarizeToday(); eodErr == nil && p != "" {
		logger.Info(stopCtx, "EOD CSV written", "path", p)
	}
	return err
}

func newEODCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "eod",
		Short: "Write the end-of-day order summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd)
			day := a.tlog.Now()
			if date != "" {
				t, err := time.ParseInLocation("2006-01-02", date, a.tlog.Location())
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
				day = t
			}
			path, err := a.eod.SummarizeDay(day)
			if err != nil {
				return err
			}
			if path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No orders on", day.Format("2006-01-02"))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "EOD CSV written:", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to summarize (YYYY-MM-DD, default today)")
	return cmd
}
