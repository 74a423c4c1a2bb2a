package engineobs

import (
	"context"
	"time"

	"tinkoff-invest-bot/internal/interfaces"
	"tinkoff-invest-bot/internal/logger"
	"tinkoff-invest-bot/internal/metrics"
	"tinkoff-invest-bot/internal/trace"
	"tinkoff-invest-bot/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Plan(ctx context.Context) (*types.Plan, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Plan")
	defer span.End()

	start := time.Now()
	logger.InfoSkip(ctx, 1, "Building rebalance plan")

	plan, err := oe.engine.Plan(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Rebalance plan failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Rebalance plan built",
		"items", len(plan.Items),
		"money", plan.Portfolio.Money.String(),
		"total", plan.Portfolio.Total.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return plan, nil
}

func (oe *observableEngine) Rebalance(ctx context.Context) (*types.RebalanceResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Rebalance")
	defer span.End()

	start := time.Now()
	logger.InfoSkip(ctx, 1, "Starting rebalance")

	res, err := oe.engine.Rebalance(ctx)
	metrics.IncRebalance(err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Rebalance failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return res, err
	}

	logger.InfoSkip(ctx, 1, "Rebalance completed",
		"mode", res.Mode,
		"orders", len(res.Orders),
		"skipped", len(res.Skipped),
		"spent", res.Spent.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
