package brokerobs

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"tinkoff-invest-bot/internal/interfaces"
	"tinkoff-invest-bot/internal/logger"
	"tinkoff-invest-bot/internal/metrics"
	"tinkoff-invest-bot/internal/trace"
	"tinkoff-invest-bot/internal/types"
)

// observableBroker wraps a Broker with observability (logging, tracing, metrics)
type observableBroker struct {
	broker interfaces.Broker
}

var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{
		broker: broker,
	}
}

func (ob *observableBroker) Shares(ctx context.Context) ([]types.Share, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Shares")
	defer span.End()

	start := time.Now()
	shares, err := ob.broker.Shares(ctx)
	metrics.ObserveBrokerRequest("Shares", time.Since(start), err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch shares", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Shares fetched", "count", len(shares))
	return shares, nil
}

func (ob *observableBroker) Positions(ctx context.Context) ([]types.Position, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Positions")
	defer span.End()

	start := time.Now()
	positions, err := ob.broker.Positions(ctx)
	metrics.ObserveBrokerRequest("Positions", time.Since(start), err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch positions", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Positions fetched", "count", len(positions))
	return positions, nil
}

func (ob *observableBroker) LastPrices(ctx context.Context, figis []string) ([]types.LastPrice, error) {
	ctx, span := trace.StartSpan(ctx, "broker.LastPrices")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching last prices", "count", len(figis))

	start := time.Now()
	prices, err := ob.broker.LastPrices(ctx, figis)
	metrics.ObserveBrokerRequest("LastPrices", time.Since(start), err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch last prices", err, "count", len(figis))
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Last prices fetched", "requested", len(figis), "received", len(prices))
	return prices, nil
}

func (ob *observableBroker) Money(ctx context.Context) (decimal.Decimal, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Money")
	defer span.End()

	start := time.Now()
	m, err := ob.broker.Money(ctx)
	metrics.ObserveBrokerRequest("Money", time.Since(start), err)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch money", err)
		return decimal.Zero, err
	}

	logger.DebugSkip(ctx, 1, "Money fetched", "money", m.String())
	return m, nil
}

// PlaceOrder places an order with observability
func (ob *observableBroker) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"ticker", req.Ticker,
		"figi", req.FIGI,
		"direction", req.Direction,
		"lots", req.Lots,
		"order_type", req.OrderType,
		"tag", req.Tag,
	)

	start := time.Now()
	resp, err := ob.broker.PlaceOrder(ctx, req)
	metrics.ObserveBrokerRequest("PlaceOrder", time.Since(start), err)
	if err != nil {
		metrics.IncOrder(req.Direction, "error")
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"ticker", req.Ticker,
			"figi", req.FIGI,
			"lots", req.Lots,
		)
		return types.OrderResp{}, err
	}
	metrics.IncOrder(req.Direction, resp.Status)

	logger.InfoSkip(ctx, 1, "Order placed successfully",
		"ticker", req.Ticker,
		"order_id", resp.OrderID,
		"status", resp.Status,
		"lots_executed", resp.LotsExecuted,
	)
	return resp, nil
}
