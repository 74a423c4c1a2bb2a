package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"tinkoff-invest-bot/internal/interfaces"
	"tinkoff-invest-bot/internal/logger"
	"tinkoff-invest-bot/internal/store"
	"tinkoff-invest-bot/internal/tradelog"
	"tinkoff-invest-bot/internal/types"
)

var ErrNoIndexData = errors.New("index data is empty")

// MarketData is the broker side of a run.
type MarketData struct {
	Shares    []types.Share
	Positions []types.Position
	Prices    []types.LastPrice
}

// Engine keeps an account aligned with the weights of the MOEX index.
type Engine struct {
	cfg     *store.Config
	brk     interfaces.Broker
	fetcher interfaces.IndexDataFetcher
	exec    *orderExecutor
	tlog    *tradelog.Log
}

func newEngine(cfg *store.Config, brk interfaces.Broker, fetcher interfaces.IndexDataFetcher, tlog *tradelog.Log) *Engine {
	return &Engine{
		cfg:     cfg,
		brk:     brk,
		fetcher: fetcher,
		exec:    newOrderExecutor(brk, tlog, cfg.Mode),
		tlog:    tlog,
	}
}

func (e *Engine) validateOptions() interfaces.ValidateOptions {
	opts := interfaces.ValidateOptions{SkipRows: 1, SkipStartColumns: 1, SkipEndColumns: 2}
	if v := e.cfg.Index.SkipRows; v != nil {
		opts.SkipRows = *v
	}
	if v := e.cfg.Index.SkipStartColumns; v != nil {
		opts.SkipStartColumns = *v
	}
	if v := e.cfg.Index.SkipEndColumns; v != nil {
		opts.SkipEndColumns = *v
	}
	return opts
}

// CollectIndexWeights scrapes the index composition and resolves tickers.
func (e *Engine) CollectIndexWeights(ctx context.Context) ([]types.IndexWeight, error) {
	table, err := e.fetcher.FetchIndexData(ctx, e.cfg.Index.URL, e.cfg.Index.TableIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index data: %w", err)
	}
	weights, err := e.fetcher.ValidateData(ctx, table, e.cfg.Index.TickersURL, e.validateOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to validate index data: %w", err)
	}
	if len(weights) == 0 {
		return nil, ErrNoIndexData
	}
	return weights, nil
}

// CollectPortfolioInformation loads positions and shares concurrently, then
// the last price of every share.
func (e *Engine) CollectPortfolioInformation(ctx context.Context) (*MarketData, error) {
	md := &MarketData{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		positions, err := e.brk.Positions(gctx)
		md.Positions = positions
		return err
	})
	g.Go(func() error {
		shares, err := e.brk.Shares(gctx)
		md.Shares = shares
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	figis := make([]string, 0, len(md.Shares))
	for _, s := range md.Shares {
		figis = append(figis, s.FIGI)
	}
	if len(figis) == 0 {
		return md, nil
	}
	prices, err := e.brk.LastPrices(ctx, figis)
	if err != nil {
		return nil, err
	}
	md.Prices = prices
	return md, nil
}

// CollectInformation joins index weights with shares, positions and prices.
func (e *Engine) CollectInformation(ctx context.Context) ([]types.Holding, error) {
	weights, err := e.CollectIndexWeights(ctx)
	if err != nil {
		return nil, err
	}
	md, err := e.CollectPortfolioInformation(ctx)
	if err != nil {
		return nil, err
	}
	holdings := newPositionBook(md).join(weights)
	logger.Debug(ctx, "Information collected",
		"constituents", len(weights),
		"shares", len(md.Shares),
		"positions", len(md.Positions),
		"prices", len(md.Prices),
	)
	return holdings, nil
}

// Portfolio computes per-holding volumes and the ideal allocation.
func (e *Engine) Portfolio(ctx context.Context) (*types.Portfolio, error) {
	holdings, err := e.CollectInformation(ctx)
	if err != nil {
		return nil, err
	}
	money, err := e.brk.Money(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve money: %w", err)
	}
	return computePortfolio(holdings, money), nil
}

// SearchSharesToBuy returns FIGI -> lots to buy.
func (e *Engine) SearchSharesToBuy(ctx context.Context) (map[string]int64, error) {
	plan, err := e.Plan(ctx)
	if err != nil {
		return nil, err
	}
	return plan.Lots(), nil
}

func (e *Engine) Plan(ctx context.Context) (*types.Plan, error) {
	p, err := e.Portfolio(ctx)
	if err != nil {
		return nil, err
	}
	for _, h := range p.Holdings {
		switch {
		case !h.HasShare:
			logger.Risk(ctx, h.Ticker, "NO_SHARE", "name", h.Name)
		case !h.HasPrice:
			logger.Risk(ctx, h.Ticker, "NO_PRICE", "figi", h.FIGI)
		}
	}

	items := searchShares(p)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ToBuy.GreaterThan(items[j].ToBuy)
	})
	for _, it := range items {
		logger.Plan(ctx, it.Ticker, it.FIGI, it.LotsToBuy, it.ToBuy.String(), "lot_price", it.LotPrice.String())
	}
	return &types.Plan{Portfolio: p, Items: items}, nil
}

// Rebalance buys the planned lots while the cash budget allows.
func (e *Engine) Rebalance(ctx context.Context) (*types.RebalanceResult, error) {
	plan, err := e.Plan(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.tlog.AppendPlan(tradelog.PlanEntry{
		Mode:  e.cfg.Mode,
		Money: plan.Portfolio.Money,
		Total: plan.Portfolio.Total,
		Items: plan.Items,
	}); err != nil {
		logger.ErrorWithErr(ctx, "Failed to write plan log", err)
	}

	res := &types.RebalanceResult{Mode: e.cfg.Mode, Plan: plan, Spent: decimal.Zero}
	budget := newCashBudget(plan.Portfolio.Money, decimal.NewFromFloat(e.cfg.Strategy.CashReserve), e.cfg.Strategy.MaxOrders)

	for _, it := range plan.Items {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		lots, reason := budget.fit(ctx, it)
		if lots == 0 {
			res.Skipped = append(res.Skipped, fmt.Sprintf("%s: %s", it.Ticker, reason))
			continue
		}

		resp, err := e.exec.placeBuyOrder(ctx, it, lots, e.cfg.Strategy.OrderType)
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Sprintf("%s: %v", it.Ticker, err))
			continue
		}
		spent := budget.spend(it, lots)
		res.Spent = res.Spent.Add(spent)
		res.Orders = append(res.Orders, resp)
	}
	return res, nil
}
