package engine

import (
	"context"

	"tinkoff-invest-bot/internal/interfaces"
	"tinkoff-invest-bot/internal/logger"
	"tinkoff-invest-bot/internal/tradelog"
	"tinkoff-invest-bot/internal/types"
)

const orderTag = "REBALANCE"

// orderExecutor places orders and records them in the trade log.
type orderExecutor struct {
	broker interfaces.Broker
	tlog   *tradelog.Log
	mode   string
}

func newOrderExecutor(broker interfaces.Broker, tlog *tradelog.Log, mode string) *orderExecutor {
	return &orderExecutor{broker: broker, tlog: tlog, mode: mode}
}

// placeBuyOrder buys lots of the plan item. Limit orders are priced at the
// last price.
func (oe *orderExecutor) placeBuyOrder(ctx context.Context, it types.PlanItem, lots int64, orderType string) (types.OrderResp, error) {
	req := types.OrderReq{
		FIGI:      it.FIGI,
		Ticker:    it.Ticker,
		Direction: "BUY",
		Lots:      lots,
		OrderType: orderType,
		Price:     it.Price,
		Tag:       orderTag,
	}

	resp, err := oe.broker.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to place BUY order", err,
			"ticker", it.Ticker,
			"figi", it.FIGI,
			"lots", lots,
		)
		return types.OrderResp{}, err
	}

	price := resp.Price
	if price.IsZero() {
		price = it.Price
	}
	logger.Trade(ctx, it.Ticker, "BUY", lots, price.String(), resp.OrderID, "status", resp.Status)

	if err := oe.tlog.Append(tradelog.Entry{
		Mode:      oe.mode,
		Ticker:    it.Ticker,
		FIGI:      it.FIGI,
		Direction: "BUY",
		Lots:      lots,
		Lot:       it.Lot,
		Price:     price,
		OrderID:   resp.OrderID,
		Status:    resp.Status,
		Reason:    orderTag,
	}); err != nil {
		logger.ErrorWithErr(ctx, "Failed to write trade log", err, "order_id", resp.OrderID)
	}
	return resp, nil
}
