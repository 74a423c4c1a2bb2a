package tinkoff

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"tinkoff-invest-bot/internal/money"
	"tinkoff-invest-bot/internal/types"
)

type postOrderRequest struct {
	InstrumentID string           `json:"instrumentId"`
	Quantity     string           `json:"quantity"`
	Price        *money.Quotation `json:"price,omitempty"`
	Direction    string           `json:"direction"`
	AccountID    string           `json:"accountId"`
	OrderType    string           `json:"orderType"`
	OrderID      string           `json:"orderId"`
}

type postOrderResponse struct {
	OrderID               string            `json:"orderId"`
	ExecutionReportStatus string            `json:"executionReportStatus"`
	LotsExecuted          json.RawMessage   `json:"lotsExecuted"`
	ExecutedOrderPrice    *money.MoneyValue `json:"executedOrderPrice"`
	Message               string            `json:"message"`
}

func direction(d string) (string, error) {
	switch d {
	case "BUY":
		return "ORDER_DIRECTION_BUY", nil
	case "SELL":
		return "ORDER_DIRECTION_SELL", nil
	}
	return "", fmt.Errorf("unknown order direction %q", d)
}

func orderType(o string) (string, error) {
	switch o {
	case "", "MARKET":
		return "ORDER_TYPE_MARKET", nil
	case "LIMIT":
		return "ORDER_TYPE_LIMIT", nil
	}
	return "", fmt.Errorf("unknown order type %q", o)
}

// PlaceOrder posts an order for req.Lots lots. Each call carries a fresh
// idempotency key. DRY_RUN never reaches the API.
func (t *Tinkoff) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if req.Lots <= 0 {
		return types.OrderResp{}, fmt.Errorf("order for %s: lots must be positive, got %d", req.FIGI, req.Lots)
	}
	dir, err := direction(req.Direction)
	if err != nil {
		return types.OrderResp{}, err
	}
	typ, err := orderType(req.OrderType)
	if err != nil {
		return types.OrderResp{}, err
	}

	if t.p.Mode == ModeDryRun {
		return types.OrderResp{
			OrderID:      fmt.Sprintf("SIM-%d", time.Now().UnixNano()),
			Status:       "SIMULATED",
			Message:      "dry-run",
			LotsExecuted: req.Lots,
			Price:        req.Price,
		}, nil
	}

	if err := t.requireAccount(); err != nil {
		return types.OrderResp{}, err
	}

	body := postOrderRequest{
		InstrumentID: req.FIGI,
		Quantity:     strconv.FormatInt(req.Lots, 10),
		Direction:    dir,
		AccountID:    t.p.AccountID,
		OrderType:    typ,
		OrderID:      uuid.NewString(),
	}
	if typ == "ORDER_TYPE_LIMIT" {
		q := money.FromDecimal(req.Price)
		body.Price = &q
	}

	service, method := "OrdersService", "PostOrder"
	if t.p.Sandbox {
		service, method = "SandboxService", "PostSandboxOrder"
	}

	var resp postOrderResponse
	if err := t.call(ctx, service, method, body, &resp); err != nil {
		return types.OrderResp{}, fmt.Errorf("failed to place order for %s: %w", req.FIGI, err)
	}

	out := types.OrderResp{
		OrderID: resp.OrderID,
		Status:  resp.ExecutionReportStatus,
		Message: resp.Message,
	}
	if out.OrderID == "" {
		out.OrderID = body.OrderID
	}
	if lots, err := money.ParseInt64(resp.LotsExecuted); err == nil {
		out.LotsExecuted = lots
	}
	if resp.ExecutedOrderPrice != nil {
		if price, err := money.CastMoney(*resp.ExecutedOrderPrice); err == nil {
			out.Price = price
		}
	}
	return out, nil
}
