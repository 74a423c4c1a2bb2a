package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"tinkoff-invest-bot/internal/types"
)

type Broker interface {
	Shares(ctx context.Context) ([]types.Share, error)
	Positions(ctx context.Context) ([]types.Position, error)
	LastPrices(ctx context.Context, figis []string) ([]types.LastPrice, error)
	Money(ctx context.Context) (decimal.Decimal, error)
	PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
}
