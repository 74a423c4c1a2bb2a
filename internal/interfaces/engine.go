package interfaces

import (
	"context"

	"tinkoff-invest-bot/internal/types"
)

type Engine interface {
	Plan(ctx context.Context) (*types.Plan, error)
	Rebalance(ctx context.Context) (*types.RebalanceResult, error)
}
