package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"tinkoff-invest-bot/internal/logger"
	"tinkoff-invest-bot/internal/types"
)

// cashBudget tracks money left for buying during one rebalance.
type cashBudget struct {
	remaining decimal.Decimal
	maxOrders int
	placed    int
}

func newCashBudget(money, reserve decimal.Decimal, maxOrders int) *cashBudget {
	remaining := money.Sub(reserve)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return &cashBudget{remaining: remaining, maxOrders: maxOrders}
}

// fit returns how many of the item's lots the budget still covers,
// or zero and the reason it covers none.
func (b *cashBudget) fit(ctx context.Context, it types.PlanItem) (int64, string) {
	if b.maxOrders > 0 && b.placed >= b.maxOrders {
		logger.Risk(ctx, it.Ticker, "MAX_ORDERS", "max_orders", b.maxOrders)
		return 0, "max orders reached"
	}
	cost := it.LotPrice.Mul(decimal.NewFromInt(it.LotsToBuy))
	if cost.LessThanOrEqual(b.remaining) {
		return it.LotsToBuy, ""
	}

	affordable, _ := b.remaining.QuoRem(it.LotPrice, 0)
	lots := affordable.IntPart()
	if lots <= 0 {
		logger.Risk(ctx, it.Ticker, "INSUFFICIENT_CASH",
			"lot_price", it.LotPrice.String(),
			"remaining", b.remaining.String(),
		)
		return 0, "insufficient cash"
	}
	logger.Risk(ctx, it.Ticker, "TRIMMED",
		"planned_lots", it.LotsToBuy,
		"lots", lots,
		"remaining", b.remaining.String(),
	)
	return lots, ""
}

// spend books an order and returns its cost.
func (b *cashBudget) spend(it types.PlanItem, lots int64) decimal.Decimal {
	cost := it.LotPrice.Mul(decimal.NewFromInt(lots))
	b.remaining = b.remaining.Sub(cost)
	b.placed++
	return cost
}
