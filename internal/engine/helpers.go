package engine

import (
	"github.com/shopspring/decimal"

	"tinkoff-invest-bot/internal/types"
)

var hundred = decimal.NewFromInt(100)

// computePortfolio fills lot prices, ruble volumes, current weights and the
// ideal allocation. Holdings without a price count as zero volume.
func computePortfolio(holdings []types.Holding, money decimal.Decimal) *types.Portfolio {
	volumes := decimal.Zero
	for i := range holdings {
		h := &holdings[i]
		if !h.HasShare || !h.HasPrice {
			continue
		}
		h.LotPrice = h.Price.Mul(decimal.NewFromInt(int64(h.Lot)))
		h.Volume = h.Price.Mul(decimal.NewFromInt(h.Balance))
		volumes = volumes.Add(h.Volume)
	}

	total := volumes.Add(money)
	for i := range holdings {
		h := &holdings[i]
		if total.IsPositive() {
			h.WeightVolume = h.Volume.Div(total).Mul(hundred)
		}
		h.Ideal = decimal.NewFromFloat(h.Weight).Div(hundred).Mul(total)
	}

	return &types.Portfolio{Money: money, Total: total, Holdings: holdings}
}

// searchShares selects holdings short of their ideal allocation by more
// than one lot and affordable with the available money.
func searchShares(p *types.Portfolio) []types.PlanItem {
	var items []types.PlanItem
	for _, h := range p.Holdings {
		if !h.HasShare || !h.HasPrice || !h.LotPrice.IsPositive() {
			continue
		}
		toBuy := h.Ideal.Sub(h.Volume).Floor()
		if !toBuy.IsPositive() || h.LotPrice.GreaterThan(p.Money) || !toBuy.GreaterThan(h.LotPrice) {
			continue
		}
		lots, _ := toBuy.QuoRem(h.LotPrice, 0)
		items = append(items, types.PlanItem{
			Ticker:    h.Ticker,
			FIGI:      h.FIGI,
			ToBuy:     toBuy,
			LotPrice:  h.LotPrice,
			LotsToBuy: lots.IntPart(),
			Lot:       h.Lot,
			Price:     h.Price,
		})
	}
	return items
}
