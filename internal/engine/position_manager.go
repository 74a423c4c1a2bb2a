package engine

import (
	"github.com/shopspring/decimal"

	"tinkoff-invest-bot/internal/types"
)

// preferredClassCode is the main MOEX board; a ticker listed on several
// boards resolves to this one when present.
const preferredClassCode = "TQBR"

// positionBook indexes broker data for joining with index weights.
type positionBook struct {
	shares   map[string]types.Share // by ticker
	balances map[string]int64       // by FIGI
	prices   map[string]decimal.Decimal
}

func newPositionBook(md *MarketData) *positionBook {
	pb := &positionBook{
		shares:   make(map[string]types.Share, len(md.Shares)),
		balances: make(map[string]int64, len(md.Positions)),
		prices:   make(map[string]decimal.Decimal, len(md.Prices)),
	}
	for _, s := range md.Shares {
		prev, seen := pb.shares[s.Ticker]
		if !seen || (prev.ClassCode != preferredClassCode && s.ClassCode == preferredClassCode) {
			pb.shares[s.Ticker] = s
		}
	}
	for _, p := range md.Positions {
		pb.balances[p.FIGI] += p.Balance
	}
	for _, p := range md.Prices {
		pb.prices[p.FIGI] = p.Price
	}
	return pb
}

// join left-joins weights with shares on ticker, then with positions and
// prices on FIGI. A missing position is a zero balance.
func (pb *positionBook) join(weights []types.IndexWeight) []types.Holding {
	holdings := make([]types.Holding, 0, len(weights))
	for _, w := range weights {
		h := types.Holding{Name: w.Name, Ticker: w.Ticker, Weight: w.Weight}
		if s, ok := pb.shares[w.Ticker]; ok && w.Ticker != "" {
			h.HasShare = true
			h.FIGI = s.FIGI
			h.Lot = s.Lot
			h.Balance = pb.balances[s.FIGI]
			if price, ok := pb.prices[s.FIGI]; ok {
				h.HasPrice = true
				h.Price = price
			}
		}
		holdings = append(holdings, h)
	}
	return holdings
}
