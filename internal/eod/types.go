package eod

import "github.com/shopspring/decimal"

// aggRow is the day's buying of one ticker.
type aggRow struct {
	Ticker string
	FIGI   string
	Orders int
	Lots   int64
	Shares int64
	Value  decimal.Decimal // Σ price * shares
}

func (r *aggRow) avgPrice() decimal.Decimal {
	if r.Shares == 0 {
		return decimal.Zero
	}
	return r.Value.Div(decimal.NewFromInt(r.Shares))
}
