package types

import "github.com/shopspring/decimal"

// Share is a tradable share as listed by the broker.
type Share struct {
	Ticker    string `json:"ticker"`
	FIGI      string `json:"figi"`
	Lot       int    `json:"lot"`
	Currency  string `json:"currency,omitempty"`
	ClassCode string `json:"class_code,omitempty"`
}

// Position is a security held on the account, balance in shares.
type Position struct {
	FIGI    string `json:"figi"`
	Balance int64  `json:"balance"`
}

type LastPrice struct {
	FIGI  string          `json:"figi"`
	Price decimal.Decimal `json:"price"`
}

// Table is an HTML table: header cells plus one row per <tr>.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// IndexWeight is the weight (percent) of a ticker in the index.
// Ticker is empty when the company name matched no listed share.
type IndexWeight struct {
	Name   string  `json:"name"`
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

// Holding joins an index constituent with account and market data.
// HasShare and HasPrice mark which joins matched.
type Holding struct {
	Name    string          `json:"name"`
	Ticker  string          `json:"ticker"`
	Weight  float64         `json:"weight"`
	FIGI    string          `json:"figi"`
	Lot     int             `json:"lot"`
	Balance int64           `json:"balance"`
	Price   decimal.Decimal `json:"price"`

	HasShare bool `json:"has_share"`
	HasPrice bool `json:"has_price"`

	LotPrice     decimal.Decimal `json:"lot_price"`
	Volume       decimal.Decimal `json:"portfolio_rubles_volume"`
	WeightVolume decimal.Decimal `json:"portfolio_weight_volume"`
	Ideal        decimal.Decimal `json:"ideal_portfolio"`
}

// Portfolio is the snapshot a rebalance plan is computed from.
type Portfolio struct {
	Money    decimal.Decimal `json:"money"`
	Total    decimal.Decimal `json:"total"`
	Holdings []Holding       `json:"holdings"`
}

type PlanItem struct {
	Ticker    string          `json:"ticker"`
	FIGI      string          `json:"figi"`
	ToBuy     decimal.Decimal `json:"to_buy_rubles"`
	LotPrice  decimal.Decimal `json:"lot_price"`
	LotsToBuy int64           `json:"lots_to_buy"`
	Lot       int             `json:"lot"`
	Price     decimal.Decimal `json:"price"`
}

type Plan struct {
	Portfolio *Portfolio `json:"portfolio"`
	Items     []PlanItem `json:"items"`
}

// Lots returns the plan as FIGI -> lots to buy.
func (p *Plan) Lots() map[string]int64 {
	out := make(map[string]int64, len(p.Items))
	for _, it := range p.Items {
		out[it.FIGI] = it.LotsToBuy
	}
	return out
}

type OrderReq struct {
	FIGI      string
	Ticker    string
	Direction string // BUY or SELL
	Lots      int64
	OrderType string // MARKET or LIMIT
	Price     decimal.Decimal
	Tag       string
}

type OrderResp struct {
	OrderID      string          `json:"order_id"`
	Status       string          `json:"status"`
	Message      string          `json:"message,omitempty"`
	LotsExecuted int64           `json:"lots_executed"`
	Price        decimal.Decimal `json:"price"`
}

// RebalanceResult is the outcome of one rebalance run.
type RebalanceResult struct {
	Mode    string          `json:"mode"`
	Plan    *Plan           `json:"plan"`
	Orders  []OrderResp     `json:"orders"`
	Skipped []string        `json:"skipped,omitempty"`
	Spent   decimal.Decimal `json:"spent"`
}
