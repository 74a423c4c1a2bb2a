package tinkoff

import (
	"context"
	"fmt"

	"tinkoff-invest-bot/internal/money"
	"tinkoff-invest-bot/internal/types"
)

type shareDTO struct {
	FIGI      string `json:"figi"`
	Ticker    string `json:"ticker"`
	ClassCode string `json:"classCode"`
	Lot       int    `json:"lot"`
	Currency  string `json:"currency"`
}

// Shares lists shares available for trading.
func (t *Tinkoff) Shares(ctx context.Context) ([]types.Share, error) {
	req := map[string]string{"instrumentStatus": "INSTRUMENT_STATUS_BASE"}
	var resp struct {
		Instruments []shareDTO `json:"instruments"`
	}
	if err := t.call(ctx, "InstrumentsService", "Shares", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to retrieve shares: %w", err)
	}

	shares := make([]types.Share, 0, len(resp.Instruments))
	for _, s := range resp.Instruments {
		shares = append(shares, types.Share{
			Ticker:    s.Ticker,
			FIGI:      s.FIGI,
			Lot:       s.Lot,
			Currency:  s.Currency,
			ClassCode: s.ClassCode,
		})
	}
	return shares, nil
}

// LastPrices returns the last trade price for every FIGI the exchange knows.
func (t *Tinkoff) LastPrices(ctx context.Context, figis []string) ([]types.LastPrice, error) {
	if len(figis) == 0 {
		return nil, ErrEmptyInstrumentList
	}

	req := map[string][]string{"instrumentId": figis}
	var resp struct {
		LastPrices []struct {
			FIGI  string          `json:"figi"`
			Price money.Quotation `json:"price"`
		} `json:"lastPrices"`
	}
	if err := t.call(ctx, "MarketDataService", "GetLastPrices", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to retrieve last prices: %w", err)
	}

	prices := make([]types.LastPrice, 0, len(resp.LastPrices))
	for _, p := range resp.LastPrices {
		price, err := money.Cast(p.Price)
		if err != nil {
			return nil, fmt.Errorf("last price for %s: %w", p.FIGI, err)
		}
		prices = append(prices, types.LastPrice{FIGI: p.FIGI, Price: price})
	}
	return prices, nil
}
