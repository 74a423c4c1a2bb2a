package tinkoff

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tinkoff-invest-bot/internal/money"
	"tinkoff-invest-bot/internal/types"
)

// Sandbox accounts live behind SandboxService with their own method names.
func (t *Tinkoff) accountMethod(method string) (service, name string) {
	if t.p.Sandbox {
		return "SandboxService", strings.Replace(method, "Get", "GetSandbox", 1)
	}
	return "OperationsService", method
}

// Positions lists security positions of the account. A missing balance is zero.
func (t *Tinkoff) Positions(ctx context.Context) ([]types.Position, error) {
	if err := t.requireAccount(); err != nil {
		return nil, err
	}

	req := map[string]string{"accountId": t.p.AccountID}
	var resp struct {
		Securities []struct {
			FIGI    string          `json:"figi"`
			Balance json.RawMessage `json:"balance"`
		} `json:"securities"`
	}
	service, method := t.accountMethod("GetPositions")
	if err := t.call(ctx, service, method, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to retrieve positions: %w", err)
	}

	positions := make([]types.Position, 0, len(resp.Securities))
	for _, s := range resp.Securities {
		balance, err := money.ParseInt64(s.Balance)
		if err != nil {
			return nil, fmt.Errorf("balance for %s: %w", s.FIGI, err)
		}
		positions = append(positions, types.Position{FIGI: s.FIGI, Balance: balance})
	}
	return positions, nil
}

// Money is the total of all currency positions of the portfolio,
// valued in the configured currency.
func (t *Tinkoff) Money(ctx context.Context) (decimal.Decimal, error) {
	if err := t.requireAccount(); err != nil {
		return decimal.Zero, err
	}

	req := map[string]string{"accountId": t.p.AccountID, "currency": t.p.Currency}
	var resp struct {
		TotalAmountCurrencies money.MoneyValue `json:"totalAmountCurrencies"`
	}
	service, method := t.accountMethod("GetPortfolio")
	if err := t.call(ctx, service, method, req, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("failed to retrieve money: %w", err)
	}

	amount, err := money.CastMoney(resp.TotalAmountCurrencies)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to retrieve money: %w", err)
	}
	return amount, nil
}
