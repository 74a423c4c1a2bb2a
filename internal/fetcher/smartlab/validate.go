package smartlab

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tinkoff-invest-bot/internal/interfaces"
	"tinkoff-invest-bot/internal/logger"
	"tinkoff-invest-bot/internal/types"
)

const (
	ColumnName   = "Название"
	ColumnTicker = "Тикер"
	ColumnWeight = "Вес"
)

// ValidateData trims the index table and resolves company names to tickers
// using the table at tickersURL. Names without a match keep an empty ticker.
func (f *Fetcher) ValidateData(ctx context.Context, data *types.Table, tickersURL string, opts interfaces.ValidateOptions) ([]types.IndexWeight, error) {
	if data == nil || len(data.Headers) == 0 || len(data.Rows) == 0 {
		return nil, ErrEmptyTable
	}

	trimmed, err := Trim(data, opts)
	if err != nil {
		return nil, err
	}

	tickers, err := f.FetchIndexData(ctx, tickersURL, f.tickersTableIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to load tickers: %w", err)
	}

	weights, err := Join(trimmed, tickers)
	if err != nil {
		return nil, err
	}

	unmatched := 0
	for _, w := range weights {
		if w.Ticker == "" {
			unmatched++
		}
	}
	logger.Info(ctx, "Index data validated", "rows", len(weights), "unmatched", unmatched)
	return weights, nil
}

// Trim drops the leading rows, leading columns and trailing columns named by opts.
func Trim(data *types.Table, opts interfaces.ValidateOptions) (*types.Table, error) {
	if opts.SkipRows < 0 || opts.SkipStartColumns < 0 || opts.SkipEndColumns < 0 {
		return nil, fmt.Errorf("negative trim options: %+v", opts)
	}
	end := len(data.Headers) - opts.SkipEndColumns
	if opts.SkipStartColumns >= end {
		return nil, fmt.Errorf("trimming %d+%d columns leaves nothing of %d",
			opts.SkipStartColumns, opts.SkipEndColumns, len(data.Headers))
	}

	out := &types.Table{Headers: append([]string(nil), data.Headers[opts.SkipStartColumns:end]...)}
	if opts.SkipRows >= len(data.Rows) {
		return out, nil
	}
	for _, row := range data.Rows[opts.SkipRows:] {
		if len(row) < end {
			return nil, fmt.Errorf("row has %d cells, need %d", len(row), end)
		}
		out.Rows = append(out.Rows, append([]string(nil), row[opts.SkipStartColumns:end]...))
	}
	return out, nil
}

// Join left-joins index rows with the tickers table on the company name
// and parses the weight column.
func Join(index, tickers *types.Table) ([]types.IndexWeight, error) {
	nameCol, err := column(index, ColumnName)
	if err != nil {
		return nil, err
	}
	weightCol, err := column(index, ColumnWeight)
	if err != nil {
		return nil, err
	}
	tickerNameCol, err := column(tickers, ColumnName)
	if err != nil {
		return nil, fmt.Errorf("tickers table: %w", err)
	}
	tickerCol, err := column(tickers, ColumnTicker)
	if err != nil {
		return nil, fmt.Errorf("tickers table: %w", err)
	}

	byName := make(map[string]string, len(tickers.Rows))
	for _, row := range tickers.Rows {
		name := row[tickerNameCol]
		if name == "" {
			continue
		}
		if _, seen := byName[name]; !seen {
			byName[name] = row[tickerCol]
		}
	}

	weights := make([]types.IndexWeight, 0, len(index.Rows))
	for _, row := range index.Rows {
		w, err := ParseWeight(row[weightCol])
		if err != nil {
			return nil, fmt.Errorf("weight of %q: %w", row[nameCol], err)
		}
		weights = append(weights, types.IndexWeight{
			Name:   row[nameCol],
			Ticker: byName[row[nameCol]],
			Weight: w,
		})
	}
	return weights, nil
}

// ParseWeight parses a percent cell such as "14,52%" or "3.1%".
func ParseWeight(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}

func column(t *types.Table, name string) (int, error) {
	for i, h := range t.Headers {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
}
