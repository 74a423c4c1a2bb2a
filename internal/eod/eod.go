package eod

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"tinkoff-invest-bot/internal/tradelog"
)

type eodSummarizer struct {
	tlog        *tradelog.Log
	closeHour   int
	closeMinute int
}

var headers = []string{"ticker", "figi", "orders", "lots", "shares", "avg_price", "value"}

// SummarizeDay writes the per-ticker buy summary for the day of t.
// A day without orders yields an empty path and no error.
func (s *eodSummarizer) SummarizeDay(t time.Time) (string, error) {
	entries, err := s.tlog.ReadDay(t)
	if err != nil {
		return "", err
	}

	aggs := map[string]*aggRow{}
	for _, e := range entries {
		if e.Direction != "BUY" || e.Lots <= 0 {
			continue
		}
		row := aggs[e.Ticker]
		if row == nil {
			row = &aggRow{Ticker: e.Ticker, FIGI: e.FIGI, Value: decimal.Zero}
			aggs[e.Ticker] = row
		}
		row.Orders++
		row.Lots += e.Lots
		row.Shares += e.Shares()
		row.Value = row.Value.Add(e.Value())
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := s.eodCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	if err := w.Write(headers); err != nil {
		return "", err
	}

	var (
		totalOrders         int
		totalLots, totalQty int64
		totalValue          = decimal.Zero
	)
	for _, k := range keys {
		r := aggs[k]
		rec := []string{
			r.Ticker,
			r.FIGI,
			strconv.Itoa(r.Orders),
			strconv.FormatInt(r.Lots, 10),
			strconv.FormatInt(r.Shares, 10),
			r.avgPrice().StringFixed(4),
			r.Value.StringFixed(2),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalOrders += r.Orders
		totalLots += r.Lots
		totalQty += r.Shares
		totalValue = totalValue.Add(r.Value)
	}
	if err := w.Write([]string{
		"TOTAL", "",
		strconv.Itoa(totalOrders),
		strconv.FormatInt(totalLots, 10),
		strconv.FormatInt(totalQty, 10),
		"",
		totalValue.StringFixed(2),
	}); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, nil
}

func (s *eodSummarizer) SummarizeToday() (string, error) {
	return s.SummarizeDay(s.tlog.Now())
}

// ShouldRunNow is true once the market has closed and today's summary
// has not been written yet.
func (s *eodSummarizer) ShouldRunNow() (bool, string) {
	now := s.tlog.Now()
	outPath := s.eodCSVPath(now)
	if now.After(s.marketCloseTime(now)) {
		if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
			return true, outPath
		}
	}
	return false, outPath
}
