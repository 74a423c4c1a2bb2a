package eod

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinkoff-invest-bot/internal/eod/eodobs"
	"tinkoff-invest-bot/internal/tradelog"
)

func newLog(t *testing.T, now time.Time) *tradelog.Log {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	l := tradelog.New(t.TempDir(), loc)
	l.SetClock(func() time.Time { return now })
	return l
}

func appendBuy(t *testing.T, l *tradelog.Log, ticker string, lots int64, lot int, price string) {
	require.NoError(t, l.Append(tradelog.Entry{
		Ticker: ticker, FIGI: "FIGI-" + ticker, Direction: "BUY",
		Lots: lots, Lot: lot, Price: decimal.RequireFromString(price),
	}))
}

func TestSummarizeDay(t *testing.T) {
	now := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	l := newLog(t, now)
	appendBuy(t, l, "SBER", 2, 10, "250")
	appendBuy(t, l, "SBER", 1, 10, "280")
	appendBuy(t, l, "LKOH", 3, 1, "7000")

	s, err := NewSummarizer(l, "18:50")
	require.NoError(t, err)

	path, err := s.SummarizeDay(now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(l.Dir(), "eod", "2024-05-06.csv"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"ticker", "figi", "orders", "lots", "shares", "avg_price", "value"},
		{"LKOH", "FIGI-LKOH", "1", "3", "3", "7000.0000", "21000.00"},
		{"SBER", "FIGI-SBER", "2", "3", "30", "260.0000", "7800.00"},
		{"TOTAL", "", "3", "6", "33", "", "28800.00"},
	}, records)
}

func TestSummarizeDayWithoutOrders(t *testing.T) {
	now := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	s, err := NewSummarizer(newLog(t, now), "18:50")
	require.NoError(t, err)

	path, err := s.SummarizeDay(now)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestShouldRunNow(t *testing.T) {
	// 16:00 UTC is 19:00 in Moscow, after the close.
	now := time.Date(2024, 5, 6, 16, 0, 0, 0, time.UTC)
	l := newLog(t, now)
	appendBuy(t, l, "SBER", 1, 10, "250")
	s, err := NewSummarizer(l, "18:50")
	require.NoError(t, err)

	run, path := s.ShouldRunNow()
	assert.True(t, run)

	written, err := s.SummarizeToday()
	require.NoError(t, err)
	assert.Equal(t, path, written)

	run, _ = s.ShouldRunNow()
	assert.False(t, run, "summary already exists")
}

func TestShouldRunNowBeforeClose(t *testing.T) {
	s, err := NewSummarizer(newLog(t, time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)), "18:50")
	require.NoError(t, err)
	run, _ := s.ShouldRunNow()
	assert.False(t, run)
}

func TestNewSummarizerRejectsBadTime(t *testing.T) {
	_, err := NewSummarizer(newLog(t, time.Now()), "7pm")
	assert.Error(t, err)
}

func TestObservableSummarizer(t *testing.T) {
	now := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	l := newLog(t, now)
	appendBuy(t, l, "GAZP", 5, 10, "160")
	s, err := NewSummarizer(l, "18:50")
	require.NoError(t, err)

	wrapped := eodobs.Wrap(s)
	path, err := wrapped.SummarizeDay(now)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
