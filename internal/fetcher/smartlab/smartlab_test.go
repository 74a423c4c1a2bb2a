package smartlab

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinkoff-invest-bot/internal/interfaces"
	"tinkoff-invest-bot/internal/types"
)

const indexPage = `<html><body>
<table><tr><td>menu</td></tr></table>
<table class="simple-little-table">
<tr><th>№</th><th>Название</th><th>Вес</th><th>Цена</th><th>Изм</th></tr>
<tr><td>1</td><td>Сбербанк</td><td>14,52%</td><td>270</td><td>+1%</td></tr>
<tr><td>2</td><td>Лукойл</td><td>13.1%</td><td>7000</td><td>-1%</td></tr>
<tr><td>3</td><td>Неизвестная</td><td>0.5%</td><td>1</td><td>0%</td></tr>
</table>
</body></html>`

const sharesPage = `<html><body>
<table>
<tr><th>№</th><th>Название</th><th>Тикер</th></tr>
<tr><td>1</td><td>Сбербанк</td><td>SBER</td></tr>
<tr><td>2</td><td>Лукойл</td><td>LKOH</td></tr>
<tr><td>3</td><td>Сбербанк</td><td>SBERP</td></tr>
</table>
</body></html>`

func newPageServer(t *testing.T, hits *int32) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/index", func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexPage))
	})
	mux.HandleFunc("/shares", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(sharesPage))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestParseTable(t *testing.T) {
	table, err := ParseTable([]byte(indexPage), 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"№", "Название", "Вес", "Цена", "Изм"}, table.Headers)
	require.Len(t, table.Rows, 4)
	assert.Equal(t, []string{"", "", "", "", ""}, table.Rows[0], "header row yields an empty row")
	assert.Equal(t, []string{"1", "Сбербанк", "14,52%", "270", "+1%"}, table.Rows[1])
}

func TestParseTableErrors(t *testing.T) {
	_, err := ParseTable([]byte(indexPage), 5)
	assert.ErrorIs(t, err, ErrTableNotFound)

	_, err = ParseTable([]byte(indexPage), 0)
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = ParseTable([]byte(`<table><tr><th>a</th></tr><tr><td>1</td><td>2</td></tr></table>`), 0)
	assert.Error(t, err)
}

func TestTrim(t *testing.T) {
	table, err := ParseTable([]byte(indexPage), 1)
	require.NoError(t, err)

	trimmed, err := Trim(table, interfaces.ValidateOptions{SkipRows: 1, SkipStartColumns: 1, SkipEndColumns: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Название", "Вес"}, trimmed.Headers)
	assert.Equal(t, [][]string{
		{"Сбербанк", "14,52%"},
		{"Лукойл", "13.1%"},
		{"Неизвестная", "0.5%"},
	}, trimmed.Rows)

	_, err = Trim(table, interfaces.ValidateOptions{SkipStartColumns: 3, SkipEndColumns: 2})
	assert.Error(t, err)
}

func TestJoinMissingColumn(t *testing.T) {
	index := &types.Table{Headers: []string{"Название"}, Rows: [][]string{{"A"}}}
	tickers := &types.Table{Headers: []string{"Название", "Тикер"}}
	_, err := Join(index, tickers)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"14,52%", 14.52, false},
		{" 3.1 % ", 3.1, false},
		{"7", 7, false},
		{"", 0, true},
		{"n/a%", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWeight(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestFetchAndValidate(t *testing.T) {
	srv := newPageServer(t, nil)
	f := NewFetcher(Options{Timeout: 5 * time.Second})
	ctx := context.Background()

	table, err := f.FetchIndexData(ctx, srv.URL+"/index", 1)
	require.NoError(t, err)

	weights, err := f.ValidateData(ctx, table, srv.URL+"/shares",
		interfaces.ValidateOptions{SkipRows: 1, SkipStartColumns: 1, SkipEndColumns: 2})
	require.NoError(t, err)
	assert.Equal(t, []types.IndexWeight{
		{Name: "Сбербанк", Ticker: "SBER", Weight: 14.52},
		{Name: "Лукойл", Ticker: "LKOH", Weight: 13.1},
		{Name: "Неизвестная", Ticker: "", Weight: 0.5},
	}, weights)
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewFetcher(Options{}).FetchIndexData(context.Background(), srv.URL, 0)
	assert.Error(t, err)
}

func TestFetchCanceledContext(t *testing.T) {
	srv := newPageServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFetcher(Options{}).FetchHTML(ctx, srv.URL+"/index")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchUsesCache(t *testing.T) {
	var hits int32
	srv := newPageServer(t, &hits)

	cache, err := NewPageCache(t.TempDir(), time.Hour)
	require.NoError(t, err)
	f := NewFetcher(Options{Cache: cache})

	for i := 0; i < 3; i++ {
		_, err := f.FetchIndexData(context.Background(), srv.URL+"/index", 1)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestPageCacheExpiry(t *testing.T) {
	cache, err := NewPageCache(t.TempDir(), time.Minute)
	require.NoError(t, err)

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	require.NoError(t, cache.Set("https://example.com/a", []byte("body")))

	body, ok := cache.Get("https://example.com/a")
	require.True(t, ok)
	assert.Equal(t, "body", string(body))

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("https://example.com/a")
	assert.False(t, ok)
}

func TestPageCacheDisabled(t *testing.T) {
	cache, err := NewPageCache(t.TempDir(), 0)
	require.NoError(t, err)
	assert.Nil(t, cache)

	require.NoError(t, cache.Set("u", []byte("x")))
	_, ok := cache.Get("u")
	assert.False(t, ok)
}
