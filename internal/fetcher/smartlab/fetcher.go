// Package smartlab scrapes index composition tables from smart-lab.ru pages.
package smartlab

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"tinkoff-invest-bot/internal/api"
	"tinkoff-invest-bot/internal/interfaces"
	"tinkoff-invest-bot/internal/logger"
	"tinkoff-invest-bot/internal/metrics"
	"tinkoff-invest-bot/internal/types"
)

var (
	ErrTableNotFound = errors.New("no table found at index")
	ErrEmptyTable    = errors.New("table headers or rows are empty")
	ErrMissingColumn = errors.New("column not found")
)

// Options configures a Fetcher. Zero values select defaults.
type Options struct {
	Timeout           time.Duration
	UserAgent         string
	Cache             *PageCache
	TickersTableIndex int
}

// Fetcher downloads smart-lab pages and extracts their tables.
type Fetcher struct {
	timeout           time.Duration
	userAgent         string
	cache             *PageCache
	tickersTableIndex int
}

var _ interfaces.IndexDataFetcher = (*Fetcher)(nil)

func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = api.BrowserHeaders()["User-Agent"]
	}
	return &Fetcher{
		timeout:           opts.Timeout,
		userAgent:         opts.UserAgent,
		cache:             opts.Cache,
		tickersTableIndex: opts.TickersTableIndex,
	}
}

// FetchHTML returns the page body, from the cache when fresh.
func (f *Fetcher) FetchHTML(ctx context.Context, url string) ([]byte, error) {
	if body, ok := f.cache.Get(url); ok {
		logger.Debug(ctx, "Page served from cache", "url", url)
		return body, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.UserAgent(f.userAgent),
		colly.MaxDepth(1),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.timeout)

	c.OnRequest(func(r *colly.Request) {
		for k, v := range api.BrowserHeaders() {
			if k != "User-Agent" {
				r.Headers.Set(k, v)
			}
		}
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	var (
		body     []byte
		visitErr error
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
	})

	err := c.Visit(url)
	c.Wait()
	if err == nil {
		err = visitErr
	}
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	metrics.IncScrape(err)
	if err != nil {
		return nil, fmt.Errorf("error fetching %s: %w", url, err)
	}

	if err := f.cache.Set(url, body); err != nil {
		logger.Warn(ctx, "Failed to cache page", "url", url, "error", err)
	}
	return body, nil
}

// FetchIndexData fetches url and parses its tableIndex-th table.
func (f *Fetcher) FetchIndexData(ctx context.Context, url string, tableIndex int) (*types.Table, error) {
	html, err := f.FetchHTML(ctx, url)
	if err != nil {
		return nil, err
	}
	table, err := ParseTable(html, tableIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	logger.Debug(ctx, "Table parsed", "url", url, "columns", len(table.Headers), "rows", len(table.Rows))
	return table, nil
}

// ParseTable extracts the tableIndex-th <table> of an HTML document.
// Headers are the <th> texts; every <tr> becomes a row of its <td> texts,
// padded to the header width, so a header-only <tr> yields an empty row.
func ParseTable(html []byte, tableIndex int) (*types.Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tables := doc.Find("table")
	if tableIndex < 0 || tableIndex >= tables.Length() {
		return nil, fmt.Errorf("%w %d", ErrTableNotFound, tableIndex)
	}
	return parseTableData(tables.Eq(tableIndex))
}

func parseTableData(table *goquery.Selection) (*types.Table, error) {
	headers := table.Find("th").Map(func(_ int, th *goquery.Selection) string {
		return cellText(th)
	})

	var rows [][]string
	nonEmpty := false
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		row := tr.Find("td").Map(func(_ int, td *goquery.Selection) string {
			return cellText(td)
		})
		if len(row) > 0 {
			nonEmpty = true
		}
		rows = append(rows, row)
	})

	if len(headers) == 0 || !nonEmpty {
		return nil, ErrEmptyTable
	}

	for i, row := range rows {
		if len(row) > len(headers) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d", i, len(row), len(headers))
		}
		for len(row) < len(headers) {
			row = append(row, "")
		}
		rows[i] = row
	}
	return &types.Table{Headers: headers, Rows: rows}, nil
}

func cellText(s *goquery.Selection) string {
	return strings.TrimSpace(strings.ReplaceAll(s.Text(), "\u00a0", " "))
}
