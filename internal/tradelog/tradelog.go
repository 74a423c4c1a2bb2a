package tradelog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"tinkoff-invest-bot/internal/types"
)

const timeLayout = "2006-01-02 15:04:05"

// Entry is one placed order.
type Entry struct {
	Time      string          `json:"time"`
	Mode      string          `json:"mode"`
	Ticker    string          `json:"ticker"`
	FIGI      string          `json:"figi"`
	Direction string          `json:"direction"`
	Lots      int64           `json:"lots"`
	Lot       int             `json:"lot"`
	Price     decimal.Decimal `json:"price"`
	OrderID   string          `json:"order_id"`
	Status    string          `json:"status"`
	Reason    string          `json:"reason,omitempty"`
}

// Shares is the number of shares the entry covers.
func (e Entry) Shares() int64 { return e.Lots * int64(e.Lot) }

// Value is the ruble value of the entry at its price.
func (e Entry) Value() decimal.Decimal {
	return e.Price.Mul(decimal.NewFromInt(e.Shares()))
}

// PlanEntry is one computed rebalance plan.
type PlanEntry struct {
	Time  string           `json:"time"`
	Mode  string           `json:"mode"`
	Money decimal.Decimal  `json:"money"`
	Total decimal.Decimal  `json:"total"`
	Items []types.PlanItem `json:"items"`
}

// Log writes JSON lines into one file per day in loc.
type Log struct {
	dir string
	loc *time.Location
	now func() time.Time
	mu  sync.Mutex
}

func New(dir string, loc *time.Location) *Log {
	if dir == "" {
		dir = "logs"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Log{dir: dir, loc: loc, now: time.Now}
}

// SetClock replaces the time source.
func (l *Log) SetClock(now func() time.Time) { l.now = now }

func (l *Log) Dir() string              { return l.dir }
func (l *Log) Location() *time.Location { return l.loc }
func (l *Log) Now() time.Time           { return l.now().In(l.loc) }

// DayFile is the order log path for the day t falls on.
func (l *Log) DayFile(t time.Time) string {
	return filepath.Join(l.dir, t.In(l.loc).Format("2006-01-02")+".txt")
}

func (l *Log) planFile(t time.Time) string {
	return filepath.Join(l.dir, "plans", t.In(l.loc).Format("2006-01-02")+".txt")
}

func (l *Log) Append(e Entry) error {
	now := l.Now()
	if e.Time == "" {
		e.Time = now.Format(timeLayout)
	}
	return l.appendLine(l.DayFile(now), e)
}

func (l *Log) AppendPlan(e PlanEntry) error {
	now := l.Now()
	if e.Time == "" {
		e.Time = now.Format(timeLayout)
	}
	return l.appendLine(l.planFile(now), e)
}

func (l *Log) appendLine(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// ReadDay returns the orders logged on the day of t. A missing file is no orders.
// Malformed lines are skipped.
func (l *Log) ReadDay(t time.Time) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.DayFile(t))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}

// CompressOlder gzips .txt logs last modified more than retentionDays ago.
func (l *Log) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(l.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			_ = os.Remove(gz)
			return fmt.Errorf("compress %s: %w", p, err)
		}
		return os.Remove(p)
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
