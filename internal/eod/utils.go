package eod

import (
	"fmt"
	"path/filepath"
	"time"
)

func (s *eodSummarizer) eodCSVPath(t time.Time) string {
	dateStr := t.In(s.tlog.Location()).Format("2006-01-02")
	return filepath.Join(s.tlog.Dir(), "eod", dateStr+".csv")
}

func (s *eodSummarizer) marketCloseTime(t time.Time) time.Time {
	t = t.In(s.tlog.Location())
	return time.Date(t.Year(), t.Month(), t.Day(), s.closeHour, s.closeMinute, 0, 0, t.Location())
}

// parseCloseTime parses an HH:MM wall clock time.
func parseCloseTime(v string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid close time %q: %w", v, err)
	}
	return t.Hour(), t.Minute(), nil
}
