package eodobs

import (
	"context"
	"time"

	"tinkoff-invest-bot/internal/interfaces"
	"tinkoff-invest-bot/internal/logger"
	"tinkoff-invest-bot/internal/trace"
)

type observableEodSummarizer struct {
	summarizer interfaces.EodSummarizer
}

var _ interfaces.EodSummarizer = (*observableEodSummarizer)(nil)

func Wrap(summarizer interfaces.EodSummarizer) interfaces.EodSummarizer {
	return &observableEodSummarizer{
		summarizer: summarizer,
	}
}

func (oes *observableEodSummarizer) observe(op string, fields []any, fn func() (string, error)) (string, error) {
	ctx, span := trace.StartSpan(context.Background(), "eod."+op)
	defer span.End()

	start := time.Now()
	csvPath, err := fn()
	fields = append(fields, "duration_ms", time.Since(start).Milliseconds())
	switch {
	case err != nil:
		logger.ErrorWithErrSkip(ctx, 2, "EOD summary failed", err, fields...)
		return "", err
	case csvPath == "":
		logger.InfoSkip(ctx, 2, "No orders to summarize", fields...)
	default:
		logger.InfoSkip(ctx, 2, "EOD summary written", append(fields, "csv_path", csvPath)...)
	}
	return csvPath, nil
}

func (oes *observableEodSummarizer) SummarizeDay(t time.Time) (string, error) {
	return oes.observe("SummarizeDay", []any{"date", t.Format("2006-01-02")}, func() (string, error) {
		return oes.summarizer.SummarizeDay(t)
	})
}

func (oes *observableEodSummarizer) SummarizeToday() (string, error) {
	return oes.observe("SummarizeToday", nil, oes.summarizer.SummarizeToday)
}

func (oes *observableEodSummarizer) ShouldRunNow() (bool, string) {
	ctx, span := trace.StartSpan(context.Background(), "eod.ShouldRunNow")
	defer span.End()

	shouldRun, csvPath := oes.summarizer.ShouldRunNow()
	logger.DebugSkip(ctx, 1, "EOD check completed",
		"should_run", shouldRun,
		"csv_path", csvPath,
	)
	return shouldRun, csvPath
}
