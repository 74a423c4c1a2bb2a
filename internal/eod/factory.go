package eod

import (
	"tinkoff-invest-bot/internal/interfaces"
	"tinkoff-invest-bot/internal/tradelog"
)

// NewSummarizer summarizes the orders in tlog. closeTime is HH:MM in the
// log's timezone.
func NewSummarizer(tlog *tradelog.Log, closeTime string) (interfaces.EodSummarizer, error) {
	hour, minute, err := parseCloseTime(closeTime)
	if err != nil {
		return nil, err
	}
	return &eodSummarizer{tlog: tlog, closeHour: hour, closeMinute: minute}, nil
}
