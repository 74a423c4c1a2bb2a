package engine

import (
	"tinkoff-invest-bot/internal/interfaces"
	"tinkoff-invest-bot/internal/store"
	"tinkoff-invest-bot/internal/tradelog"
)

func New(cfg *store.Config, brk interfaces.Broker, fetcher interfaces.IndexDataFetcher, tlog *tradelog.Log) *Engine {
	return newEngine(cfg, brk, fetcher, tlog)
}

var _ interfaces.Engine = (*Engine)(nil)
