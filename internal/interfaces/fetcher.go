package interfaces

import (
	"context"

	"tinkoff-invest-bot/internal/types"
)

// ValidateOptions controls how an index table is trimmed before the join.
type ValidateOptions struct {
	SkipRows         int
	SkipStartColumns int
	SkipEndColumns   int
}

// IndexDataFetcher retrieves an index composition table and turns it into weights.
type IndexDataFetcher interface {
	FetchIndexData(ctx context.Context, url string, tableIndex int) (*types.Table, error)
	ValidateData(ctx context.Context, data *types.Table, tickersURL string, opts ValidateOptions) ([]types.IndexWeight, error)
}
