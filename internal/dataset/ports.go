package dataset

import (
	"context"

	"burnscope/internal/core"
)

// Ports for dataset inputs and aggregated-row storage.
type (
	// Source reads the raw burned-area records.
	Source interface {
		Load(ctx context.Context) ([]core.Record, error)
	}

	// AggregateStore holds the aggregated table and answers per-country queries.
	AggregateStore interface {
		// Replace swaps the whole aggregated table.
		Replace(ctx context.Context, rows []core.AggregatedRecord) error
		// ForCountry returns the rows of country with year in [from, to].
		ForCountry(ctx context.Context, country string, from, to int) ([]core.AggregatedRecord, error)
		// Count returns the number of stored rows.
		Count(ctx context.Context) (int, error)
	}
)
