// Package provider exposes the dataset-fetch capability the pagination
// layer is built on. The SQLite implementation serves the local stats
// cache; the interface keeps the layers above it ignorant of storage.
package provider

import (
	"context"

	"github.com/ghadfield32/nba-prospects-mcp-sub003/internal/tabular"
)

// Filters narrows a fetch to rows matching every column=value pair.
type Filters map[string]string

// Fetcher fetches one page of a dataset. Implementations must return rows
// in a stable order so offset-based pagination never duplicates or skips
// rows between calls.
type Fetcher interface {
	Fetch(ctx context.Context, dataset string, filters Filters, limit, offset int) (*tabular.Result, error)
}

// FetchFunc adapts a function to the Fetcher interface. Used by tests and
// by in-memory providers.
type FetchFunc func(ctx context.Context, dataset string, filters Filters, limit, offset int) (*tabular.Result, error)

// Fetch implements Fetcher.
func (f FetchFunc) Fetch(ctx context.Context, dataset string, filters Filters, limit, offset int) (*tabular.Result, error) {
	return f(ctx, dataset, filters, limit, offset)
}
