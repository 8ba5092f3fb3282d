// Package fetcher acquires raw price rows from the monitored page.
package fetcher

import (
	"context"

	"goldwatch/internal/record"
)

// SourceReader yields the raw rows of the published price table, in document
// order. Both "page unreachable" and "table structure missing" are fatal for
// the cycle; no partial results are returned.
type SourceReader interface {
	FetchRows(ctx context.Context) ([]record.Row, error)
}
