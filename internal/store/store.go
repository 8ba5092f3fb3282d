// Package store persists the last notified snapshot. One primary backend
// (GitHub Gist or Postgres) is paired with a local-file fallback; only the
// single most recent snapshot is kept, overwritten wholesale on every save.
package store

import (
	"context"
	"errors"
)

// ErrNotFound marks a remote read for a snapshot that was never saved.
// It is a distinguished, non-fatal outcome: callers treat it as empty text,
// not as a reason to fall back.
var ErrNotFound = errors.New("store: snapshot not found")

// Store loads and saves the last canonical snapshot text.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, text string) error
}

// Remote is a primary backend that can fail independently of the local
// fallback. Fetch returns ErrNotFound when nothing was ever saved.
type Remote interface {
	Fetch(ctx context.Context) (string, error)
	Put(ctx context.Context, text string) error
}
