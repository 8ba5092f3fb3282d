package store

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Fallback pairs a primary remote backend with the local file. Remote
// failures other than not-found degrade to the file on both paths; they are
// logged, never surfaced as cycle failures.
type Fallback struct {
	remote Remote
	local  *FileStore
	logger zerolog.Logger
}

// NewFallback wraps remote with a local-file fallback. A nil remote reads
// and writes the file directly.
func NewFallback(remote Remote, local *FileStore, logger zerolog.Logger) *Fallback {
	return &Fallback{
		remote: remote,
		local:  local,
		logger: logger.With().Str("component", "snapshot_store").Logger(),
	}
}

// Load reads the last snapshot. Remote not-found means "never saved before"
// and yields empty text; any other remote failure falls back to the file.
func (f *Fallback) Load(ctx context.Context) (string, error) {
	if f.remote == nil {
		return f.local.Load(ctx)
	}

	text, err := f.remote.Fetch(ctx)
	switch {
	case err == nil:
		return text, nil
	case errors.Is(err, ErrNotFound):
		return "", nil
	default:
		f.logger.Warn().Err(err).Msg("remote load failed, falling back to local file")
		return f.local.Load(ctx)
	}
}

// Save writes the snapshot to the remote, degrading to a best-effort local
// write on failure. The remote write is not retried.
func (f *Fallback) Save(ctx context.Context, text string) error {
	if f.remote == nil {
		return f.local.Save(ctx, text)
	}

	if err := f.remote.Put(ctx, text); err != nil {
		f.logger.Warn().Err(err).Msg("remote save failed, writing local file instead")
		return f.local.Save(ctx, text)
	}
	return nil
}

var _ Store = (*Fallback)(nil)
