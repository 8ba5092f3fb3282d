// Package service holds the change-detection pipeline: decide whether the
// published price table changed against the stored snapshot, and run the
// notify-then-persist cycle when it did.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"goldwatch/internal/alerting"
	"goldwatch/internal/fetcher"
	"goldwatch/internal/record"
	"goldwatch/internal/snapshot"
	"goldwatch/internal/store"
)

var (
	// ErrEmptyResult marks a fetch where zero records survived
	// normalization. A real price table is never empty, so this is treated
	// as a structural break in the source, not a legitimate empty set.
	ErrEmptyResult = errors.New("service: no valid records extracted")

	// ErrStagedSnapshotMissing marks a notify phase invoked without a
	// staged artifact from a prior decide phase. That is a scheduling or
	// configuration defect, not a transient fault.
	ErrStagedSnapshotMissing = errors.New("service: staged snapshot missing or empty")
)

// Capturer renders the source page to an image for the notification.
type Capturer interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Options parameterise the pipeline.
type Options struct {
	// Title heads the notification message.
	Title string
	// StagingPath is the decide/notify hand-off file. Empty disables
	// staging in the single-phase run.
	StagingPath string
	// OutputPath receives the machine-readable "changed=<bool>" signal.
	// Empty falls back to $GITHUB_OUTPUT, then stdout.
	OutputPath string
	// Attach selects the notification attachment: "none", "chart", or
	// "screenshot".
	Attach string
}

// Decision is the outcome of one compare cycle. CanonicalText is returned
// regardless of Changed: the caller needs it to stage or to render.
type Decision struct {
	Changed       bool
	CanonicalText string
	Fingerprint   string
	Records       []record.Record
}

// Service wires the pipeline collaborators together.
type Service struct {
	opts     Options
	source   fetcher.SourceReader
	store    store.Store
	notifier alerting.Notifier
	capturer Capturer
	logger   zerolog.Logger
}

// New constructs the pipeline. Notifier and capturer may be nil for
// decide-only use.
func New(opts Options, source fetcher.SourceReader, st store.Store, notifier alerting.Notifier, capturer Capturer, logger zerolog.Logger) *Service {
	if opts.Title == "" {
		opts.Title = "Gold price update"
	}
	return &Service{
		opts:     opts,
		source:   source,
		store:    st,
		notifier: notifier,
		capturer: capturer,
		logger:   logger.With().Str("component", "service").Logger(),
	}
}

// Decide fetches the current table, canonicalizes it, and compares its
// fingerprint against the stored snapshot's.
func (s *Service) Decide(ctx context.Context) (Decision, error) {
	rows, err := s.source.FetchRows(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("fetch source rows: %w", err)
	}

	records := make([]record.Record, 0, len(rows))
	for _, row := range rows {
		if rec, ok := record.Normalize(row); ok {
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return Decision{}, fmt.Errorf("%w (raw rows: %d)", ErrEmptyResult, len(rows))
	}

	canonical := snapshot.Canonicalize(records)

	storedRaw, err := s.store.Load(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("load stored snapshot: %w", err)
	}
	stored := snapshot.CanonicalizeBlob(storedRaw)

	current := snapshot.Fingerprint(canonical)
	previous := snapshot.Fingerprint(stored)

	decision := Decision{
		Changed:       current != previous,
		CanonicalText: canonical,
		Fingerprint:   current,
		Records:       records,
	}

	s.logger.Info().
		Bool("changed", decision.Changed).
		Int("records", len(records)).
		Str("fingerprint", current).
		Msg("change decision computed")
	return decision, nil
}
