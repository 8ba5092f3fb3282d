package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"goldwatch/internal/alerting"
	"goldwatch/internal/config"
	"goldwatch/internal/record"
	"goldwatch/internal/render"
	"goldwatch/internal/snapshot"
)

// RunDecide is the first phase of the two-phase pipeline: compute the change
// decision, stage the canonical text unconditionally, and emit the decision
// as a machine-readable signal for the calling scheduler to branch on.
func (s *Service) RunDecide(ctx context.Context) (Decision, error) {
	decision, err := s.Decide(ctx)
	if err != nil {
		return Decision{}, err
	}

	if err := s.stage(decision.CanonicalText); err != nil {
		return Decision{}, err
	}
	if err := s.emitSignal(decision.Changed); err != nil {
		s.logger.Warn().Err(err).Msg("failed to emit decision signal")
	}
	return decision, nil
}

// RunNotify is the second phase: read the staged snapshot, deliver the
// notification, and only after delivery succeeds commit the snapshot to the
// store. A failed delivery leaves the store untouched so the next cycle
// recomputes the same "changed" decision and retries.
func (s *Service) RunNotify(ctx context.Context) error {
	text, err := s.readStaged()
	if err != nil {
		return err
	}
	return s.notifyAndCommit(ctx, text, snapshot.ParseCanonical(text))
}

// RunOnce is the single-phase variant: decide, optionally stage, and when
// changed run the notify-and-commit step inline.
func (s *Service) RunOnce(ctx context.Context) error {
	decision, err := s.Decide(ctx)
	if err != nil {
		return err
	}

	if s.opts.StagingPath != "" {
		if err := s.stage(decision.CanonicalText); err != nil {
			return err
		}
	}

	if !decision.Changed {
		s.logger.Info().Msg("no change detected, nothing to send")
		return nil
	}
	return s.notifyAndCommit(ctx, decision.CanonicalText, decision.Records)
}

func (s *Service) notifyAndCommit(ctx context.Context, text string, records []record.Record) error {
	if s.notifier == nil {
		return errors.New("notifier not configured")
	}

	msg := alerting.Message{
		Text:      render.Message(s.opts.Title, records, time.Now()),
		ParseMode: "HTML",
	}
	s.attach(ctx, &msg, records)

	if err := s.notifier.Notify(ctx, msg); err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}

	if err := s.store.Save(ctx, text); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	s.logger.Info().Str("fingerprint", snapshot.Fingerprint(text)).Msg("notification sent and snapshot committed")
	return nil
}

// attach decorates the message per the configured mode. The attachment is
// auxiliary: a failed render or capture downgrades to a text-only message
// instead of failing the cycle.
func (s *Service) attach(ctx context.Context, msg *alerting.Message, records []record.Record) {
	switch s.opts.Attach {
	case config.AttachChart:
		png, err := render.Chart(s.opts.Title, records)
		if err != nil {
			s.logger.Warn().Err(err).Msg("chart render failed, sending text only")
			return
		}
		msg.Photo = png
		msg.PhotoName = "gold_prices.png"
	case config.AttachScreenshot:
		if s.capturer == nil {
			s.logger.Warn().Msg("screenshot attachment configured but no capturer wired")
			return
		}
		shot, err := s.capturer.Capture(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("page capture failed, sending text only")
			return
		}
		msg.Photo = shot
		msg.PhotoName = "gold_page.png"
	}
}

func (s *Service) stage(text string) error {
	if s.opts.StagingPath == "" {
		return errors.New("staging path not configured")
	}
	if err := os.WriteFile(s.opts.StagingPath, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write staged snapshot: %w", err)
	}
	s.logger.Debug().Str("path", s.opts.StagingPath).Msg("snapshot staged")
	return nil
}

func (s *Service) readStaged() (string, error) {
	if s.opts.StagingPath == "" {
		return "", ErrStagedSnapshotMissing
	}
	data, err := os.ReadFile(s.opts.StagingPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrStagedSnapshotMissing
		}
		return "", fmt.Errorf("read staged snapshot: %w", err)
	}

	text := snapshot.CanonicalizeBlob(string(data))
	if text == "" {
		return "", ErrStagedSnapshotMissing
	}
	return text, nil
}

// emitSignal writes "changed=<bool>" where the calling scheduler can read
// it: the configured output file, $GITHUB_OUTPUT, or stdout.
func (s *Service) emitSignal(changed bool) error {
	line := fmt.Sprintf("changed=%t\n", changed)

	path := s.opts.OutputPath
	if path == "" {
		path = os.Getenv("GITHUB_OUTPUT")
	}
	if path == "" {
		_, err := fmt.Fprint(os.Stdout, line)
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	return nil
}
