package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"goldwatch/internal/config"
	"goldwatch/internal/record"
)

func TestRunDecideStagesUnconditionally(t *testing.T) {
	dir := t.TempDir()
	staging := filepath.Join(dir, "staged.txt")
	output := filepath.Join(dir, "output.txt")

	rows := []record.Row{{Name: "A", BuyText: "1", SellText: "2"}}
	st := &memStore{text: "A | 1 | 2"} // identical snapshot: unchanged
	svc := New(Options{StagingPath: staging, OutputPath: output, Attach: config.AttachNone},
		&fakeSource{rows: rows}, st, nil, nil, zerolog.Nop())

	decision, err := svc.RunDecide(context.Background())
	if err != nil {
		t.Fatalf("decide phase failed: %v", err)
	}
	if decision.Changed {
		t.Fatal("identical stored snapshot should decide unchanged")
	}

	staged, err := os.ReadFile(staging)
	if err != nil {
		t.Fatalf("staged file should exist even when unchanged: %v", err)
	}
	if string(staged) != "A | 1 | 2" {
		t.Fatalf("unexpected staged content %q", staged)
	}

	signal, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("output signal should exist: %v", err)
	}
	if !strings.Contains(string(signal), "changed=false") {
		t.Fatalf("unexpected signal %q", signal)
	}
}

func TestRunDecideSignalsChanged(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "output.txt")
	svc := New(Options{StagingPath: filepath.Join(dir, "staged.txt"), OutputPath: output},
		&fakeSource{rows: []record.Row{{Name: "A", BuyText: "1"}}}, &memStore{}, nil, nil, zerolog.Nop())

	if _, err := svc.RunDecide(context.Background()); err != nil {
		t.Fatalf("decide phase failed: %v", err)
	}
	signal, _ := os.ReadFile(output)
	if !strings.Contains(string(signal), "changed=true") {
		t.Fatalf("unexpected signal %q", signal)
	}
}

func TestRunNotifyCommitsAfterDelivery(t *testing.T) {
	dir := t.TempDir()
	staging := filepath.Join(dir, "staged.txt")
	if err := os.WriteFile(staging, []byte("A | 1 | 2\nB | 3 | 4"), 0o644); err != nil {
		t.Fatalf("seed staging: %v", err)
	}

	st := &memStore{}
	notifier := &fakeNotifier{}
	svc := New(Options{StagingPath: staging, Attach: config.AttachNone},
		&fakeSource{}, st, notifier, nil, zerolog.Nop())

	if err := svc.RunNotify(context.Background()); err != nil {
		t.Fatalf("notify phase failed: %v", err)
	}
	if notifier.calls != 1 {
		t.Fatalf("expected one delivery, got %d", notifier.calls)
	}
	if st.text != "A | 1 | 2\nB | 3 | 4" {
		t.Fatalf("snapshot not committed: %q", st.text)
	}
	if !strings.Contains(notifier.last.Text, "<b>A</b>") || !strings.Contains(notifier.last.Text, "<b>B</b>") {
		t.Fatalf("message should list staged products: %q", notifier.last.Text)
	}
}

func TestRunNotifyFailedDeliverySkipsCommit(t *testing.T) {
	dir := t.TempDir()
	staging := filepath.Join(dir, "staged.txt")
	if err := os.WriteFile(staging, []byte("A | 1 | 2"), 0o644); err != nil {
		t.Fatalf("seed staging: %v", err)
	}

	st := &memStore{text: "previous"}
	svc := New(Options{StagingPath: staging, Attach: config.AttachNone},
		&fakeSource{}, st, &fakeNotifier{err: errors.New("down")}, nil, zerolog.Nop())

	if err := svc.RunNotify(context.Background()); err == nil {
		t.Fatal("failed delivery should fail the notify phase")
	}
	if st.text != "previous" || st.saves != 0 {
		t.Fatal("store must not be mutated before successful delivery")
	}
}

func TestRunNotifyStagedMissing(t *testing.T) {
	svc := New(Options{StagingPath: filepath.Join(t.TempDir(), "absent.txt")},
		&fakeSource{}, &memStore{}, &fakeNotifier{}, nil, zerolog.Nop())

	if err := svc.RunNotify(context.Background()); !errors.Is(err, ErrStagedSnapshotMissing) {
		t.Fatalf("expected ErrStagedSnapshotMissing, got %v", err)
	}
}

func TestRunNotifyStagedEmpty(t *testing.T) {
	staging := filepath.Join(t.TempDir(), "staged.txt")
	if err := os.WriteFile(staging, []byte("  \n"), 0o644); err != nil {
		t.Fatalf("seed staging: %v", err)
	}

	svc := New(Options{StagingPath: staging},
		&fakeSource{}, &memStore{}, &fakeNotifier{}, nil, zerolog.Nop())

	if err := svc.RunNotify(context.Background()); !errors.Is(err, ErrStagedSnapshotMissing) {
		t.Fatalf("expected ErrStagedSnapshotMissing, got %v", err)
	}
}

func TestRunOnceAttachesChart(t *testing.T) {
	rows := []record.Row{{Name: "A", BuyText: "1000", SellText: "2000"}}
	notifier := &fakeNotifier{}
	svc := New(Options{Attach: config.AttachChart},
		&fakeSource{rows: rows}, &memStore{}, notifier, nil, zerolog.Nop())

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(notifier.last.Photo) == 0 {
		t.Fatal("chart attachment missing from message")
	}
}

type fakeCapturer struct {
	png []byte
	err error
}

func (f *fakeCapturer) Capture(context.Context) ([]byte, error) {
	return f.png, f.err
}

func TestRunOnceScreenshotFailureDowngrades(t *testing.T) {
	rows := []record.Row{{Name: "A", BuyText: "1000"}}
	notifier := &fakeNotifier{}
	svc := New(Options{Attach: config.AttachScreenshot},
		&fakeSource{rows: rows}, &memStore{}, notifier, &fakeCapturer{err: errors.New("no chrome")}, zerolog.Nop())

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("capture failure should not fail the cycle: %v", err)
	}
	if notifier.calls != 1 || len(notifier.last.Photo) != 0 {
		t.Fatal("message should go out text-only when capture fails")
	}
}
