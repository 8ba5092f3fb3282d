package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"goldwatch/internal/alerting"
	"goldwatch/internal/config"
	"goldwatch/internal/record"
	"goldwatch/internal/snapshot"
	"goldwatch/internal/store"
)

type fakeSource struct {
	rows []record.Row
	err  error
}

func (f *fakeSource) FetchRows(context.Context) ([]record.Row, error) {
	return f.rows, f.err
}

type memStore struct {
	text    string
	loadErr error
	saveErr error
	saves   int
}

func (m *memStore) Load(context.Context) (string, error) {
	return m.text, m.loadErr
}

func (m *memStore) Save(_ context.Context, text string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.text = text
	m.saves++
	return nil
}

type fakeNotifier struct {
	err   error
	calls int
	last  alerting.Message
}

func (f *fakeNotifier) Notify(_ context.Context, msg alerting.Message) error {
	f.calls++
	f.last = msg
	return f.err
}

func newService(t *testing.T, src *fakeSource, st store.Store, n alerting.Notifier) *Service {
	t.Helper()
	opts := Options{
		Title:       "Gold price update",
		StagingPath: filepath.Join(t.TempDir(), "staged.txt"),
		OutputPath:  filepath.Join(t.TempDir(), "output.txt"),
		Attach:      config.AttachNone,
	}
	return New(opts, src, st, n, nil, zerolog.Nop())
}

func TestDecideFirstRunIsChanged(t *testing.T) {
	src := &fakeSource{rows: []record.Row{{Name: "SJC 1L", BuyText: "14.780.000", SellText: "14.850.000"}}}
	svc := newService(t, src, &memStore{}, nil)

	decision, err := svc.Decide(context.Background())
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if !decision.Changed {
		t.Fatal("empty store should always decide changed")
	}
	if decision.CanonicalText != "SJC 1L | 14780000 | 14850000" {
		t.Fatalf("unexpected canonical text %q", decision.CanonicalText)
	}
}

func TestDecideUnchangedAfterCommit(t *testing.T) {
	src := &fakeSource{rows: []record.Row{{Name: "SJC 1L", BuyText: "14.780.000", SellText: "14.850.000"}}}
	st := &memStore{}
	notifier := &fakeNotifier{}
	svc := newService(t, src, st, notifier)

	if err := svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if notifier.calls != 1 || st.saves != 1 {
		t.Fatalf("first run should notify and persist, got %d/%d", notifier.calls, st.saves)
	}

	decision, err := svc.Decide(context.Background())
	if err != nil {
		t.Fatalf("second decide failed: %v", err)
	}
	if decision.Changed {
		t.Fatal("identical input after commit should decide unchanged")
	}
}

func TestDecideEmptyResult(t *testing.T) {
	src := &fakeSource{rows: []record.Row{{Name: "X", BuyText: "-", SellText: "-"}}}
	st := &memStore{text: "old"}
	notifier := &fakeNotifier{}
	svc := newService(t, src, st, notifier)

	err := svc.RunOnce(context.Background())
	if !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
	if notifier.calls != 0 {
		t.Fatal("no notification on empty result")
	}
	if st.text != "old" || st.saves != 0 {
		t.Fatal("store must stay untouched on empty result")
	}
}

func TestDecideOrdersByName(t *testing.T) {
	src := &fakeSource{rows: []record.Row{
		{Name: "B", BuyText: "1", SellText: "2"},
		{Name: "A", BuyText: "3", SellText: "4"},
	}}
	svc := newService(t, src, &memStore{}, nil)

	decision, err := svc.Decide(context.Background())
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if decision.CanonicalText != "A | 3 | 4\nB | 1 | 2" {
		t.Fatalf("unexpected ordering: %q", decision.CanonicalText)
	}
}

func TestNotifierFailureLeavesStoreUnchanged(t *testing.T) {
	rows := []record.Row{{Name: "SJC 1L", BuyText: "14.780.000", SellText: "14.850.000"}}
	st := &memStore{}
	failing := &fakeNotifier{err: errors.New("telegram down")}
	svc := newService(t, &fakeSource{rows: rows}, st, failing)

	before := snapshot.Fingerprint(snapshot.CanonicalizeBlob(st.text))
	if err := svc.RunOnce(context.Background()); err == nil {
		t.Fatal("failed delivery should fail the cycle")
	}
	after := snapshot.Fingerprint(snapshot.CanonicalizeBlob(st.text))
	if before != after || st.saves != 0 {
		t.Fatal("store fingerprint must be unchanged after failed delivery")
	}

	// Next cycle with identical input must decide changed again.
	decision, err := svc.Decide(context.Background())
	if err != nil {
		t.Fatalf("follow-up decide failed: %v", err)
	}
	if !decision.Changed {
		t.Fatal("unpersisted change must be re-detected next cycle")
	}
}

func TestDecideSourceFailureIsFatal(t *testing.T) {
	svc := newService(t, &fakeSource{err: errors.New("unreachable")}, &memStore{}, nil)
	if _, err := svc.Decide(context.Background()); err == nil {
		t.Fatal("source failure should fail the cycle")
	}
}

func TestDecideStoredWhitespaceVariantsUnchanged(t *testing.T) {
	src := &fakeSource{rows: []record.Row{{Name: "SJC 1L", BuyText: "1", SellText: "2"}}}
	st := &memStore{text: "SJC 1L | 1 | 2\r\n"}
	svc := newService(t, src, st, nil)

	decision, err := svc.Decide(context.Background())
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if decision.Changed {
		t.Fatal("stored text differing only in line endings must compare equal")
	}
}
