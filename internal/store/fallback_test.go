package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

type fakeRemote struct {
	text     string
	fetchErr error
	putErr   error
	puts     []string
}

func (f *fakeRemote) Fetch(context.Context) (string, error) {
	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	return f.text, nil
}

func (f *fakeRemote) Put(_ context.Context, text string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.puts = append(f.puts, text)
	return nil
}

func tempFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "gold_last.txt"))
}

func TestFallbackLoadRemoteOK(t *testing.T) {
	fb := NewFallback(&fakeRemote{text: "A | 1 | 2"}, tempFileStore(t), zerolog.Nop())
	text, err := fb.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if text != "A | 1 | 2" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestFallbackLoadNotFoundIsEmpty(t *testing.T) {
	local := tempFileStore(t)
	if err := local.Save(context.Background(), "stale"); err != nil {
		t.Fatalf("seed local: %v", err)
	}

	fb := NewFallback(&fakeRemote{fetchErr: ErrNotFound}, local, zerolog.Nop())
	text, err := fb.Load(context.Background())
	if err != nil {
		t.Fatalf("not-found should not be an error: %v", err)
	}
	if text != "" {
		t.Fatalf("not-found should yield empty text, got %q", text)
	}
}

func TestFallbackLoadDegradesToLocal(t *testing.T) {
	local := tempFileStore(t)
	if err := local.Save(context.Background(), "local copy"); err != nil {
		t.Fatalf("seed local: %v", err)
	}

	fb := NewFallback(&fakeRemote{fetchErr: errors.New("boom")}, local, zerolog.Nop())
	text, err := fb.Load(context.Background())
	if err != nil {
		t.Fatalf("fallback load failed: %v", err)
	}
	if text != "local copy" {
		t.Fatalf("expected local content, got %q", text)
	}
}

func TestFallbackSaveDegradesToLocal(t *testing.T) {
	local := tempFileStore(t)
	fb := NewFallback(&fakeRemote{putErr: errors.New("boom")}, local, zerolog.Nop())

	if err := fb.Save(context.Background(), "new text"); err != nil {
		t.Fatalf("save should degrade, not fail: %v", err)
	}
	text, err := local.Load(context.Background())
	if err != nil {
		t.Fatalf("local load: %v", err)
	}
	if text != "new text" {
		t.Fatalf("local file should hold the snapshot, got %q", text)
	}
}

func TestFallbackNilRemoteUsesFile(t *testing.T) {
	local := tempFileStore(t)
	fb := NewFallback(nil, local, zerolog.Nop())

	text, err := fb.Load(context.Background())
	if err != nil || text != "" {
		t.Fatalf("missing file should yield empty text, got %q err %v", text, err)
	}
	if err := fb.Save(context.Background(), "hello"); err != nil {
		t.Fatalf("save: %v", err)
	}
	text, err = fb.Load(context.Background())
	if err != nil || text != "hello" {
		t.Fatalf("round trip failed: %q %v", text, err)
	}
}

func TestFileStoreCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "gold_last.txt")
	fs := NewFileStore(path)
	if err := fs.Save(context.Background(), "x"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not created: %v", err)
	}
}
