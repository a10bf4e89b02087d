package filewatcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatchEmitsSettledFile(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, 50*time.Millisecond, discardLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys, err := w.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(root, "invoice_march.pdf"), []byte("pdf bytes"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	select {
	case key := <-keys:
		if key != "invoice_march.pdf" {
			t.Fatalf("key = %q, want invoice_march.pdf", key)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for watch event")
	}
}

func TestWatchDebouncesRepeatedWrites(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, 100*time.Millisecond, discardLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys, err := w.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	path := filepath.Join(root, "draft.txt")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("chunk"), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	got := 0
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-keys:
			got++
		case <-deadline:
			if got != 1 {
				t.Fatalf("expected a single settled event, got %d", got)
			}
			return
		}
	}
}

func TestWatchIgnoresOutsidePaths(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, 10*time.Millisecond, discardLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w.Close()

	if _, ok := w.keyFor(filepath.Join(os.TempDir(), "elsewhere.txt")); ok {
		t.Fatalf("expected path outside root to be rejected")
	}
	if key, ok := w.keyFor(filepath.Join(root, "sub", "doc.md")); !ok || key != "sub/doc.md" {
		t.Fatalf("keyFor() = %q, %v", key, ok)
	}
}
