package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/vaultsort/internal/testutil"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) trigger(_ context.Context, changed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, changed)
}

func (r *recorder) seen(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.batches {
		for _, p := range b {
			if p == path {
				return true
			}
		}
	}
	return false
}

func TestWatch_TriggersOnNewNote(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	go Watch(ctx, root, 50*time.Millisecond, testutil.DiscardLogger(), rec.trigger)
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "20220101_a.md"), []byte("a"), 0o644)

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return rec.seen("20220101_a.md")
	}, "expected trigger for 20220101_a.md")
}

func TestWatch_NewDirWatched(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{}
	go Watch(ctx, root, 50*time.Millisecond, testutil.DiscardLogger(), rec.trigger)
	time.Sleep(100 * time.Millisecond)

	sub := filepath.Join(root, "inbox")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep.md"), []byte("d"), 0o644)

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		return rec.seen(filepath.Join("inbox", "deep.md"))
	}, "file in new subdir did not trigger")
}

func TestWatch_StopsOnCancel(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Watch(ctx, root, 0, testutil.DiscardLogger(), func(context.Context, []string) {}) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestIgnored(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"a.md", false},
		{filepath.Join("2022", "a.md"), false},
		{".vaultsort.lock", true},
		{filepath.Join(".obsidian", "x"), true},
		{filepath.Join("y", ".vaultsort-tmp-123"), true},
	}
	for _, c := range cases {
		if got := ignored(c.path); got != c.want {
			t.Errorf("ignored(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}
