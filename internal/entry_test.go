package internal

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"github.com/starford/vaultsort/internal/apperr"
	"github.com/starford/vaultsort/internal/sorter"
	"github.com/starford/vaultsort/internal/storage"
)

func writeVault(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for p, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func testConfig(root string) *Config {
	cfg := NewDefaultConfig()
	cfg.Vault.Path = root
	return cfg
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background(), WithLogOutput(io.Discard)); err == nil {
		t.Fatal("Run without config should fail")
	}
}

func TestRun_DryRunPrintsPlan(t *testing.T) {
	root := writeVault(t, map[string]string{
		"20220315_report.md": "# report\n",
		"notes.md":           "undated\n",
	})
	var out bytes.Buffer

	err := Run(context.Background(), WithConfig(testConfig(root)), WithOutput(&out), WithLogOutput(io.Discard))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, want := range []string{
		"Found 2 markdown file(s)",
		"WOULD MOVE: 20220315_report.md -> 2022/20220315_report.md",
		"SKIP (no date): notes.md",
		"Would move",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if _, err := os.Stat(filepath.Join(root, "20220315_report.md")); err != nil {
		t.Errorf("dry run moved the note: %v", err)
	}
}

func TestRun_ExecuteMovesNoteAndResource(t *testing.T) {
	root := writeVault(t, map[string]string{
		"20220315_report.md":   "![[_resources/video.mp4]]\n",
		"_resources/video.mp4": "v",
	})
	cfg := testConfig(root)
	cfg.Vault.Resources = filepath.Join(root, "_resources")
	cfg.Sort.Execute = true

	if err := Run(context.Background(), WithConfig(cfg), WithOutput(io.Discard), WithLogOutput(io.Discard)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, p := range []string{"2022/20220315_report.md", "2022/_resources/video.mp4"} {
		if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(p))); err != nil {
			t.Errorf("expected %s: %v", p, err)
		}
	}
}

func TestRun_MissingResourcesDirLeavesResourcesAlone(t *testing.T) {
	root := writeVault(t, map[string]string{
		"20220315_report.md": "![[_resources/video.mp4]]\n",
	})
	cfg := testConfig(root)
	cfg.Vault.Resources = filepath.Join(root, "_resources")
	cfg.Sort.Execute = true
	var out bytes.Buffer

	if err := Run(context.Background(), WithConfig(cfg), WithOutput(&out), WithLogOutput(io.Discard)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if strings.Contains(out.String(), "Resource not found") {
		t.Errorf("resources should not be looked up:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(root, "2022", "20220315_report.md")); err != nil {
		t.Errorf("note not moved: %v", err)
	}
}

func TestRun_ExecuteRefusesLockedVault(t *testing.T) {
	root := writeVault(t, map[string]string{"20220315_report.md": "x"})
	held := flock.New(filepath.Join(root, LockFileName))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("precondition: lock not acquired: %v", err)
	}
	defer held.Unlock()

	cfg := testConfig(root)
	cfg.Sort.Execute = true
	err = Run(context.Background(), WithConfig(cfg), WithOutput(io.Discard), WithLogOutput(io.Discard))
	if !errors.Is(err, apperr.ErrLocked) {
		t.Fatalf("err = %v, want ErrLocked", err)
	}
	if _, err := os.Stat(filepath.Join(root, "20220315_report.md")); err != nil {
		t.Errorf("locked run touched the vault: %v", err)
	}
}

func TestNewStrategy_SearchRootRelative(t *testing.T) {
	root := writeVault(t, map[string]string{"projects/a.md": "a"})
	cfg := testConfig(root)
	cfg.Sort.Mode = sorter.ModeOptimize
	cfg.Vault.SearchRoot = filepath.Join(root, "projects")

	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	s, err := newStrategy(cfg, store, newLogger(cfg.App, io.Discard))
	if err != nil {
		t.Fatalf("newStrategy: %v", err)
	}
	if s.Name() != sorter.ModeOptimize {
		t.Errorf("name = %q", s.Name())
	}
}
