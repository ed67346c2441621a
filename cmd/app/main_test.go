package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/starford/vaultsort/internal"
	"github.com/starford/vaultsort/internal/sorter"
)

func parse(t *testing.T, args ...string) (*internal.Config, error) {
	t.Helper()
	var (
		cfg    *internal.Config
		cfgErr error
	)
	cmd := newCommand(func(_ context.Context, cmd *cli.Command) error {
		cfg, cfgErr = loadConfig(cmd)
		return nil
	})
	if err := cmd.Run(context.Background(), append([]string{"vaultsort"}, args...)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return cfg, cfgErr
}

func TestLoadConfig_FlagsOnly(t *testing.T) {
	root := t.TempDir()
	cfg, err := parse(t,
		"--config", filepath.Join(root, "missing.yaml"),
		"--path", root,
		"--mode", sorter.ModeOptimize,
		"--execute",
		"--log-level", "debug",
	)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Vault.Path != root || cfg.Sort.Mode != sorter.ModeOptimize || !cfg.Sort.Execute {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v", cfg.App.LogLevel)
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "config.yaml")
	yaml := "vault:\n  path: " + root + "\nsort:\n  mode: sort-resources\nwatch:\n  debounce: 3s\n"
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := parse(t, "--config", file, "--mode", sorter.ModeYear)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Sort.Mode != sorter.ModeYear {
		t.Errorf("mode = %q, want flag value", cfg.Sort.Mode)
	}
	if cfg.Vault.Path != root {
		t.Errorf("path = %q, want file value", cfg.Vault.Path)
	}
	if cfg.Watch.Debounce != 3*time.Second {
		t.Errorf("debounce = %v", cfg.Watch.Debounce)
	}
}

func TestLoadConfig_InvalidMode(t *testing.T) {
	root := t.TempDir()
	if _, err := parse(t, "--config", filepath.Join(root, "none.yaml"), "--path", root, "--mode", "shuffle"); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}
