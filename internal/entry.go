// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vaultsort/internal/apperr"
	"github.com/starford/vaultsort/internal/report"
	"github.com/starford/vaultsort/internal/sorter"
	"github.com/starford/vaultsort/internal/storage"
	"github.com/starford/vaultsort/internal/watcher"
)

// LockFileName is the advisory lock held in the vault root during execute runs.
const LockFileName = ".vaultsort.lock"

// Run performs a pass over the configured vault, or keeps passing on every
// change when watch mode is enabled.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{out: os.Stdout, logOut: os.Stderr}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := newLogger(cfg.App, app.logOut)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("mode", cfg.Sort.Mode),
		slog.Bool("execute", cfg.Sort.Execute),
		slog.Bool("watch", cfg.Watch.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	strategy, err := newStrategy(cfg, store, logger)
	if err != nil {
		return err
	}

	p := &passRunner{
		cfg:      cfg,
		store:    store,
		strategy: strategy,
		reporter: report.New(app.out),
		logger:   logger,
	}

	if !cfg.Watch.Enabled {
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return p.run(ctx)
	}

	if err := p.run(ctx); err != nil {
		logger.Error("initial pass failed", slog.String("error", err.Error()))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watcher.Watch(gCtx, store.Root(), cfg.Watch.Debounce, logger, func(ctx context.Context, changed []string) {
			logger.Info("Changes detected", slog.Int("paths", len(changed)))
			if err := p.run(ctx); err != nil {
				logger.Error("pass failed", slog.String("error", err.Error()))
			}
		})
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Watcher stopped")
	return nil
}

func newLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newStrategy builds the configured strategy with its directories made
// vault-relative.
func newStrategy(cfg *Config, store *storage.FS, logger *slog.Logger) (sorter.Strategy, error) {
	switch cfg.Sort.Mode {
	case sorter.ModeOptimize:
		root, err := relDir(store, cfg.Vault.SearchRoot)
		if err != nil {
			return nil, fmt.Errorf("search root: %w", err)
		}
		return sorter.Optimize(root), nil
	case sorter.ModeYear:
		resources, err := relDir(store, cfg.Vault.Resources)
		if err != nil {
			return nil, fmt.Errorf("resources: %w", err)
		}
		if resources != "" {
			if _, err := os.Stat(filepath.Join(store.Root(), resources)); err != nil {
				logger.Warn("Resources path does not exist, resources are left alone",
					slog.String("resources", cfg.Vault.Resources))
				resources = ""
			}
		}
		return sorter.YearSort(resources), nil
	default:
		return nil, fmt.Errorf("unknown mode %q", cfg.Sort.Mode)
	}
}

func relDir(store *storage.FS, dir string) (string, error) {
	if dir == "" {
		return "", nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return store.Rel(abs)
}

// passRunner runs one reported pass at a time.
type passRunner struct {
	cfg      *Config
	store    *storage.FS
	strategy sorter.Strategy
	reporter *report.Reporter
	logger   *slog.Logger
}

func (p *passRunner) run(ctx context.Context) error {
	logger := p.logger.With(slog.String("run_id", uuid.NewString()))
	execute := p.cfg.Sort.Execute

	if execute {
		lock := flock.New(filepath.Join(p.store.Root(), LockFileName))
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !locked {
			return fmt.Errorf("vault %s: %w", p.store.Root(), apperr.ErrLocked)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warn("release lock failed", slog.String("error", err.Error()))
			}
		}()
		logger.Debug("Lock acquired", slog.String("path", lock.Path()))
	}

	notes, err := p.strategy.Notes(p.store)
	if err != nil {
		return fmt.Errorf("list notes: %w", err)
	}

	h := report.Header{Mode: p.strategy.Name(), Notes: len(notes), Execute: execute}
	if h.Mode == sorter.ModeYear {
		h.Resources = p.cfg.Vault.Resources
	}
	p.reporter.Header(h)

	s := sorter.New(p.store, p.strategy,
		sorter.WithExecute(execute),
		sorter.WithLogger(logger),
		sorter.WithEventFunc(p.reporter.Event),
	)
	sum, runErr := s.RunNotes(ctx, notes)
	p.reporter.Summary(sum, execute)

	logger.Info("Pass finished",
		slog.String("strategy", p.strategy.Name()),
		slog.Bool("execute", execute),
		slog.Int("moved", sum.Moved),
		slog.Int("resources_moved", sum.ResourcesMoved),
		slog.Int("resources_renamed", sum.ResourcesRenamed),
		slog.Int("resources_missing", sum.ResourcesMissing),
		slog.Int("links_rewritten", sum.LinksRewritten),
		slog.Int("errors", sum.Errors))

	return runErr
}
