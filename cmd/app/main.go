package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vaultsort/internal"
	pkgconfig "github.com/starford/vaultsort/pkg/config"
)

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// loadConfig reads the optional config file, applies flags on top and
// validates the result.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("path") {
		cfg.Vault.Path = cmd.String("path")
	}
	if cmd.IsSet("resources") {
		cfg.Vault.Resources = cmd.String("resources")
	}
	if cmd.IsSet("search-root") {
		cfg.Vault.SearchRoot = cmd.String("search-root")
	}
	if cmd.IsSet("mode") {
		cfg.Sort.Mode = cmd.String("mode")
	}
	if cmd.IsSet("execute") {
		cfg.Sort.Execute = cmd.Bool("execute")
	}
	if cmd.IsSet("watch") {
		cfg.Watch.Enabled = cmd.Bool("watch")
	}
	if cmd.IsSet("debounce") {
		cfg.Watch.Debounce = cmd.Duration("debounce")
	}
	if cmd.IsSet("log-level") {
		if err := cfg.App.LogLevel.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
	}
	if cmd.IsSet("log-format") {
		cfg.App.LogFormat = cmd.String("log-format")
	}

	if err := pkgconfig.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newCommand(action cli.ActionFunc) *cli.Command {
	return &cli.Command{
		Name:   "vaultsort",
		Usage:  "Sort markdown notes into year directories and keep their resources and links consistent",
		Action: action,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "path",
				Aliases: []string{"p"},
				Usage:   "Path to the directory containing markdown files",
				Sources: cli.EnvVars("VAULT_PATH"),
			},
			&cli.StringFlag{
				Name:    "resources",
				Aliases: []string{"r"},
				Usage:   "Path to the _resources directory containing media files (sort-by-year)",
			},
			&cli.StringFlag{
				Name:  "search-root",
				Usage: "Directory searched for resources (sort-resources)",
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Strategy: sort-by-year or sort-resources",
			},
			&cli.BoolFlag{
				Name:    "execute",
				Aliases: []string{"x"},
				Usage:   "Actually move files (default is dry-run mode)",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Rerun after changes in the vault until interrupted",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Quiet period before a watch-triggered run",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level: debug, info, warn or error",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: json or text",
			},
		},
	}
}

func main() {
	cmd := newCommand(run)

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
