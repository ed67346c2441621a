package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vaultsort/internal/sorter"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration.
type Config struct {
	App   ApplicationConfig `yaml:"app"`
	Vault VaultConfig       `yaml:"vault"`
	Sort  SortConfig        `yaml:"sort"`
	Watch WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Sort.Validate(); err != nil {
		return fmt.Errorf("sort: %w", err)
	}
	if err := c.Watch.Validate(); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	)
}

// VaultConfig locates the vault and the directories a pass works with.
// Relative paths are taken relative to the working directory.
type VaultConfig struct {
	Path       string `yaml:"path"`
	Resources  string `yaml:"resources"`
	SearchRoot string `yaml:"search_root"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required, validation.By(isDir)),
		validation.Field(&c.Resources, validation.By(insideDir(c.Path))),
		validation.Field(&c.SearchRoot, validation.By(insideDir(c.Path))),
	)
}

// SortConfig selects the strategy and whether changes are written.
type SortConfig struct {
	Mode    string `yaml:"mode"`
	Execute bool   `yaml:"execute"`
}

// Validate validates the sort configuration.
func (c *SortConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(sorter.ModeYear, sorter.ModeOptimize)),
	)
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
		},
		Vault: VaultConfig{
			Path: ".",
		},
		Sort: SortConfig{
			Mode: sorter.ModeYear,
		},
		Watch: WatchConfig{
			Debounce: 2 * time.Second,
		},
	}
}

func isDir(value any) error {
	p, _ := value.(string)
	if p == "" {
		return nil
	}
	info, err := os.Stat(p)
	if err != nil {
		return errors.New("does not exist")
	}
	if !info.IsDir() {
		return errors.New("is not a directory")
	}
	return nil
}

// insideDir builds a rule rejecting paths that resolve outside root.
func insideDir(root string) validation.RuleFunc {
	return func(value any) error {
		p, _ := value.(string)
		if p == "" || root == "" {
			return nil
		}
		if _, err := vaultRel(root, p); err != nil {
			return errors.New("must be inside the vault path")
		}
		return nil
	}
}

// vaultRel converts p to a path relative to root. Both may be relative to the
// working directory.
func vaultRel(root, p string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", p, root)
	}
	return rel, nil
}
