package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/vitals/assets"
	"github.com/doeshing/vitals/internal/domain"
	"github.com/doeshing/vitals/internal/ports"
)

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "VITALS_CONFIG"

// FileLoader loads YAML configuration from <project>/.vitals/config.yaml
// (overridable via VITALS_CONFIG or an explicit path).
type FileLoader struct {
	projectRoot  string
	overridePath string
}

// NewFileLoader builds a loader for a project. path takes precedence over VITALS_CONFIG.
func NewFileLoader(projectRoot, path string) *FileLoader {
	return &FileLoader{projectRoot: projectRoot, overridePath: path}
}

// Load implements ports.ConfigProvider. A missing file yields the embedded
// defaults; nothing is written.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return l.hydrateDefaults(cfg), nil
		}
		return domain.Config{}, fmt.Errorf("read config: %w", err)
	}

	// Decoding onto the defaults keeps keys the file omits.
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, domain.NewConfigurationError("load", "parse %s: %v", path, err)
	}
	return l.hydrateDefaults(cfg), nil
}

// Path returns the resolved config file path.
func (l *FileLoader) Path() string {
	return l.resolvePath()
}

// Exists reports whether the config file is present on disk.
func (l *FileLoader) Exists() bool {
	_, err := os.Stat(l.resolvePath())
	return err == nil
}

// Save writes the given config back to disk.
func (l *FileLoader) Save(cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	path := l.resolvePath()
	if err := ensureConfigDir(path); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	return os.WriteFile(path, raw, domain.FilePermissions)
}

// Init writes the embedded default file unless one already exists.
func (l *FileLoader) Init(force bool) (string, error) {
	path := l.resolvePath()
	if l.Exists() && !force {
		return path, fmt.Errorf("config already exists at %s", path)
	}
	if err := ensureConfigDir(path); err != nil {
		return "", fmt.Errorf("ensure config dir: %w", err)
	}
	if err := os.WriteFile(path, assets.DefaultConfigYAML, domain.FilePermissions); err != nil {
		return "", err
	}
	return path, nil
}

// Reset overwrites the config with defaults and returns the default snapshot.
func (l *FileLoader) Reset() (domain.Config, error) {
	if _, err := l.Init(true); err != nil {
		return domain.Config{}, err
	}
	return l.hydrateDefaults(defaultConfig()), nil
}

// Backup copies the current config file to a timestamped backup.
func (l *FileLoader) Backup() (string, error) {
	path := l.resolvePath()
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	backup := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102T150405"))
	if err := os.WriteFile(backup, data, domain.FilePermissions); err != nil {
		return "", err
	}
	return backup, nil
}

// DefaultConfig exposes the bootstrap configuration for a project.
func (l *FileLoader) DefaultConfig() domain.Config {
	return l.hydrateDefaults(defaultConfig())
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv(EnvConfigPath); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(l.root(), domain.StateDirName, domain.ConfigFileName)
}

func (l *FileLoader) root() string {
	if l.projectRoot == "" {
		return "."
	}
	return l.projectRoot
}

func (l *FileLoader) hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = filepath.Join(l.root(), domain.StateDirName, "cache")
	} else {
		cfg.Cache.Dir = expandPath(cfg.Cache.Dir)
		if !filepath.IsAbs(cfg.Cache.Dir) {
			cfg.Cache.Dir = filepath.Join(l.root(), cfg.Cache.Dir)
		}
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = domain.DefaultMaxCacheEntries
	}
	if cfg.Services.ProbeRate == 0 {
		cfg.Services.ProbeRate = domain.DefaultProbeRate
	}
	return cfg
}

func defaultConfig() domain.Config {
	var cfg domain.Config
	if err := yaml.Unmarshal(assets.DefaultConfigYAML, &cfg); err != nil {
		// Minimal fallback if the embedded YAML is corrupted.
		return domain.Config{
			ConfigFormatVersion: "1",
			Runner:              domain.RunnerSettings{Concurrency: domain.DefaultConcurrency, Timeout: domain.DefaultCheckTimeout.String(), Mode: string(domain.ModeQuick)},
			Cache:               domain.CacheSettings{TTL: domain.DefaultCacheTTL.String(), Persistent: true},
			Healing:             domain.HealingSettings{ConfirmAbove: 1},
			History:             domain.HistorySettings{Enabled: true, Backend: "sqlite", RetentionDays: domain.DefaultHistoryRetainDays},
			Output:              domain.OutputSettings{Format: "text", Sanitize: true, Pretty: true},
		}
	}
	return cfg
}

func ensureConfigDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		return filepath.Join(home, path[2:])
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Clean(path)
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
