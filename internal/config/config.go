package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/doctools/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when -c is not given.
const DefaultPath = "doctools.yaml"

// Config represents the application configuration.
type Config struct {
	HDL     HDLConfig     `yaml:"hdl"`
	Preview PreviewConfig `yaml:"preview"`
	Roles   RolesConfig   `yaml:"roles"`
}

// HDLConfig controls the hdl-gen command.
type HDLConfig struct {
	// Sentinel is a file that must exist at the top-level of the HDL repository.
	Sentinel        string `yaml:"sentinel"`
	RegmapDir       string `yaml:"regmap_dir"`
	TestbenchDir    string `yaml:"testbench_dir"`
	RegmapOutputDir string `yaml:"regmap_output_dir"`
	Copyright       string `yaml:"copyright"`
}

// ReloadStrategy selects how author mode tells the browser to reload.
type ReloadStrategy string

const (
	StrategyBrowser ReloadStrategy = "browser"
	StrategyPool    ReloadStrategy = "pool"
	StrategySSE     ReloadStrategy = "sse"
)

// PreviewConfig controls the author-mode development server.
type PreviewConfig struct {
	Port          int            `yaml:"port"`
	Strategy      ReloadStrategy `yaml:"strategy"`
	PollInterval  time.Duration  `yaml:"poll_interval"`
	BuildCommand  []string       `yaml:"build_command"`
	WatchPatterns []string       `yaml:"watch_patterns"`
	// Unmanaged lists artifact names that are regenerated by the build itself
	// and must never trigger a rebuild.
	Unmanaged      []string `yaml:"unmanaged"`
	SourceDir      string   `yaml:"source_dir,omitempty"`
	ThemeStaticDir string   `yaml:"theme_static_dir"`
	NoMetrics      bool     `yaml:"no_metrics,omitempty"`
	BrowserBin     string   `yaml:"browser_bin,omitempty"`
}

// RolesConfig holds the link targets of the documentation roles.
type RolesConfig struct {
	URLs  map[string]string     `yaml:"urls"`
	Repos map[string]RepoConfig `yaml:"repos,omitempty"`
}

// RepoConfig is the lookup entry of a git repository role.
type RepoConfig struct {
	Branch string `yaml:"branch"`
}

// Load loads configuration from the specified file. A missing file at the
// default path is not an error; the defaults are returned instead.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && configPath == DefaultPath {
			slog.Debug("No configuration file, using defaults", "path", configPath)
			return Default(), nil
		}
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "invalid config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}
	return cfg, nil
}

// Parse decodes YAML content, expanding environment variables first, then
// normalizes, defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	res, err := NormalizeConfig(cfg)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		slog.Warn("Configuration normalized", "detail", w)
	}
	applyDefaults(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Init creates a new configuration file with the default content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return derrors.ValidationError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return derrors.WrapError(err, derrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
