// Package config decodes and normalizes the installer's run configuration:
// mount roots, aliasing, known entrypoints, remote dependency declarations,
// and install options (output destination, env substitution, externals).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strconv"

	"webinstall/internal/jsonc"
)

// InstallOptions controls the Bundle Orchestrator's behavior for one run.
type InstallOptions struct {
	Dest            string         `json:"dest"`
	Env             map[string]any `json:"env"`
	ExternalPackage []string       `json:"externalPackage"`
	SourceMap       bool           `json:"sourceMap"`
	Treeshake       bool           `json:"treeshake"`
	InstallTypes    bool           `json:"installTypes"`
	NamedExports    []string       `json:"namedExports"`
	Rollup          RollupOptions  `json:"rollup"`
}

// RollupOptions mirrors the dedupe/plugin knobs a bundler stage consults.
type RollupOptions struct {
	Dedupe  []string `json:"dedupe"`
	Plugins []string `json:"plugins"`
}

// Config is the fully-resolved, immutable configuration handed to the core.
type Config struct {
	Mount            map[string]string `json:"mount"`
	Exclude          []string          `json:"exclude"`
	Alias            map[string]string `json:"alias"`
	KnownEntrypoints []string          `json:"knownEntrypoints"`
	WebDependencies  map[string]string `json:"webDependencies"`
	InstallOptions   InstallOptions    `json:"installOptions"`

	WorkDir          string `json:"workDir"`
	LogDir           string `json:"logDir"`
	LogLevel         string `json:"logLevel"`
	BuildConcurrency uint16 `json:"buildConcurrency"`
}

// LoadConfig reads and normalizes a JSON or JSONC config file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonc.StripJSONC(data), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.WorkDir != "" && !filepath.IsAbs(cfg.WorkDir) {
		cfg.WorkDir, err = filepath.Abs(cfg.WorkDir)
		if err != nil {
			return nil, fmt.Errorf("resolve work directory: %w", err)
		}
	}
	normalizeConfig(&cfg)
	return &cfg, nil
}

// DefaultConfig returns a normalized, empty-input Config.
func DefaultConfig() *Config {
	cfg := &Config{}
	normalizeConfig(cfg)
	return cfg
}

func normalizeConfig(cfg *Config) {
	if cfg.WorkDir == "" {
		if v := os.Getenv("WEBINSTALL_DIR"); v != "" && existsDir(v) {
			cfg.WorkDir = v
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				homeDir = "/tmp"
			}
			cfg.WorkDir = path.Join(homeDir, ".webinstall")
		}
	}
	if cfg.LogDir == "" {
		cfg.LogDir = path.Join(cfg.WorkDir, "log")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = os.Getenv("LOG_LEVEL")
		if cfg.LogLevel == "" {
			cfg.LogLevel = "info"
		}
	}
	if cfg.BuildConcurrency == 0 {
		if v := os.Getenv("BUILD_CONCURRENCY"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n < 65536 {
				cfg.BuildConcurrency = uint16(n)
			}
		}
		if cfg.BuildConcurrency == 0 {
			cfg.BuildConcurrency = uint16(runtime.NumCPU())
		}
	}
	if cfg.InstallOptions.Dest == "" {
		cfg.InstallOptions.Dest = path.Join(cfg.WorkDir, "web_modules")
	}
	if cfg.Mount == nil {
		cfg.Mount = map[string]string{}
	}
	if cfg.Alias == nil {
		cfg.Alias = map[string]string{}
	}
	if cfg.WebDependencies == nil {
		cfg.WebDependencies = map[string]string{}
	}
}

func existsDir(name string) bool {
	fi, err := os.Stat(name)
	return err == nil && fi.IsDir()
}
