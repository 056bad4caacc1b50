// Package config provides the configuration schema and loader for the
// MCParr gateway server.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sharkhunterr/mcparr-sub000/internal/capability"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// KnownCapabilities lists the capability names with a built-in tool
// catalog. Unrecognised names are a validation error: there is no runtime
// plugin loading, so a tool set can only come from a compiled-in catalog.
var KnownCapabilities = []string{"overseerr", "radarr", "sonarr", "plex", "sabnzbd"}

// Config is the root configuration structure.
type Config struct {
	Server       ServerConfig                 `yaml:"server"`
	Audit        AuditConfig                  `yaml:"audit"`
	Chains       ChainsConfig                 `yaml:"chains"`
	Capabilities map[string]capability.Config `yaml:"capabilities"`
}

// ServerConfig controls the protocol server.
type ServerConfig struct {
	// Listen is "stdio" or a TCP host:port.
	Listen     string   `yaml:"listen"`
	LogLevel   LogLevel `yaml:"log_level"`
	StrictArgs bool     `yaml:"strict_args"`
}

// AuditConfig selects the call record store and the optional event sink.
type AuditConfig struct {
	Disabled      bool   `yaml:"disabled"`
	SQLitePath    string `yaml:"sqlite_path"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
}

// ChainsConfig selects the chain rule source and evaluation bounds. When
// File is set rules come from YAML; otherwise from the audit database.
type ChainsConfig struct {
	Disabled        bool   `yaml:"disabled"`
	File            string `yaml:"file"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	BudgetSeconds   int    `yaml:"budget_seconds"`
	MaxDepth        int    `yaml:"max_depth"`
}

// Load reads the YAML configuration file at path and returns a validated
// Config.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = "stdio"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Audit.SQLitePath == "" && c.Audit.PostgresDSN == "" {
		c.Audit.SQLitePath = "mcparr.db"
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	known := make(map[string]bool, len(KnownCapabilities))
	for _, name := range KnownCapabilities {
		known[name] = true
	}

	enabled := 0
	for name, cap := range cfg.Capabilities {
		if !known[name] {
			errs = append(errs, fmt.Errorf("capabilities.%s has no built-in tool catalog; known: %v", name, KnownCapabilities))
			continue
		}
		if !cap.Enabled {
			continue
		}
		enabled++
		if cap.BaseURL == "" {
			errs = append(errs, fmt.Errorf("capabilities.%s.base_url is required when enabled", name))
		}
	}
	if enabled == 0 {
		zap.L().Warn("no capabilities enabled; the tool catalog will be empty")
	}

	if cfg.Chains.BudgetSeconds < 0 {
		errs = append(errs, errors.New("chains.budget_seconds must not be negative"))
	}
	if cfg.Chains.MaxDepth < 0 {
		errs = append(errs, errors.New("chains.max_depth must not be negative"))
	}

	return errors.Join(errs...)
}
