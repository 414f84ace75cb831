package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agentic-research/genmeta/internal/extract"
)

// Config is the optional on-disk configuration. Zero values fall back to
// the engine defaults.
type Config struct {
	Cache struct {
		MaxEntries int    `yaml:"max_entries"`
		TTL        string `yaml:"ttl"` // time.ParseDuration syntax, e.g. "10m"
	} `yaml:"cache"`
}

// loadConfig reads the config file. An explicit path must exist; the
// default location (~/.agentic-research/genmeta/config.yaml) is optional.
func loadConfig(path string) (Config, error) {
	var cfg Config
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, ".agentic-research", "genmeta", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if explicit {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Cache.TTL != "" {
		if _, err := time.ParseDuration(cfg.Cache.TTL); err != nil {
			return cfg, fmt.Errorf("invalid cache.ttl %q: %w", cfg.Cache.TTL, err)
		}
	}
	return cfg, nil
}

func (c Config) engineConfig() extract.Config {
	ec := extract.Config{CacheMaxEntries: c.Cache.MaxEntries}
	if c.Cache.TTL != "" {
		ec.CacheTTL, _ = time.ParseDuration(c.Cache.TTL)
	}
	return ec
}
