// Package models defines data structures for configuration, extracted
// fragments and packed blocks.
package models

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCap           = 1900
	DefaultMaxBlocks     = 95
	DefaultNotionVersion = "2022-06-28"
	DefaultTitleProperty = "Name"
	DefaultDBPath        = "clipper.db"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds runtime configuration. Values come from config.yaml,
// then environment variables, then CLI flags.
type Config struct {
	Notion NotionConfig `yaml:"notion"`
	Pack   PackConfig   `yaml:"pack"`
	Images ImageConfig  `yaml:"images"`
	DBPath string       `yaml:"db_path"`

	CacheDir string `yaml:"cache_dir"`
	CacheTTL string `yaml:"cache_ttl"`
}

type NotionConfig struct {
	Token         string `yaml:"token"`
	DatabaseID    string `yaml:"database_id"`
	TitleProperty string `yaml:"title_property"`
	Version       string `yaml:"version"`
	BaseURL       string `yaml:"base_url"`
}

type PackConfig struct {
	CapPerBlock int    `yaml:"cap_per_block"`
	MaxBlocks   int    `yaml:"max_blocks"`
	Language    string `yaml:"language"` // forces the section pattern table; "" means detect
}

type ImageConfig struct {
	RequireHTTPS bool     `yaml:"require_https"`
	MaxURLLength int      `yaml:"max_url_length"`
	TrustedHosts []string `yaml:"trusted_hosts"`
	AllowedHosts []string `yaml:"allowed_hosts"`
}

// DefaultConfig returns a config with every default filled in.
func DefaultConfig() *Config {
	return &Config{
		Notion: NotionConfig{
			TitleProperty: DefaultTitleProperty,
			Version:       DefaultNotionVersion,
		},
		Pack: PackConfig{
			CapPerBlock: DefaultCap,
			MaxBlocks:   DefaultMaxBlocks,
		},
		DBPath:   DefaultDBPath,
		CacheDir: ".clipper-cache",
		CacheTTL: "24h",
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error.
// NOTION_TOKEN and NOTION_DATABASE_ID override the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if v := os.Getenv("NOTION_TOKEN"); v != "" {
		cfg.Notion.Token = v
	}
	if v := os.Getenv("NOTION_DATABASE_ID"); v != "" {
		cfg.Notion.DatabaseID = v
	}

	return cfg, nil
}

// Validate fails fast on settings that have no sane fallback.
func (c *Config) Validate() error {
	if c.Pack.CapPerBlock <= 0 {
		return fmt.Errorf("%w: cap_per_block must be positive, got %d", ErrInvalidConfig, c.Pack.CapPerBlock)
	}
	if c.Pack.MaxBlocks <= 0 {
		return fmt.Errorf("%w: max_blocks must be positive, got %d", ErrInvalidConfig, c.Pack.MaxBlocks)
	}
	if c.Images.MaxURLLength < 0 {
		return fmt.Errorf("%w: max_url_length must not be negative", ErrInvalidConfig)
	}
	return nil
}
