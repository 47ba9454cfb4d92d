package models

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("NOTION_TOKEN", "")
	t.Setenv("NOTION_DATABASE_ID", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Pack.CapPerBlock != DefaultCap {
		t.Errorf("CapPerBlock = %d, want %d", cfg.Pack.CapPerBlock, DefaultCap)
	}
	if cfg.Pack.MaxBlocks != DefaultMaxBlocks {
		t.Errorf("MaxBlocks = %d, want %d", cfg.Pack.MaxBlocks, DefaultMaxBlocks)
	}
	if cfg.Notion.Version != DefaultNotionVersion {
		t.Errorf("Version = %q, want %q", cfg.Notion.Version, DefaultNotionVersion)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
notion:
  token: file-token
  database_id: db-from-file
pack:
  cap_per_block: 1500
images:
  trusted_hosts: [i.imgur.com]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NOTION_TOKEN", "env-token")
	t.Setenv("NOTION_DATABASE_ID", "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	if cfg.Notion.Token != "env-token" {
		t.Errorf("Token = %q, want env override", cfg.Notion.Token)
	}
	if cfg.Notion.DatabaseID != "db-from-file" {
		t.Errorf("DatabaseID = %q, want %q", cfg.Notion.DatabaseID, "db-from-file")
	}
	if cfg.Pack.CapPerBlock != 1500 {
		t.Errorf("CapPerBlock = %d, want 1500", cfg.Pack.CapPerBlock)
	}
	if cfg.Pack.MaxBlocks != DefaultMaxBlocks {
		t.Errorf("MaxBlocks = %d, want default kept", cfg.Pack.MaxBlocks)
	}
	if len(cfg.Images.TrustedHosts) != 1 {
		t.Errorf("TrustedHosts = %v", cfg.Images.TrustedHosts)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero cap", func(c *Config) { c.Pack.CapPerBlock = 0 }, true},
		{"negative budget", func(c *Config) { c.Pack.MaxBlocks = -1 }, true},
		{"negative url length", func(c *Config) { c.Images.MaxURLLength = -5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
