package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"nftmarket_go/internal/domain"
)

// Config holds all application settings. Sensitive or
// deployment-specific values can be overridden through environment
// variables after the file is loaded.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Marketplace struct {
		Account         string   `yaml:"account"`
		Admin           string   `yaml:"admin"`
		FeeBps          int64    `yaml:"fee_bps"`
		SupportedTokens []string `yaml:"supported_tokens"`
	} `yaml:"marketplace"`

	Feed struct {
		Enabled    bool   `yaml:"enabled"`
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"feed"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file, applies
// environment overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity. An out-of-bound fee rate is
// rejected here, before the engine ever sees it.
func (c *Config) Validate() error {
	if c.Marketplace.Account == "" {
		return fmt.Errorf("marketplace account is required")
	}
	if c.Marketplace.Admin == "" {
		return fmt.Errorf("marketplace admin is required")
	}
	if !domain.ValidFeeBps(c.Marketplace.FeeBps) {
		return fmt.Errorf("fee_bps %d out of range [0, %d]", c.Marketplace.FeeBps, domain.MaxFeeBps)
	}
	for _, t := range c.Marketplace.SupportedTokens {
		if t == "" {
			return fmt.Errorf("supported_tokens contains an empty entry")
		}
	}

	if c.Feed.Enabled && !strings.Contains(c.Feed.ListenAddr, ":") {
		return fmt.Errorf("invalid feed listen_addr: %q", c.Feed.ListenAddr)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}

	return nil
}

// SupportedTokenIDs returns the configured allow-list as typed ids.
func (c *Config) SupportedTokenIDs() []domain.TokenID {
	ids := make([]domain.TokenID, 0, len(c.Marketplace.SupportedTokens))
	for _, t := range c.Marketplace.SupportedTokens {
		ids = append(ids, domain.TokenID(t))
	}
	return ids
}

// overrideWithEnv replaces settings for which environment variables
// are present.
func overrideWithEnv(cfg *Config) {
	if admin := os.Getenv("MARKETD_ADMIN"); admin != "" {
		cfg.Marketplace.Admin = admin
	}
	if path := os.Getenv("MARKETD_DB_PATH"); path != "" {
		cfg.Storage.Path = path
	}
	if addr := os.Getenv("MARKETD_FEED_ADDR"); addr != "" {
		cfg.Feed.ListenAddr = addr
	}
}
