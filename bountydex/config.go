package bountydex

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

type Config struct {
	Log    LogConfig    `toml:"log"`
	DB     DBConfig     `toml:"db"`
	Source SourceConfig `toml:"source"`
	Prices PricesConfig `toml:"prices"`
	Spaces SpacesConfig `toml:"spaces"`
	Web    WebConfig    `toml:"web"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

// SourceConfig points at the upstream price CSV publisher. CategoryID is the
// TCGplayer category for the game (68 = One Piece Card Game).
type SourceConfig struct {
	BaseURL    string `toml:"base_url"`
	CategoryID int    `toml:"category_id"`
}

// PricesConfig controls where raw snapshot files are kept on disk.
type PricesConfig struct {
	Dir string `toml:"dir"`
}

type SpacesConfig struct {
	Enabled bool   `toml:"enabled"`
	Key     string `toml:"key"`
	Secret  string `toml:"secret"`
	Region  string `toml:"region"`
	Bucket  string `toml:"bucket"`
	Root    string `toml:"root"`
}

type WebConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

func (c *Config) applyDefaults() {
	if c.Source.BaseURL == "" {
		c.Source.BaseURL = "https://tcgcsv.com/tcgplayer"
	}
	if c.Source.CategoryID == 0 {
		c.Source.CategoryID = 68
	}
	if c.Prices.Dir == "" {
		c.Prices.Dir = "prices"
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}
}
