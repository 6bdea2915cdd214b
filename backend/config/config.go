package config

import (
	"fmt"

	"github.com/bountydex/bountydex/bountydex"
)

// WebAppConfig contains web-specific configuration
type WebAppConfig struct {
	Config      *bountydex.Config
	Debug       bool
	Environment string
}

// NewWebAppConfig creates a new web app configuration
func NewWebAppConfig(cfg *bountydex.Config, debug bool) *WebAppConfig {
	environment := "production"
	if debug {
		environment = "development"
	}

	return &WebAppConfig{
		Config:      cfg,
		Debug:       debug,
		Environment: environment,
	}
}

// ListenAddress returns the host:port the API binds to.
func (w *WebAppConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", w.Config.Web.Host, w.Config.Web.Port)
}
