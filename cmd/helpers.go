package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/kqlcatalog/internal/catalog"
	"github.com/ziadkadry99/kqlcatalog/internal/config"
	"github.com/ziadkadry99/kqlcatalog/internal/content"
	"github.com/ziadkadry99/kqlcatalog/internal/logging"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `kqlcatalog init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the command logger; --verbose forces debug level.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}

// newFetcher returns the content fetcher for base_url, or content_dir when
// no base URL is configured.
func newFetcher(cfg *config.Config, logger *zap.Logger) *content.Fetcher {
	return content.NewFetcher(cfg.ContentBase(),
		content.WithTimeout(cfg.Modal.FetchTimeout.Std()),
		content.WithLogger(logger))
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return cat, nil
}
