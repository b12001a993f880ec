package config

import "time"

// DefaultCounts are the per-platform query counts shown when a platform's
// query directory is not available.
var DefaultCounts = map[string]int{
	"active-directory": 42,
	"aws":              15,
	"gcp":              28,
	"azure":            47,
	"entraid":          39,
	"office365":        31,
	"defender":         38,
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	counts := make(map[string]int, len(DefaultCounts))
	for k, v := range DefaultCounts {
		counts[k] = v
	}
	return &Config{
		CatalogFile: "catalog.yml",
		ContentDir:  ".",
		OutputDir:   "site",
		SiteTitle:   "ATT4CKQL",
		LogLevel:    "info",
		LogFormat:   "console",
		Server: ServerConfig{
			Port:       8080,
			SessionTTL: Duration(12 * time.Hour),
			DataDir:    ".kqlcatalog",
		},
		Modal: ModalConfig{
			Sanitize: true,
		},
		Counts: counts,
	}
}
