package config

import (
	"fmt"
	"time"
)

// Duration is a time.Duration written to YAML as a string such as "12h".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", b, err)
	}
	*d = Duration(v)
	return nil
}

// Config is the top-level kqlcatalog configuration, corresponding to
// .kqlcatalog.yml.
type Config struct {
	CatalogFile string         `yaml:"catalog_file" koanf:"catalog_file"`
	ContentDir  string         `yaml:"content_dir" koanf:"content_dir"`
	OutputDir   string         `yaml:"output_dir" koanf:"output_dir"`
	BaseURL     string         `yaml:"base_url" koanf:"base_url"`
	SiteTitle   string         `yaml:"site_title" koanf:"site_title"`
	LogLevel    string         `yaml:"log_level" koanf:"log_level"`
	LogFormat   string         `yaml:"log_format" koanf:"log_format"`
	Server      ServerConfig   `yaml:"server" koanf:"server"`
	Modal       ModalConfig    `yaml:"modal" koanf:"modal"`
	Counts      map[string]int `yaml:"counts" koanf:"counts"`
}

// ServerConfig holds settings for `kqlcatalog serve`.
type ServerConfig struct {
	Port            int      `yaml:"port" koanf:"port"`
	AllowAllOrigins bool     `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	SessionTTL      Duration `yaml:"session_ttl" koanf:"session_ttl"`
	DataDir         string   `yaml:"data_dir" koanf:"data_dir"`
}

// ModalConfig controls how modal content is fetched and cleaned.
type ModalConfig struct {
	Sanitize     bool     `yaml:"sanitize" koanf:"sanitize"`
	FetchTimeout Duration `yaml:"fetch_timeout" koanf:"fetch_timeout"`
}

// ContentBase returns where modal content is fetched from: base_url when
// set, otherwise the local content directory.
func (c *Config) ContentBase() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return c.ContentDir
}
