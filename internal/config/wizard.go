package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// catalogCandidates are file names checked for an existing rule catalog.
var catalogCandidates = []string{"catalog.yml", "catalog.yaml", "rules.yml", "_data/rules.yml"}

// detectCatalog returns the first catalog file found in the current
// directory, or the default name.
func detectCatalog() string {
	for _, name := range catalogCandidates {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return DefaultConfig().CatalogFile
}

// detectContentDir returns "." when platform query directories sit in the
// current directory, which is how the static content is usually laid out.
func detectContentDir() string {
	matches, _ := filepath.Glob(filepath.Join("*", "Queries"))
	if len(matches) > 0 {
		return "."
	}
	return "content"
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .kqlcatalog.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to kqlcatalog! Let's configure your detection catalog.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Catalog file.
	catalogPrompt := promptui.Prompt{
		Label:   "Rule catalog file",
		Default: detectCatalog(),
	}
	catalogFile, err := catalogPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("catalog file: %w", err)
	}
	cfg.CatalogFile = catalogFile

	// 2. Where modal content comes from.
	sourcePrompt := promptui.Select{
		Label: "Where are queries, logs and explanations served from?",
		Items: []string{
			"local directory: read files from disk",
			"base URL: fetch over HTTP",
		},
	}
	sourceIdx, _, err := sourcePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("content source: %w", err)
	}
	if sourceIdx == 0 {
		dirPrompt := promptui.Prompt{Label: "Content directory", Default: detectContentDir()}
		if cfg.ContentDir, err = dirPrompt.Run(); err != nil {
			return nil, fmt.Errorf("content dir: %w", err)
		}
	} else {
		urlPrompt := promptui.Prompt{
			Label: "Base URL",
			Validate: func(s string) error {
				if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
					return fmt.Errorf("must start with http:// or https://")
				}
				return nil
			},
		}
		if cfg.BaseURL, err = urlPrompt.Run(); err != nil {
			return nil, fmt.Errorf("base url: %w", err)
		}
	}

	// 3. Output directory.
	outputPrompt := promptui.Prompt{
		Label:   "Output directory for the generated site",
		Default: cfg.OutputDir,
	}
	if cfg.OutputDir, err = outputPrompt.Run(); err != nil {
		return nil, fmt.Errorf("output dir: %w", err)
	}

	// 4. Server port.
	portPrompt := promptui.Prompt{
		Label:   "Port for kqlcatalog serve",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("must be a port number")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Save to .kqlcatalog.yml.
	if err := cfg.Save(DefaultPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}
