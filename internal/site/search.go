package site

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/ziadkadry99/kqlcatalog/internal/catalog"
	"github.com/ziadkadry99/kqlcatalog/internal/table"
)

// SearchEntry is one searchable rule in search-index.json.
type SearchEntry struct {
	Path     string `json:"path"`
	Platform string `json:"platform"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Severity string `json:"severity"`
	Content  string `json:"content"`
}

// BuildSearchIndex returns one entry per rule. Content holds the source
// system and every classification so client-side search matches the same
// fields as table.Search.
func BuildSearchIndex(c *catalog.Catalog) []SearchEntry {
	var entries []SearchEntry
	for _, p := range c.Platforms {
		for _, r := range p.Rules {
			parts := []string{r.SourceSystem}
			for _, cl := range r.Classifications {
				parts = append(parts, cl.Category, cl.Label)
			}
			entries = append(entries, SearchEntry{
				Path:     platformPath(p.Key) + "#" + table.Anchor(r),
				Platform: p.Name,
				Title:    r.Name,
				Summary:  r.Description,
				Severity: string(r.Severity),
				Content:  strings.Join(parts, " "),
			})
		}
	}
	return entries
}

// WriteSearchIndex writes the search index as JSON to the given path.
func WriteSearchIndex(entries []SearchEntry, outputPath string) error {
	if entries == nil {
		entries = []SearchEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}
