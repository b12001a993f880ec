package catalog

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ziadkadry99/kqlcatalog/internal/content"
)

// Load reads and validates a catalog YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes catalog YAML and validates every rule. Unknown fields are
// rejected so that typos in the catalog surface at load time.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks platform keys for uniqueness and each rule for the
// invariants the table renderer relies on.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool)
	for i, p := range c.Platforms {
		if p.Key == "" {
			return fmt.Errorf("platform %d: key is required", i)
		}
		if seen[p.Key] {
			return fmt.Errorf("platform %q: duplicate key", p.Key)
		}
		seen[p.Key] = true
		if p.Name == "" {
			return fmt.Errorf("platform %q: name is required", p.Key)
		}
		for j, r := range p.Rules {
			if err := r.Validate(); err != nil {
				return fmt.Errorf("platform %q rule %d: %w", p.Key, j, err)
			}
		}
	}
	return nil
}

// Validate checks a single rule.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !r.Severity.Valid() {
		return fmt.Errorf("rule %q: invalid severity %q: must be one of low, medium, high, critical", r.Name, r.Severity)
	}
	if r.DetectionCount < 0 {
		return fmt.Errorf("rule %q: detection_count must be non-negative", r.Name)
	}
	if len(r.Classifications) == 0 {
		return fmt.Errorf("rule %q: at least one classification is required", r.Name)
	}
	return nil
}

// Platform returns the platform with the given key.
func (c *Catalog) Platform(key string) (*Platform, bool) {
	for i := range c.Platforms {
		if c.Platforms[i].Key == key {
			return &c.Platforms[i], true
		}
	}
	return nil, false
}

// Keys returns the platform keys in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.Platforms))
	for i, p := range c.Platforms {
		keys[i] = p.Key
	}
	return keys
}

// FindRule locates a rule by its query or sample-log resource id.
func (p *Platform) FindRule(resourceID string) (Rule, bool) {
	for _, r := range p.Rules {
		if r.QueryResourceID == resourceID || r.SampleLogResourceID == resourceID {
			return r, true
		}
	}
	return Rule{}, false
}

// ClassificationCount returns the total number of classification entries
// across rules, which is also the number of table rows they render to.
func ClassificationCount(rules []Rule) int {
	n := 0
	for _, r := range rules {
		n += len(r.Classifications)
	}
	return n
}

// defaultColors are accent colours for the platforms the catalog ships with,
// used when a platform sets no color of its own.
var defaultColors = map[string]string{
	"active-directory": "#0078D4",
	"aws":              "#FF9900",
	"gcp":              "#4285F4",
	"azure":            "#0089D6",
	"entraid":          "#00BCF2",
	"office365":        "#D83B01",
	"defender":         "#107C10",
}

// Accent returns the platform's accent colour.
func (p *Platform) Accent() string {
	if p.Color != "" {
		return p.Color
	}
	if c, ok := defaultColors[p.Key]; ok {
		return c
	}
	return "#6C757D"
}

// Source returns the content location of the platform's static files.
func (p *Platform) Source() content.Platform {
	return content.Platform{Key: p.Key, Name: p.Name}
}

// Sources returns the content location of every platform, in catalog order.
func (c *Catalog) Sources() []content.Platform {
	out := make([]content.Platform, len(c.Platforms))
	for i := range c.Platforms {
		out[i] = c.Platforms[i].Source()
	}
	return out
}
