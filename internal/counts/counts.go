// Package counts tallies the query files available for each platform.
package counts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/ziadkadry99/kqlcatalog/internal/content"
	"github.com/ziadkadry99/kqlcatalog/internal/logging"
)

// queryPattern matches query files at any depth, in any letter case.
const queryPattern = "**/*.[kK][qQ][lL]"

// Source is one row of the index page's source table.
type Source struct {
	Key   string
	Name  string
	Count int
	// Static is true when Count came from the fallback table because the
	// platform's query directory could not be read.
	Static bool
}

// Counter counts query files under a content directory.
type Counter struct {
	dir      string
	fallback map[string]int
	logger   *zap.Logger
}

// NewCounter creates a Counter for contentDir. fallback maps platform keys
// to the counts used when a directory is unavailable.
func NewCounter(contentDir string, fallback map[string]int, logger *zap.Logger) *Counter {
	return &Counter{dir: contentDir, fallback: fallback, logger: logging.OrNop(logger)}
}

// Count returns one Source per platform, in the given order.
func (c *Counter) Count(platforms []content.Platform) []Source {
	out := make([]Source, 0, len(platforms))
	for _, p := range platforms {
		n, err := c.countDir(filepath.Join(c.dir, p.Name, content.QueriesDir))
		if err != nil {
			c.logger.Debug("using static query count",
				zap.String("platform", p.Key), zap.Error(err))
			out = append(out, Source{Key: p.Key, Name: p.Name, Count: c.fallback[p.Key], Static: true})
			continue
		}
		out = append(out, Source{Key: p.Key, Name: p.Name, Count: n})
	}
	return out
}

func (c *Counter) countDir(dir string) (int, error) {
	if c.dir == "" {
		return 0, fmt.Errorf("no content directory configured")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", dir)
	}
	matches, err := doublestar.Glob(os.DirFS(dir), queryPattern, doublestar.WithFilesOnly())
	if err != nil {
		return 0, fmt.Errorf("globbing %s: %w", dir, err)
	}
	return len(matches), nil
}

// Total sums the counts of sources.
func Total(sources []Source) int {
	total := 0
	for _, s := range sources {
		total += s.Count
	}
	return total
}

// Summary formats the index page's results line, e.g.
// "6 sources (202 total queries)".
func Summary(sources []Source) string {
	return fmt.Sprintf("%d sources (%d total queries)", len(sources), Total(sources))
}
