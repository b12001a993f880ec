// Package site renders the detection catalog into a static website: an index
// page of log sources, one rule table page per platform, pre-rendered modal
// fragments and a copy of the static query, log and explanation files.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/ziadkadry99/kqlcatalog/internal/catalog"
	"github.com/ziadkadry99/kqlcatalog/internal/content"
	"github.com/ziadkadry99/kqlcatalog/internal/counts"
	"github.com/ziadkadry99/kqlcatalog/internal/logging"
	"github.com/ziadkadry99/kqlcatalog/internal/modal"
	"github.com/ziadkadry99/kqlcatalog/internal/progress"
	"github.com/ziadkadry99/kqlcatalog/internal/table"
)

// DefaultTitle is the site title used when neither the generator nor the
// catalog sets one.
const DefaultTitle = "ATT4CKQL"

// ModalsDir is the output subdirectory holding pre-rendered modal fragments.
const ModalsDir = "modals"

// contentDirs are the per-platform static directories copied into the site.
var contentDirs = []string{content.QueriesDir, content.LogsDir, content.ExplainedDir}

// Generator converts a rule catalog into a static HTML site.
type Generator struct {
	Catalog    *catalog.Catalog
	ContentDir string // root of the <Platform Name>/{Queries,logs,explained} tree
	OutputDir  string
	Title      string
	// Counter supplies the index page's query counts. Nil counts ContentDir
	// with no static fallbacks.
	Counter *counts.Counter
	// Fetcher loads modal content for pre-rendering. Nil reads ContentDir.
	Fetcher  modal.Fetcher
	Sanitize bool
	Reporter progress.Reporter
	Logger   *zap.Logger
}

// NewGenerator creates a Generator with sanitizing on and no progress output.
func NewGenerator(cat *catalog.Catalog, contentDir, outputDir string) *Generator {
	return &Generator{
		Catalog:    cat,
		ContentDir: contentDir,
		OutputDir:  outputDir,
		Sanitize:   true,
	}
}

// pageData holds the data passed to the page templates.
type pageData struct {
	Title       string
	SiteTitle   string
	BasePath    string
	PlatformKey string
	NavHTML     template.HTML

	// Index page.
	Sources []sourceRow
	Summary string

	// Platform page.
	PlatformName string
	Accent       string
	Overview     template.HTML
	Rows         template.HTML
	ResultsCount string
}

// sourceRow is one row of the index page's source table.
type sourceRow struct {
	counts.Source
	Path   string
	Accent string
	Rules  int
}

// Generate builds the full static site. Returns the number of pages
// generated.
func (g *Generator) Generate(ctx context.Context) (int, error) {
	if g.Catalog == nil {
		return 0, fmt.Errorf("no catalog to generate from")
	}
	logger := logging.OrNop(g.Logger)
	reporter := g.Reporter
	if reporter == nil {
		reporter = progress.Nop()
	}

	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return 0, err
	}

	// Write static assets.
	if err := os.WriteFile(filepath.Join(g.OutputDir, "style.css"), []byte(cssContent), 0o644); err != nil {
		return 0, err
	}
	if err := os.WriteFile(filepath.Join(g.OutputDir, "script.js"), []byte(jsContent), 0o644); err != nil {
		return 0, err
	}

	if err := WriteSearchIndex(BuildSearchIndex(g.Catalog), filepath.Join(g.OutputDir, "search-index.json")); err != nil {
		return 0, fmt.Errorf("writing search index: %w", err)
	}

	// Initialize goldmark with extensions.
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)

	nav := BuildNav(g.Catalog)
	total := len(g.Catalog.Platforms) + 1
	reporter.Start(total)
	defer reporter.Finish()

	if err := g.renderIndex(nav); err != nil {
		return 0, fmt.Errorf("rendering index: %w", err)
	}
	reporter.Update(1, "index.html")

	for i := range g.Catalog.Platforms {
		p := &g.Catalog.Platforms[i]
		if err := g.renderPlatform(md, nav, p); err != nil {
			return 0, fmt.Errorf("rendering platform %s: %w", p.Key, err)
		}
		reporter.Update(i+2, platformPath(p.Key))
	}

	n, err := g.renderModals(ctx)
	if err != nil {
		return 0, fmt.Errorf("rendering modals: %w", err)
	}
	logger.Debug("modal fragments rendered", zap.Int("count", n))

	if err := g.copyContent(); err != nil {
		return 0, fmt.Errorf("copying content: %w", err)
	}

	logger.Info("site generated",
		zap.String("output", g.OutputDir),
		zap.Int("pages", total),
		zap.Int("modals", n))
	return total, nil
}

func (g *Generator) siteTitle() string {
	switch {
	case g.Title != "":
		return g.Title
	case g.Catalog.Title != "":
		return g.Catalog.Title
	default:
		return DefaultTitle
	}
}

func (g *Generator) renderIndex(nav []*NavNode) error {
	counter := g.Counter
	if counter == nil {
		counter = counts.NewCounter(g.ContentDir, nil, g.Logger)
	}
	sources := counter.Count(g.Catalog.Sources())

	rows := make([]sourceRow, len(sources))
	for i, s := range sources {
		p := &g.Catalog.Platforms[i]
		rows[i] = sourceRow{
			Source: s,
			Path:   platformPath(p.Key),
			Accent: p.Accent(),
			Rules:  len(p.Rules),
		}
	}

	data := pageData{
		Title:     "Detection Sources",
		SiteTitle: g.siteTitle(),
		NavHTML:   template.HTML(NavHTML(nav, "", "")),
		Sources:   rows,
		Summary:   counts.Summary(sources),
	}
	return writePage(filepath.Join(g.OutputDir, "index.html"), "index", data)
}

func (g *Generator) renderPlatform(md goldmark.Markdown, nav []*NavNode, p *catalog.Platform) error {
	rows, err := table.Render(p.Rules)
	if err != nil {
		return err
	}
	body, err := table.HTML(p.Name, rows)
	if err != nil {
		return err
	}

	var overview bytes.Buffer
	if p.Overview != "" {
		if err := md.Convert([]byte(p.Overview), &overview); err != nil {
			return fmt.Errorf("converting overview: %w", err)
		}
	}

	// Platform pages sit two levels deep: platforms/<key>/index.html.
	basePath := "../../"
	data := pageData{
		Title:        p.Name,
		SiteTitle:    g.siteTitle(),
		BasePath:     basePath,
		PlatformKey:  p.Key,
		NavHTML:      template.HTML(NavHTML(nav, p.Key, basePath)),
		PlatformName: p.Name,
		Accent:       p.Accent(),
		Overview:     template.HTML(overview.String()),
		Rows:         body,
		ResultsCount: table.ResultsCount(len(p.Rules)),
	}
	return writePage(filepath.Join(g.OutputDir, filepath.FromSlash(platformPath(p.Key))), "platform", data)
}

func writePage(outPath, name string, data pageData) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return pageTemplates.ExecuteTemplate(f, name, data)
}

// ModalPath returns the location of a pre-rendered modal fragment relative
// to the site root.
func ModalPath(platformKey string, kind content.Kind, id string) string {
	return ModalsDir + "/" + platformKey + "/" + string(kind) + "/" + id + ".html"
}

// renderModals opens every rule's query and sample-log modal through a
// modal.Controller and writes the resulting fragments, so the static site
// shows the same markup the server would. Missing content yields the error
// fragment.
func (g *Generator) renderModals(ctx context.Context) (int, error) {
	fetcher := g.Fetcher
	if fetcher == nil {
		if g.ContentDir == "" {
			return 0, nil
		}
		fetcher = content.NewFetcher(g.ContentDir, content.WithLogger(g.Logger))
	}
	ctrl := modal.NewController(fetcher, nil, modal.WithSanitize(g.Sanitize), modal.WithLogger(g.Logger))
	logger := logging.OrNop(g.Logger)

	n := 0
	for i := range g.Catalog.Platforms {
		p := &g.Catalog.Platforms[i]
		for _, req := range ruleRequests(p) {
			if !safeName(req.ID) {
				logger.Warn("skipping modal with unsafe id", zap.String("platform", p.Key), zap.String("id", req.ID))
				continue
			}
			sess, err := ctrl.Open(ctx, req)
			if err != nil {
				return n, err
			}
			ctrl.Close(req.ID)

			out := filepath.Join(g.OutputDir, filepath.FromSlash(ModalPath(p.Key, req.Kind, req.ID)))
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return n, err
			}
			if err := os.WriteFile(out, []byte(sess.Fragment), 0o644); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}

// ruleRequests returns the modal requests for each rule of p: its query and
// its sample logs, skipping resources the rule does not name.
func ruleRequests(p *catalog.Platform) []modal.Request {
	var reqs []modal.Request
	for _, r := range p.Rules {
		if r.QueryResourceID != "" {
			reqs = append(reqs, modal.Request{
				ID:       r.QueryResourceID,
				Kind:     content.KindQuery,
				Platform: p.Source(),
				FileName: r.QueryFileName,
			})
		}
		if r.SampleLogResourceID != "" {
			reqs = append(reqs, modal.Request{
				ID:       r.SampleLogResourceID,
				Kind:     content.KindLog,
				Platform: p.Source(),
			})
		}
	}
	return reqs
}

// safeName reports whether id can be used as a single path element.
func safeName(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

// copyContent copies each platform's Queries, logs and explained directories
// into the output so the site serves the static layout directly.
func (g *Generator) copyContent() error {
	if g.ContentDir == "" {
		return nil
	}
	src, err := filepath.Abs(g.ContentDir)
	if err != nil {
		return err
	}
	dst, err := filepath.Abs(g.OutputDir)
	if err != nil {
		return err
	}
	if src == dst {
		return nil
	}

	for _, p := range g.Catalog.Platforms {
		for _, sub := range contentDirs {
			from := filepath.Join(src, p.Name, sub)
			info, err := os.Stat(from)
			if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
				continue
			}
			if err != nil {
				return err
			}
			if err := copyDir(from, filepath.Join(dst, p.Name, sub)); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
