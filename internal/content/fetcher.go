package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/kqlcatalog/internal/logging"
)

// FetchError reports a resource that could not be retrieved. Status is the
// HTTP status code, or 0 when the request never produced a response.
type FetchError struct {
	Status int
	Path   string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("fetching %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("fetching %s: HTTP %d %s", e.Path, e.Status, http.StatusText(e.Status))
}

func (e *FetchError) Unwrap() error { return e.Err }

// frontMatter matches a leading metadata block whose "---" markers each sit
// on a line of their own.
var frontMatter = regexp.MustCompile(`(?s)\A\s*---[ \t]*\r?\n(.*?\r?\n)?---[ \t]*(\r?\n|\z)\s*`)

// StripFrontMatter removes a leading front-matter block, if any, and trims
// surrounding whitespace.
func StripFrontMatter(body string) string {
	return strings.TrimSpace(frontMatter.ReplaceAllString(body, ""))
}

// Fetcher retrieves static content resources. The base is either an HTTP(S)
// URL or a local directory (optionally written as a file:// URL).
type Fetcher struct {
	base   string
	dir    string
	client *http.Client
	logger *zap.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout sets a client timeout. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			c := *f.client
			c.Timeout = d
			f.client = &c
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a Fetcher rooted at base.
func NewFetcher(base string, opts ...Option) *Fetcher {
	f := &Fetcher{client: http.DefaultClient}
	switch {
	case strings.HasPrefix(base, "http://"), strings.HasPrefix(base, "https://"):
		f.base = strings.TrimRight(base, "/")
	case strings.HasPrefix(base, "file://"):
		f.dir = strings.TrimPrefix(base, "file://")
	default:
		f.dir = base
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.OrNop(f.logger)
	return f
}

// Location returns the display path of a resource: the base joined with the
// unescaped resource path. It is the path reported in FetchError.
func (f *Fetcher) Location(kind Kind, p Platform, id string) (string, error) {
	rel, err := ResourcePath(kind, p, id)
	if err != nil {
		return "", err
	}
	if f.dir != "" {
		return filepath.ToSlash(filepath.Join(f.dir, filepath.FromSlash(rel))), nil
	}
	return f.base + rel, nil
}

// Fetch retrieves one resource with a single request and returns its text
// with front matter stripped. Failures are returned as *FetchError; there
// are no retries.
func (f *Fetcher) Fetch(ctx context.Context, kind Kind, p Platform, id string) (string, error) {
	segs, err := Segments(kind, p, id)
	if err != nil {
		return "", err
	}
	display, _ := f.Location(kind, p, id)

	var body string
	if f.dir != "" {
		body, err = f.readFile(segs, display)
	} else {
		body, err = f.get(ctx, segs, display)
	}
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			f.logger.Warn("content fetch failed",
				zap.String("kind", string(kind)),
				zap.String("path", fe.Path),
				zap.Int("status", fe.Status),
				zap.Error(fe.Err))
		}
		return "", err
	}

	f.logger.Debug("content fetched", zap.String("kind", string(kind)), zap.String("path", display))
	return StripFrontMatter(body), nil
}

func (f *Fetcher) get(ctx context.Context, segs []string, display string) (string, error) {
	escaped := make([]string, len(segs))
	for i, s := range segs {
		escaped[i] = url.PathEscape(s)
	}
	target := f.base + "/" + strings.Join(escaped, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &FetchError{Path: display, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{Path: display, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{
			Status: resp.StatusCode,
			Path:   display,
			Err:    fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{Status: resp.StatusCode, Path: display, Err: fmt.Errorf("reading body: %w", err)}
	}
	return string(data), nil
}

func (f *Fetcher) readFile(segs []string, display string) (string, error) {
	data, err := os.ReadFile(filepath.Join(append([]string{f.dir}, segs...)...))
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, fs.ErrNotExist):
			status = http.StatusNotFound
		case errors.Is(err, fs.ErrPermission):
			status = http.StatusForbidden
		}
		return "", &FetchError{Status: status, Path: display, Err: err}
	}
	return string(data), nil
}
