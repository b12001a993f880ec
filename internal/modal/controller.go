// Package modal manages the single active overlay: which resource it shows,
// its loading and populated states, and the content pushed to the page.
package modal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ziadkadry99/kqlcatalog/internal/content"
	"github.com/ziadkadry99/kqlcatalog/internal/fragment"
	"github.com/ziadkadry99/kqlcatalog/internal/logging"
)

// State is the lifecycle state of a modal session.
type State int

const (
	StateClosed State = iota
	StateLoading
	StatePopulated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StatePopulated:
		return "populated"
	default:
		return "closed"
	}
}

// ErrSuperseded is returned by Open when another open or a close happened
// before the fetched content arrived. The result was discarded.
var ErrSuperseded = errors.New("modal: superseded before content arrived")

// Fetcher retrieves static content. *content.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, kind content.Kind, p content.Platform, id string) (string, error)
}

// View displays modal fragments. Show replaces the content of modal id and
// makes it visible; Hide makes it invisible.
type View interface {
	Show(id, fragment string)
	Hide(id string)
}

// Request describes the resource a modal should display.
type Request struct {
	ID       string // modal id, e.g. "aws-imdsv1-kql" or "imdsv1-logs"
	Kind     content.Kind
	Platform content.Platform
	FileName string // query file name; defaults to ID
	Title    string // optional query title override
}

// Session is a snapshot of the active modal.
type Session struct {
	ID       string
	Kind     content.Kind
	State    State
	Fragment string
	// BodyText is the cleaned query text kept for copy-to-clipboard.
	BodyText string
}

// Visible reports whether the session is shown.
func (s Session) Visible() bool { return s.State != StateClosed }

type session struct {
	Session
	generation uint64
}

// Controller owns at most one active modal session. Opening a modal replaces
// the active one; results of superseded opens are dropped.
type Controller struct {
	fetcher  Fetcher
	view     View
	logger   *zap.Logger
	sanitize bool

	mu         sync.Mutex
	generation uint64
	active     *session
	copies     map[string]string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithSanitize toggles sanitizing of fetched log and explanation HTML.
func WithSanitize(on bool) Option {
	return func(c *Controller) { c.sanitize = on }
}

// NewController creates a Controller. A nil view discards output.
func NewController(f Fetcher, v View, opts ...Option) *Controller {
	c := &Controller{
		fetcher:  f,
		view:     v,
		sanitize: true,
		copies:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.view == nil {
		c.view = nopView{}
	}
	c.logger = logging.OrNop(c.logger)
	return c
}

// Open makes req the active modal, shows a loading placeholder, then fetches
// and shows the content. Fetch failures produce an error fragment, not an
// error. ErrSuperseded is returned when the modal was replaced or closed
// while loading.
func (c *Controller) Open(ctx context.Context, req Request) (Session, error) {
	if req.ID == "" {
		return Session{}, fmt.Errorf("modal id is required")
	}
	if req.Kind == "" {
		req.Kind = content.KindLog
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	prev := c.active
	c.active = &session{
		Session:    Session{ID: req.ID, Kind: req.Kind, State: StateLoading},
		generation: gen,
	}
	if prev != nil {
		c.view.Hide(prev.ID)
	}
	c.view.Show(req.ID, LoadingFragment(req.ID, req.Kind))
	c.mu.Unlock()

	c.logger.Debug("modal loading",
		zap.String("id", req.ID),
		zap.String("kind", string(req.Kind)),
		zap.Uint64("generation", gen))

	frag, text := c.load(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.generation != gen {
		c.logger.Debug("modal result dropped", zap.String("id", req.ID), zap.Uint64("generation", gen))
		return Session{}, ErrSuperseded
	}
	c.active.State = StatePopulated
	c.active.Fragment = frag
	c.active.BodyText = text
	if text != "" {
		c.copies[req.ID] = text
	}
	c.view.Show(req.ID, frag)
	c.logger.Debug("modal populated", zap.String("id", req.ID), zap.Uint64("generation", gen))
	return c.active.Session, nil
}

// Close hides the modal id when it is the active one. An empty id closes
// whatever is active. Anything else is a no-op. It reports whether a modal
// was closed.
func (c *Controller) Close(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || (id != "" && id != c.active.ID) {
		return false
	}
	closed := c.active.ID
	c.active = nil
	c.view.Hide(closed)
	c.logger.Debug("modal closed", zap.String("id", closed))
	return true
}

// Active returns the id of the visible modal, if any.
func (c *Controller) Active() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return "", false
	}
	return c.active.ID, true
}

// Session returns a snapshot of the active session.
func (c *Controller) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return Session{}, false
	}
	return c.active.Session, true
}

// CopyText returns the last query text loaded for modal id.
func (c *Controller) CopyText(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.copies[id]
	return t, ok
}

// load fetches and composes the fragment for req. It never fails: fetch
// errors become the error fragment.
func (c *Controller) load(ctx context.Context, req Request) (frag, bodyText string) {
	if req.Kind != content.KindQuery {
		raw, err := c.fetcher.Fetch(ctx, req.Kind, req.Platform, req.ID)
		if err != nil {
			return ErrorFragment(req.ID, req.Kind, err), ""
		}
		return fragment.Normalize(c.clean(raw), req.ID), ""
	}

	file := req.FileName
	if file == "" {
		file = req.ID
	}
	query, err := c.fetcher.Fetch(ctx, content.KindQuery, req.Platform, file)
	if err != nil {
		return ErrorFragment(req.ID, req.Kind, err), ""
	}

	explanation := MissingExplanation()
	raw, err := c.fetcher.Fetch(ctx, content.KindExplanation, req.Platform, req.ID)
	if err != nil {
		c.logger.Debug("explanation unavailable", zap.String("id", req.ID), zap.Error(err))
	} else {
		explanation = ExplanationSection(c.clean(raw))
	}

	title := req.Title
	if title == "" {
		title = QueryTitle(file)
	}
	composed := QueryFragment(req.ID, title, file, query, explanation)
	return fragment.Normalize(composed, req.ID), query
}

func (c *Controller) clean(raw string) string {
	if !c.sanitize {
		return raw
	}
	return fragment.Sanitize(raw)
}

type nopView struct{}

func (nopView) Show(string, string) {}
func (nopView) Hide(string)         {}
