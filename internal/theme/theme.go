// Package theme implements the three-skin visual theme cycle and its
// per-session persistence.
package theme

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ziadkadry99/kqlcatalog/internal/logging"
)

// Theme is a visual skin.
type Theme string

const (
	Defender  Theme = "defender"
	Attacker  Theme = "attacker"
	Cyberpunk Theme = "cyberpunk"
)

// Default is the theme used when nothing valid is stored.
const Default = Defender

// StorageKey is the session storage key the theme is kept under.
const StorageKey = "att4ckql-theme"

// cycle is the toggle order.
var cycle = []Theme{Defender, Attacker, Cyberpunk}

// All returns the themes in toggle order.
func All() []Theme {
	return append([]Theme(nil), cycle...)
}

// Parse converts s into a Theme.
func Parse(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown theme %q: must be one of defender, attacker, cyberpunk", s)
	}
	return t, nil
}

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	for _, c := range cycle {
		if c == t {
			return true
		}
	}
	return false
}

// Next returns the theme after t in the toggle order. Unknown themes
// advance to the one after the default.
func (t Theme) Next() Theme {
	for i, c := range cycle {
		if c == t {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return Default.Next()
}

// RootClass is the CSS class applied to the document root for t. The
// default theme has none.
func (t Theme) RootClass() string {
	switch t {
	case Attacker, Cyberpunk:
		return "theme-" + string(t)
	default:
		return ""
	}
}

// Store persists the theme for one browsing session.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, t Theme) error
}

// MemoryStore is a Store kept in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	value string
}

func (s *MemoryStore) Load(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, nil
}

func (s *MemoryStore) Save(_ context.Context, t Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = string(t)
	return nil
}

// Controller holds the displayed theme, persists every change and notifies
// listeners.
type Controller struct {
	store  Store
	logger *zap.Logger

	mu        sync.Mutex
	current   Theme
	listeners []func(Theme)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController restores the stored theme, falling back to the default when
// nothing valid is stored. A nil store keeps the theme in memory.
func NewController(ctx context.Context, store Store, opts ...Option) *Controller {
	if store == nil {
		store = &MemoryStore{}
	}
	c := &Controller{store: store, current: Default}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger)

	saved, err := store.Load(ctx)
	switch {
	case err != nil:
		c.logger.Warn("loading stored theme", zap.Error(err))
	case saved == "":
	default:
		if t, err := Parse(saved); err == nil {
			c.current = t
		} else {
			c.logger.Debug("ignoring stored theme", zap.String("value", saved))
		}
	}
	return c
}

// Current returns the displayed theme.
func (c *Controller) Current() Theme {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// OnChange registers fn to be called after every Set or Toggle.
func (c *Controller) OnChange(fn func(Theme)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Set persists t, displays it and notifies listeners. Setting the current
// theme again only re-persists and re-notifies. A failed save leaves the
// displayed theme unchanged.
func (c *Controller) Set(ctx context.Context, t Theme) error {
	if !t.Valid() {
		return fmt.Errorf("unknown theme %q", t)
	}
	c.mu.Lock()
	listeners, err := c.setLocked(ctx, t)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	notify(listeners, t)
	return nil
}

// Toggle advances to the next theme in the cycle. The next theme is chosen
// and saved under one lock so concurrent toggles each advance once.
func (c *Controller) Toggle(ctx context.Context) (Theme, error) {
	c.mu.Lock()
	next := c.current.Next()
	listeners, err := c.setLocked(ctx, next)
	c.mu.Unlock()
	if err != nil {
		return "", err
	}
	notify(listeners, next)
	return next, nil
}

// setLocked saves t and makes it current. c.mu must be held.
func (c *Controller) setLocked(ctx context.Context, t Theme) ([]func(Theme), error) {
	if err := c.store.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("saving theme: %w", err)
	}
	c.current = t
	c.logger.Debug("theme set", zap.String("theme", string(t)))
	return slices.Clone(c.listeners), nil
}

func notify(listeners []func(Theme), t Theme) {
	for _, fn := range listeners {
		fn(t)
	}
}
