// Package session keeps per-browser-session state (the selected theme) in
// SQLite, keyed by a cookie that the browser drops when the session ends.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/kqlcatalog/internal/db"
	"github.com/ziadkadry99/kqlcatalog/internal/theme"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Session is one browsing session row.
type Session struct {
	ID        string
	Theme     string
	CreatedAt time.Time
	LastSeen  time.Time
}

// Store provides access to session rows. Rows idle for longer than the TTL
// are treated as absent.
type Store struct {
	db  *db.DB
	ttl time.Duration
	now func() time.Time
}

// NewStore creates a Store backed by the given database. A zero ttl keeps
// sessions until Purge is called with an explicit cutoff.
func NewStore(database *db.DB, ttl time.Duration) *Store {
	return &Store{db: database, ttl: ttl, now: time.Now}
}

// Create inserts a new session with a random id.
func (s *Store) Create(ctx context.Context) (*Session, error) {
	now := s.now().UTC().Truncate(time.Second)
	sess := &Session{ID: uuid.New().String(), CreatedAt: now, LastSeen: now}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, theme, created_at, last_seen) VALUES (?, '', ?, ?)`,
		sess.ID, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return sess, nil
}

// Get returns the session with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	var created, seen int64
	sess := &Session{ID: id}
	err := s.db.QueryRowContext(ctx,
		`SELECT theme, created_at, last_seen FROM sessions WHERE id = ?`, id,
	).Scan(&sess.Theme, &created, &seen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	sess.CreatedAt = time.Unix(created, 0).UTC()
	sess.LastSeen = time.Unix(seen, 0).UTC()
	if s.expired(sess.LastSeen) {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Touch records activity on a session.
func (s *Store) Touch(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_seen = ? WHERE id = ?`, s.now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("touching session: %w", err)
	}
	return nil
}

// SetTheme stores the theme value of a session.
func (s *Store) SetTheme(ctx context.Context, id, value string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET theme = ?, last_seen = ? WHERE id = ?`, value, s.now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("updating session theme: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Purge deletes sessions idle since before the TTL and returns how many
// were removed.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).UTC().Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE last_seen < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) expired(lastSeen time.Time) bool {
	return s.ttl > 0 && s.now().Sub(lastSeen) > s.ttl
}

// ThemeStore returns a theme.Store reading and writing the theme of session
// id.
func (s *Store) ThemeStore(id string) theme.Store {
	return themeStore{store: s, id: id}
}

type themeStore struct {
	store *Store
	id    string
}

func (t themeStore) Load(ctx context.Context) (string, error) {
	sess, err := t.store.Get(ctx, t.id)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return sess.Theme, nil
}

func (t themeStore) Save(ctx context.Context, th theme.Theme) error {
	return t.store.SetTheme(ctx, t.id, string(th))
}
