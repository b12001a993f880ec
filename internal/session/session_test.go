package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ziadkadry99/kqlcatalog/internal/db"
	"github.com/ziadkadry99/kqlcatalog/internal/theme"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewStore(d, ttl)
}

func TestCreateGetSetTheme(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Hour)

	sess, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.SetTheme(ctx, sess.ID, "attacker"); err != nil {
		t.Fatalf("SetTheme: %v", err)
	}
	got, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Theme != "attacker" {
		t.Errorf("theme = %q", got.Theme)
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.SetTheme(ctx, "missing", "attacker"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExpiryAndPurge(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Hour)
	now := time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	old, err := s.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	now = now.Add(2 * time.Hour)
	fresh, err := s.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired session should read as not found, got %v", err)
	}
	n, err := s.Purge(ctx)
	if err != nil || n != 1 {
		t.Errorf("Purge = %d, %v; want 1", n, err)
	}
	if _, err := s.Get(ctx, fresh.ID); err != nil {
		t.Errorf("fresh session: %v", err)
	}
}

func TestThemeStoreRoundTripsThroughController(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)
	sess, err := s.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}

	c := theme.NewController(ctx, s.ThemeStore(sess.ID))
	if _, err := c.Toggle(ctx); err != nil {
		t.Fatal(err)
	}
	restored := theme.NewController(ctx, s.ThemeStore(sess.ID))
	if restored.Current() != theme.Attacker {
		t.Errorf("restored theme = %q, want attacker", restored.Current())
	}

	unknown := theme.NewController(ctx, s.ThemeStore("nobody"))
	if unknown.Current() != theme.Defender {
		t.Errorf("unknown session theme = %q", unknown.Current())
	}
}

func TestMiddleware(t *testing.T) {
	s := newTestStore(t, time.Hour)
	var seen []string
	h := Middleware(s, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			t.Error("no session in context")
		}
		seen = append(seen, id)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName {
		t.Fatalf("cookies = %v", cookies)
	}
	if cookies[0].MaxAge != 0 || !cookies[0].Expires.IsZero() {
		t.Error("session cookie must not carry an expiry")
	}
	if !cookies[0].HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if len(rec.Result().Cookies()) != 0 {
		t.Error("valid session should not be reissued")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "not-a-uuid"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if len(rec.Result().Cookies()) != 1 {
		t.Error("invalid cookie should be replaced")
	}

	if len(seen) != 3 || seen[0] != seen[1] || seen[2] == seen[0] {
		t.Errorf("session ids = %v", seen)
	}
}
