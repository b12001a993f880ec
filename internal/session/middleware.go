package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/kqlcatalog/internal/logging"
)

// CookieName is the session cookie. It has no Max-Age or Expires, so the
// browser discards it when the browsing session ends.
const CookieName = "kqlcatalog_session"

type ctxKey struct{}

// WithID returns a context carrying session id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the session id stored by Middleware.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// Middleware resolves the session cookie to a live session row, creating a
// session and setting the cookie when there is none.
func Middleware(store *Store, logger *zap.Logger) func(http.Handler) http.Handler {
	logger = logging.OrNop(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var id string
			if c, err := r.Cookie(CookieName); err == nil {
				if _, perr := uuid.Parse(c.Value); perr == nil {
					switch _, err := store.Get(ctx, c.Value); {
					case err == nil:
						id = c.Value
						if err := store.Touch(ctx, id); err != nil {
							logger.Warn("touching session", zap.String("session", id), zap.Error(err))
						}
					case !errors.Is(err, ErrNotFound):
						logger.Warn("loading session", zap.Error(err))
					}
				}
			}

			if id == "" {
				sess, err := store.Create(ctx)
				if err != nil {
					logger.Error("creating session", zap.Error(err))
					http.Error(w, "session unavailable", http.StatusInternalServerError)
					return
				}
				id = sess.ID
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				logger.Debug("session created", zap.String("session", id))
			}

			next.ServeHTTP(w, r.WithContext(WithID(ctx, id)))
		})
	}
}
