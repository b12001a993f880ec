package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/kqlcatalog/internal/catalog"
	"github.com/ziadkadry99/kqlcatalog/internal/content"
	"github.com/ziadkadry99/kqlcatalog/internal/modal"
	"github.com/ziadkadry99/kqlcatalog/internal/session"
	"github.com/ziadkadry99/kqlcatalog/internal/table"
	"github.com/ziadkadry99/kqlcatalog/internal/theme"
)

// modalResponse is the JSON body of a populated modal.
type modalResponse struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	State string `json:"state"`
	HTML  string `json:"html"`
}

type closeRequest struct {
	ID string `json:"id"`
}

type themeBody struct {
	Theme string `json:"theme"`
	Saved bool   `json:"saved"`
}

type rulesResponse struct {
	HTML    string `json:"html"`
	Count   int    `json:"count"`
	Results string `json:"results"`
}

func (s *Server) sessionClient(w http.ResponseWriter, r *http.Request) (*client, bool) {
	id, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no session")
		return nil, false
	}
	return s.client(id), true
}

// findPlatform resolves the platform of a modal: by key when given,
// otherwise the first platform with a rule naming resourceID.
func (s *Server) findPlatform(key, resourceID string) (*catalog.Platform, bool) {
	cat := s.Catalog()
	if cat == nil {
		return nil, false
	}
	if key != "" {
		return cat.Platform(key)
	}
	for i := range cat.Platforms {
		if _, ok := cat.Platforms[i].FindRule(resourceID); ok {
			return &cat.Platforms[i], true
		}
	}
	return nil, false
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	kind, err := content.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	q := r.URL.Query()
	p, ok := s.findPlatform(q.Get("platform"), id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown platform")
		return
	}

	req := modal.Request{ID: id, Kind: kind, Platform: p.Source(), FileName: q.Get("file")}
	if kind == content.KindQuery && req.FileName == "" {
		if rule, ok := p.FindRule(id); ok {
			req.FileName = rule.QueryFileName
		}
	}

	c, ok := s.sessionClient(w, r)
	if !ok {
		return
	}
	// The fetch outlives a client that disconnects: its result is still
	// pushed to the session's other tabs.
	sess, err := c.ctrl.Open(context.WithoutCancel(r.Context()), req)
	if errors.Is(err, modal.ErrSuperseded) {
		writeError(w, http.StatusConflict, "superseded by a newer modal")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, modalResponse{
		ID:    sess.ID,
		Kind:  string(sess.Kind),
		State: sess.State.String(),
		HTML:  sess.Fragment,
	})
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	var req closeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, ok := s.sessionClient(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"closed": c.ctrl.Close(req.ID)})
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	c, ok := s.sessionClient(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	text, ok := c.ctrl.CopyText(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no query loaded for "+id)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "text": text})
}

func (s *Server) themeStore(w http.ResponseWriter, r *http.Request) (theme.Store, bool) {
	id, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no session")
		return nil, false
	}
	return s.sessions.ThemeStore(id), true
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	store, ok := s.themeStore(w, r)
	if !ok {
		return
	}
	saved, err := store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading theme")
		return
	}
	c, ok := s.sessionClient(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, themeBody{
		Theme: string(c.theme.Current()),
		Saved: theme.Theme(saved).Valid(),
	})
}

// handleSetTheme sets the posted theme; an empty body or theme toggles.
func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	c, ok := s.sessionClient(w, r)
	if !ok {
		return
	}
	var body themeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var err error
	if strings.TrimSpace(body.Theme) == "" {
		_, err = c.theme.Toggle(r.Context())
	} else {
		var t theme.Theme
		if t, err = theme.Parse(body.Theme); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		err = c.theme.Set(r.Context(), t)
	}
	if err != nil {
		s.logger.Warn("saving theme", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "saving theme")
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: string(c.theme.Current()), Saved: true})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	cat := s.Catalog()
	if cat == nil {
		writeError(w, http.StatusNotFound, "no catalog")
		return
	}
	p, ok := cat.Platform(chi.URLParam(r, "platform"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown platform")
		return
	}
	rules := table.Search(p.Rules, r.URL.Query().Get("q"))
	rows, err := table.Render(rules)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	body, err := table.HTML(p.Name, rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rulesResponse{
		HTML:    string(body),
		Count:   len(rules),
		Results: table.ResultsCount(len(rules)),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
