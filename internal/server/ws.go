package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// Event types sent on /ws/modal.
const (
	EventShow = "show"
	EventHide = "hide"
	// EventSync is sent once on connect with the active modal, if any.
	EventSync = "sync"
)

// event is one message on /ws/modal.
type event struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	HTML string `json:"html,omitempty"`
}

// socketView is a modal.View that forwards show and hide calls to every
// websocket a session has open, e.g. one per browser tab.
type socketView struct {
	logger *zap.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func newSocketView(logger *zap.Logger) *socketView {
	return &socketView{logger: logger, conns: make(map[*websocket.Conn]struct{})}
}

func (v *socketView) Show(id, fragment string) {
	v.broadcast(event{Type: EventShow, ID: id, HTML: fragment})
}

func (v *socketView) Hide(id string) {
	v.broadcast(event{Type: EventHide, ID: id})
}

func (v *socketView) broadcast(ev event) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for conn := range v.conns {
		if err := v.write(conn, ev); err != nil {
			v.logger.Debug("dropping websocket", zap.Error(err))
			conn.Close()
			delete(v.conns, conn)
		}
	}
}

func (v *socketView) write(conn *websocket.Conn, ev event) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}

// add registers conn after sending it the initial event. Both happen under
// the view lock so no show or hide can slip in between.
func (v *socketView) add(conn *websocket.Conn, initial event) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.write(conn, initial); err != nil {
		return err
	}
	v.conns[conn] = struct{}{}
	return nil
}

func (v *socketView) remove(conn *websocket.Conn) {
	v.mu.Lock()
	delete(v.conns, conn)
	v.mu.Unlock()
}

func (v *socketView) closeAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for conn := range v.conns {
		conn.Close()
		delete(v.conns, conn)
	}
}

// handleSocket streams the session's modal events. Clients may send
// {"type":"hide","id":...} to close a modal.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	c, ok := s.sessionClient(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	initial := event{Type: EventSync}
	if sess, ok := c.ctrl.Session(); ok {
		initial.ID = sess.ID
		initial.HTML = sess.Fragment
	}
	if err := c.view.add(conn, initial); err != nil {
		s.logger.Debug("websocket write", zap.Error(err))
		return
	}
	defer c.view.remove(conn)

	for {
		var msg event
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read", zap.Error(err))
			}
			return
		}
		if msg.Type == EventHide {
			c.ctrl.Close(msg.ID)
		}
	}
}
