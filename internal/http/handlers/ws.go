package handlers

import (
	"net/http"
	"time"

	"storefront/internal/utils"
	"storefront/internal/wizard"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsPingInterval = 30 * time.Second
	wsPongWait     = 60 * time.Second
	wsWriteWait    = 10 * time.Second
	wsMaxMessage   = 1024
	wsSendBuffer   = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The session token, not the origin, authenticates a stream.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type  string     `json:"type"`
	State *draftView `json:"state,omitempty"`
}

// Stream pushes a fresh view of the draft after every store event.
// Slow readers lose intermediate views, never the latest one.
func (h WizardHandler) Stream(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	log := utils.OrNop(h.Logger).With(zap.String("session", sess.Context.Key()))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan wsMessage, wsSendBuffer)
	unsubscribe := sess.Store.Subscribe(func(ev wizard.Event) {
		msg := wsMessage{Type: string(ev.Kind)}
		select {
		case send <- msg:
		default:
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(wsMaxMessage)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(msg wsMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(msg)
	}

	initial := viewOf(sess.Store)
	if err := write(wsMessage{Type: "snapshot", State: &initial}); err != nil {
		return
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case msg := <-send:
			// the view is taken here, outside the store callback
			v := viewOf(sess.Store)
			msg.State = &v
			if err := write(msg); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
