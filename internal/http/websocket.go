package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"burnscope/internal/core"
	"burnscope/internal/log"
	"burnscope/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = maxBodyBytes
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// wsReply is sent once per received message, in order.
type wsReply struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
	*services.Result
}

// wsSession keeps the selection of one connected page. Messages may omit the
// selection and the last one is reused.
type wsSession struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{} // closed when writePump exits
	dashboard Dashboard
	logger    *log.Logger
	selection core.Selection
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context()).WithComponent(log.ComponentWebsocket)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logger.WarnContext(r.Context(), "Websocket upgrade failed", log.FieldError, err)
		return
	}

	sess := &wsSession{
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
		dashboard: s.dashboard,
		logger:    logger,
		selection: s.dashboard.Initial(),
	}
	logger.InfoContext(r.Context(), "Websocket connected")

	go sess.writePump()
	sess.readPump(context.WithoutCancel(r.Context()))
	logger.InfoContext(r.Context(), "Websocket disconnected")
}

// readPump handles messages one at a time; each produces exactly one reply.
func (c *wsSession) readPump(ctx context.Context) {
	defer close(c.send)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.WarnContext(ctx, "Websocket read failed", log.FieldError, err)
			}
			return
		}

		reply := c.handle(ctx, message)
		body, err := json.Marshal(reply)
		if err != nil {
			c.logger.ErrorContext(ctx, "Websocket reply encoding failed", log.FieldError, err)
			return
		}
		if !c.enqueue(body) {
			return
		}
	}
}

// enqueue hands a reply to writePump. It reports false once writePump has
// stopped, so a dead writer never blocks the reader.
func (c *wsSession) enqueue(body []byte) bool {
	select {
	case c.send <- body:
		return true
	case <-c.done:
		return false
	}
}

func (c *wsSession) handle(ctx context.Context, message []byte) wsReply {
	req, err := decodeFigureRequest(bytes.NewReader(message))
	if err != nil {
		return wsReply{Type: "error", Error: err.Error()}
	}
	sel, ev, err := req.resolve(c.selection)
	if err != nil {
		return wsReply{Type: "error", Error: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := c.dashboard.Dispatch(ctx, sel, ev, req.Payload)
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			c.logger.ErrorContext(ctx, "Websocket recompute failed", log.FieldError, err)
			return wsReply{Type: "error", Error: "internal error"}
		}
		return wsReply{Type: "error", Error: err.Error()}
	}
	c.selection = res.Selection
	return wsReply{Type: "figures", Result: &res}
}

func (c *wsSession) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
