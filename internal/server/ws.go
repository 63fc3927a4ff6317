package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/chatgate/internal/chat"
)

// WSHandler serves the per-session bidirectional chat channel. One
// connection maps to one session; messages are handled sequentially in the
// read loop, so turns on a single connection cannot interleave.
type WSHandler struct {
	Registry *chat.Registry
	upgrader websocket.Upgrader
	logger   *log.Logger
}

func NewWSHandler(registry *chat.Registry) *WSHandler {
	return &WSHandler{
		Registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log.New(log.Writer(), "[WS] ", log.LstdFlags),
	}
}

func (h *WSHandler) Handle(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	sess := h.Registry.Ensure(c.Param("session_id"))
	ctx := c.Request().Context() // cancelled when the client disconnects

	for {
		var in wsInbound
		if err := ws.ReadJSON(&in); err != nil {
			h.logger.Printf("session %s disconnected: %v", sess.ID(), err)
			return nil
		}

		switch in.Type {
		case "clear":
			sess.ClearHistory()
			count := 0
			h.write(ws, sess, wsOutbound{Type: "cleared", MessageCount: &count})

		case "clear_document":
			sess.ClearDocument()
			h.write(ws, sess, wsOutbound{Type: "document_cleared", Message: "Document cleared"})

		case "upload_document":
			h.handleUpload(ws, sess, in)

		case "get_document_info":
			doc := sess.DocumentInfo()
			h.write(ws, sess, wsOutbound{Type: "document_info", Document: &doc})

		case "chat", "":
			h.handleChat(ctx, ws, sess, in.Content)

		default:
			h.write(ws, sess, wsOutbound{Type: "error", Content: fmt.Sprintf("unknown message type: %s", in.Type)})
		}
	}
}

func (h *WSHandler) handleChat(ctx context.Context, ws *websocket.Conn, sess *chat.Session, content string) {
	start := time.Now()
	final, err := sess.Turn(ctx, content, func(delta string) error {
		return ws.WriteJSON(wsOutbound{Type: "stream", Content: delta})
	})
	if err != nil {
		status := "error"
		if errors.Is(err, chat.ErrTurnInFlight) {
			status = "rejected"
		}
		turnsTotal.WithLabelValues(status).Inc()
		h.logger.Printf("session %s: turn failed: %v", sess.ID(), err)
		h.write(ws, sess, wsOutbound{Type: "error", Content: err.Error()})
		return
	}
	turnsTotal.WithLabelValues("ok").Inc()
	turnDuration.Observe(time.Since(start).Seconds())

	count := sess.MessageCount()
	doc := sess.DocumentInfo()
	h.write(ws, sess, wsOutbound{Type: "complete", Content: final, MessageCount: &count, Document: &doc})
}

func (h *WSHandler) handleUpload(ws *websocket.Conn, sess *chat.Session, in wsInbound) {
	data, err := base64.StdEncoding.DecodeString(in.Data)
	if err != nil {
		h.write(ws, sess, wsOutbound{Type: "error", Content: fmt.Sprintf("document upload error: %v", err)})
		return
	}
	name := in.Filename
	if name == "" {
		name = "document.pdf"
	}
	summary, err := sess.LoadDocument(data, name)
	if err != nil {
		documentLoads.WithLabelValues("error").Inc()
		h.write(ws, sess, wsOutbound{Type: "error", Content: fmt.Sprintf("document upload error: %v", err)})
		return
	}
	documentLoads.WithLabelValues("ok").Inc()

	doc := sess.DocumentInfo()
	h.write(ws, sess, wsOutbound{
		Type:     "document_loaded",
		Message:  fmt.Sprintf("Loaded %d pages (%d characters) from %s", summary.Pages, summary.Chars, summary.Name),
		Document: &doc,
	})
}

func (h *WSHandler) write(ws *websocket.Conn, sess *chat.Session, out wsOutbound) {
	if err := ws.WriteJSON(out); err != nil {
		h.logger.Printf("session %s: write failed: %v", sess.ID(), err)
	}
}
