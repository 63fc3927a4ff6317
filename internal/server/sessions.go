package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/chatgate/internal/chat"
)

// SessionsHandler owns the REST session lifecycle: create, delete and
// document upload/info. Unknown session ids are auto-created on first use,
// the same policy the WebSocket path applies.
type SessionsHandler struct {
	Registry       *chat.Registry
	MaxUploadBytes int64
}

func (h *SessionsHandler) Register(g *echo.Group) {
	g.POST("", h.create)
	g.DELETE("/:id", h.remove)
	g.POST("/:id/document", h.uploadDocument)
	g.GET("/:id/document", h.documentInfo)
}

func (h *SessionsHandler) create(c echo.Context) error {
	sess := h.Registry.Ensure("")
	return c.JSON(http.StatusCreated, SessionResponse{SessionID: sess.ID()})
}

func (h *SessionsHandler) remove(c echo.Context) error {
	h.Registry.Delete(c.Param("id"))
	return c.JSON(http.StatusOK, StatusResponse{Status: "deleted"})
}

func (h *SessionsHandler) uploadDocument(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}
	if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds %d bytes", h.MaxUploadBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sess := h.Registry.Ensure(c.Param("id"))
	summary, err := sess.LoadDocument(data, fh.Filename)
	if err != nil {
		documentLoads.WithLabelValues("error").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	documentLoads.WithLabelValues("ok").Inc()

	return c.JSON(http.StatusOK, UploadResponse{
		Status:   "success",
		Message:  fmt.Sprintf("Loaded %d pages (%d characters) from %s", summary.Pages, summary.Chars, summary.Name),
		Document: sess.DocumentInfo(),
	})
}

func (h *SessionsHandler) documentInfo(c echo.Context) error {
	sess := h.Registry.Ensure(c.Param("id"))
	return c.JSON(http.StatusOK, sess.DocumentInfo())
}
