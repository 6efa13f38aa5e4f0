package handler

import (
	"github.com/labstack/echo/v4"

	"librarydesk/internal/notify"
)

// WSHandler upgrades /ws connections and hands them to the hub.
type WSHandler struct {
	Hub *notify.Hub
}

func NewWSHandler(hub *notify.Hub) *WSHandler {
	return &WSHandler{Hub: hub}
}

func (h *WSHandler) Serve(c echo.Context) error {
	return h.Hub.Serve(c.Response(), c.Request())
}
