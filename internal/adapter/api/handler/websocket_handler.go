package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "marketchat/internal/infrastructure/websocket"
	"marketchat/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are handled by the CORS layer in front of this.
		return true
	},
}

type WebSocketHandler struct {
	manager *ws.Manager
}

func NewWebSocketHandler(manager *ws.Manager) *WebSocketHandler {
	return &WebSocketHandler{manager: manager}
}

// HandleConnection upgrades the request and runs the client's pumps until
// the connection closes.
func (h *WebSocketHandler) HandleConnection(c echo.Context) error {
	userID := c.Get("uid").(string)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed for user %s: %v", userID, err)
		return err
	}

	logger.Debug("WebSocket connection established for user %s", userID)

	client := ws.NewClient(userID, conn)
	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump(h.manager)

	return nil
}
