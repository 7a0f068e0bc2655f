package router

import (
	"github.com/labstack/echo/v4"

	"marketchat/internal/adapter/api/handler"
	"marketchat/internal/adapter/api/middleware"
)

func SetupWebSocketRoutes(
	e *echo.Echo,
	wsHandler *handler.WebSocketHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	e.GET("/v1/ws", wsHandler.HandleConnection, authMiddleware.AuthenticateWebSocket())
}
