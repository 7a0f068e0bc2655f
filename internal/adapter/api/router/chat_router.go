package router

import (
	"github.com/labstack/echo/v4"

	"marketchat/internal/adapter/api/handler"
	"marketchat/internal/adapter/api/middleware"
)

func SetupChatRoutes(
	e *echo.Echo,
	roomHandler *handler.RoomHandler,
	messageHandler *handler.MessageHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	v1 := e.Group("/v1")

	rooms := v1.Group("/rooms", authMiddleware.Authenticate())
	rooms.POST("", roomHandler.CreateRoom)
	rooms.GET("/me", roomHandler.ListMyRooms)
	rooms.GET("/:roomId", roomHandler.GetRoom)
	rooms.GET("/:roomId/participants", roomHandler.GetParticipants)
	rooms.GET("/:roomId/members/:userId", roomHandler.CheckMembership)

	rooms.POST("/messages", messageHandler.SendWithRoom)
	rooms.POST("/:roomId/messages", messageHandler.SendMessage)
	rooms.GET("/:roomId/messages", messageHandler.ListMessages)
	rooms.POST("/:roomId/messages/read", messageHandler.MarkAsRead)
	rooms.GET("/:roomId/messages/unread", messageHandler.GetRoomUnread)

	users := v1.Group("/users", authMiddleware.Authenticate())
	users.GET("/me/unread", messageHandler.GetUnreadSummary)
}
