package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"marketchat/internal/usecase"
	"marketchat/pkg/errors"
	"marketchat/pkg/response"
	"marketchat/pkg/utils"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
	unreadUseCase  *usecase.UnreadUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase, unreadUseCase *usecase.UnreadUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
		unreadUseCase:  unreadUseCase,
	}
}

type sendMessageRequest struct {
	SenderName string `json:"sender_name" validate:"max=100"`
	Content    string `json:"content" validate:"required,max=2000"`
}

type sendWithRoomRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	SenderName string `json:"sender_name" validate:"max=100"`
	Content    string `json:"content" validate:"required,max=2000"`
}

type markAsReadRequest struct {
	UpTo *time.Time `json:"up_to"`
}

func (h *MessageHandler) SendMessage(c echo.Context) error {
	userID := c.Get("uid").(string)
	roomID := c.Param("roomId")

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	message, err := h.messageUseCase.Send(c.Request().Context(), roomID, userID, req.SenderName, req.Content)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, message)
}

// SendWithRoom sends a first message straight from a product page, creating
// the room on the way when it does not exist yet.
func (h *MessageHandler) SendWithRoom(c echo.Context) error {
	userID := c.Get("uid").(string)

	var req sendWithRoomRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.messageUseCase.SendWithAutoRoom(c.Request().Context(), userID, req.ProductID, req.SenderName, req.Content)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}

func (h *MessageHandler) ListMessages(c echo.Context) error {
	userID := c.Get("uid").(string)
	roomID := c.Param("roomId")
	params := utils.GetPaginationParams(c)

	messages, total, err := h.messageUseCase.ListMessages(c.Request().Context(), roomID, userID, params.Page, params.PageSize)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, total, params.Page, params.PageSize)
}

func (h *MessageHandler) MarkAsRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	roomID := c.Param("roomId")

	var req markAsReadRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}

	var upTo time.Time
	if req.UpTo != nil {
		upTo = *req.UpTo
	}

	if err := h.messageUseCase.MarkAsRead(c.Request().Context(), roomID, userID, upTo); err != nil {
		return response.Error(c, err)
	}

	return response.NoContent(c)
}

func (h *MessageHandler) GetRoomUnread(c echo.Context) error {
	userID := c.Get("uid").(string)
	roomID := c.Param("roomId")

	count, err := h.unreadUseCase.GetUnreadCount(c.Request().Context(), roomID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"room_id":      roomID,
		"unread_count": count,
	})
}

func (h *MessageHandler) GetUnreadSummary(c echo.Context) error {
	userID := c.Get("uid").(string)

	summary, err := h.unreadUseCase.GetUnreadSummary(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, summary)
}
