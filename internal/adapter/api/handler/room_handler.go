package handler

import (
	"github.com/labstack/echo/v4"

	"marketchat/internal/usecase"
	"marketchat/pkg/errors"
	"marketchat/pkg/response"
)

type RoomHandler struct {
	roomUseCase *usecase.RoomUseCase
}

func NewRoomHandler(roomUseCase *usecase.RoomUseCase) *RoomHandler {
	return &RoomHandler{roomUseCase: roomUseCase}
}

type createRoomRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// CreateRoom opens (or returns) the caller's room for a product. The
// response is the same whether the room was just created or already existed.
func (h *RoomHandler) CreateRoom(c echo.Context) error {
	userID := c.Get("uid").(string)

	var req createRoomRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request payload", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	room, err := h.roomUseCase.CreateOrGetRoom(c.Request().Context(), userID, req.ProductID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, room)
}

func (h *RoomHandler) GetRoom(c echo.Context) error {
	userID := c.Get("uid").(string)
	roomID := c.Param("roomId")

	room, err := h.roomUseCase.GetRoom(c.Request().Context(), roomID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, room)
}

func (h *RoomHandler) ListMyRooms(c echo.Context) error {
	userID := c.Get("uid").(string)

	rooms, err := h.roomUseCase.ListMyRooms(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, rooms)
}

func (h *RoomHandler) GetParticipants(c echo.Context) error {
	userID := c.Get("uid").(string)
	roomID := c.Param("roomId")

	participants, err := h.roomUseCase.GetParticipants(c.Request().Context(), roomID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, participants)
}

// CheckMembership reports whether the given user belongs to the room. Used
// by collaborator services to gate their own room-scoped operations.
func (h *RoomHandler) CheckMembership(c echo.Context) error {
	roomID := c.Param("roomId")
	targetID := c.Param("userId")

	isMember, err := h.roomUseCase.IsParticipant(c.Request().Context(), roomID, targetID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"room_id":        roomID,
		"user_id":        targetID,
		"is_participant": isMember,
	})
}
