package room

import (
	"net/http"

	"ankahee-backend/internal/errors"
	"ankahee-backend/internal/middleware"
	"ankahee-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// RoomHandler 处理聊天室请求
type RoomHandler struct {
	rooms service.RoomServiceInterface
}

func NewRoomHandler(rooms service.RoomServiceInterface) *RoomHandler {
	return &RoomHandler{rooms}
}

// CreateRoom 创建者自动加入
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required,notblank,min=3,max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "room name must be 3 to 50 characters", err))
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), middleware.CurrentUser(c), req.Name)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusCreated, room)
}

func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.rooms.ListRooms(c.Request.Context())
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, rooms)
}

// GetRoom 房间详情，包含成员、消息和当前用户是否已加入
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.rooms.GetRoom(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, room)
}

func (h *RoomHandler) Join(c *gin.Context) {
	member, err := h.rooms.Join(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, member)
}

func (h *RoomHandler) Leave(c *gin.Context) {
	if err := h.rooms.Leave(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusOK, gin.H{"room_id": c.Param("id")})
}

// SendMessage 仅成员可以在存活的房间里发言
func (h *RoomHandler) SendMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required,notblank,max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "message must be 1 to 500 characters", err))
		return
	}

	msg, err := h.rooms.SendMessage(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Content)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, http.StatusCreated, msg)
}
