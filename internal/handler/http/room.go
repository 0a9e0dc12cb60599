package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jaanque/stanza/internal/domain"
	"github.com/jaanque/stanza/internal/service"
)

// ShareURLScheme 是客户端深链的前缀，拼上共享码得到完整的加入链接。
const ShareURLScheme = "stanza://join?code="

type RoomHandler struct {
	roomService *service.RoomService
}

func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

type createRoomRequest struct {
	Name string `json:"name" binding:"required"`
}

type joinRoomRequest struct {
	Code string `json:"code" binding:"required"`
}

// CreateRoom 创建房间并返回分配到的共享码和深链。
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), userID, req.Name)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"room_id": room.ID, "user_id": userID}).Info("Handler: room created")
	SuccessResponse(c, http.StatusCreated, gin.H{
		"room_id":   room.ID,
		"name":      room.Name,
		"code":      room.Code,
		"share_url": ShareURLScheme + room.Code,
	})
}

// ListRooms 返回调用者加入过的全部房间，供首页的房间列表使用。
func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	rooms, err := h.roomService.ListRoomsForUser(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	if rooms == nil {
		rooms = []domain.JoinedRoom{}
	}
	SuccessResponse(c, http.StatusOK, gin.H{"rooms": rooms})
}

// JoinRoom 用共享码加入房间；重复加入返回同一条成员记录。
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	room, membership, err := h.roomService.JoinRoom(c.Request.Context(), userID, req.Code)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"room_id": room.ID, "user_id": userID}).Info("Handler: user joined room")
	SuccessResponse(c, http.StatusOK, gin.H{
		"room_id": room.ID,
		"name":    room.Name,
		"code":    room.Code,
		"status":  membership.Status,
	})
}
