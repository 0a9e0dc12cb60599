package websocket

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/jaanque/stanza/internal/hub"
	"github.com/jaanque/stanza/internal/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: 上线前用配置里的允许来源替换
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RoomViewHandler 处理房间视图的 WebSocket 升级请求。
// 升级前校验房间存在且调用者是成员；升级后把客户端交给 Hub，
// 初始快照和后续的变更推送都由 Hub 负责。
type RoomViewHandler struct {
	hub         *hub.Hub
	roomService *service.RoomService
	presence    *service.PresenceService
}

func NewRoomViewHandler(h *hub.Hub, roomService *service.RoomService, presence *service.PresenceService) *RoomViewHandler {
	return &RoomViewHandler{hub: h, roomService: roomService, presence: presence}
}

// Serve 是 GET /ws/rooms/:roomId 的入口。
func (h *RoomViewHandler) Serve(c *gin.Context) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not identified"})
		return
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error processing user ID"})
		return
	}

	roomID64, err := strconv.ParseUint(c.Param("roomId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID format"})
		return
	}
	roomID := uint(roomID64)
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	if _, err := h.roomService.FindRoomByID(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// 非成员不能打开房间视图
	if _, err := h.presence.Reconcile(c.Request.Context(), roomID, userID); err != nil {
		if errors.Is(err, service.ErrMembershipLost) {
			c.JSON(http.StatusGone, gin.H{"error": "Not a member of this room"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logCtx.WithError(err).Error("Failed to upgrade connection to WebSocket")
		return
	}
	logCtx.Info("WebSocket connection established for room view")

	client := hub.NewClient(h.hub, conn, roomID, userID)
	if !h.hub.QueueMessage(hub.HubMessage{Type: "register", Client: client}) {
		logCtx.Error("Hub queue full, rejecting WebSocket connection")
		client.CloseConn()
		return
	}
	client.Run()
}
