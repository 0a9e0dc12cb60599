package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jaanque/stanza/internal/service"
)

type PresenceHandler struct {
	presenceService *service.PresenceService
}

func NewPresenceHandler(presenceService *service.PresenceService) *PresenceHandler {
	return &PresenceHandler{presenceService: presenceService}
}

// parseRoomID 从路径参数解析房间 ID。
func parseRoomID(c *gin.Context) (uint, bool) {
	roomIDStr := c.Param("roomId")
	roomID, err := strconv.ParseUint(roomIDStr, 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid room ID format")
		return 0, false
	}
	return uint(roomID), true
}

// GetPresence 对房间做一次全量对账，返回以调用者视角排序的快照。
// WebSocket 之外的刷新入口，走的是同一条对账路径。
func (h *PresenceHandler) GetPresence(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	snapshot, err := h.presenceService.Reconcile(c.Request.Context(), roomID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, snapshot)
}

// ToggleStatus 翻转调用者自己的在场状态。
// 响应只携带写入后的新状态，完整视图由变更通道或下一次对账带回。
func (h *PresenceHandler) ToggleStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := parseRoomID(c)
	if !ok {
		return
	}

	status, err := h.presenceService.Toggle(c.Request.Context(), roomID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID, "status": status}).
		Info("Handler: status toggled")
	SuccessResponse(c, http.StatusOK, gin.H{"status": status})
}
