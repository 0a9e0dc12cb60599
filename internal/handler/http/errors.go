package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jaanque/stanza/internal/service"
)

// HandleServiceError 把 service 层的错误映射成 HTTP 状态码。
// 瞬态错误（存储/订阅故障）统一落在 5xx，不伪装成 404。
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRoomName),
		errors.Is(err, service.ErrInvalidRoomCode),
		errors.Is(err, service.ErrInvalidUserName),
		errors.Is(err, service.ErrInvalidDeviceToken):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRoomNotFound):
		ErrorResponse(c, http.StatusNotFound, "Room not found")
	case errors.Is(err, service.ErrNotAMember):
		ErrorResponse(c, http.StatusGone, "Not a member of this room")
	case errors.Is(err, service.ErrMembershipLost):
		ErrorResponse(c, http.StatusGone, "Membership no longer exists")
	case errors.Is(err, service.ErrToggleInFlight):
		ErrorResponse(c, http.StatusConflict, "A status change is already in progress")
	case errors.Is(err, service.ErrCodeAllocationExhausted):
		ErrorResponse(c, http.StatusServiceUnavailable, "Could not allocate a room code, please retry")
	default:
		logrus.WithError(err).Error("Handler: unexpected service error")
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}
