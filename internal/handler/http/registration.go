package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jaanque/stanza/internal/middleware"
	"github.com/jaanque/stanza/internal/service"
)

type RegistrationHandler struct {
	registrationService *service.RegistrationService
}

func NewRegistrationHandler(registrationService *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

type registerRequest struct {
	Name string `json:"name" binding:"required"`
}

// Register 创建用户并签发设备令牌，后续请求都带 X-Device-Token。
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	user, token, err := h.registrationService.Register(c.Request.Context(), req.Name)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "name": user.Name}).Info("Handler: user registered")
	SuccessResponse(c, http.StatusCreated, gin.H{
		"user_id":      user.ID,
		"name":         user.Name,
		"device_token": token,
	})
}

// Logout 注销当前设备会话：删除请求头里的设备令牌对应的身份。
// 之后该令牌的请求会被 Identity 中间件引导回注册流程。
func (h *RegistrationHandler) Logout(c *gin.Context) {
	token := c.GetHeader(middleware.DeviceTokenHeader)

	if err := h.registrationService.Logout(c.Request.Context(), token); err != nil {
		HandleServiceError(c, err)
		return
	}

	logrus.Info("Handler: device session removed")
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Session removed"})
}
