package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jaanque/stanza/internal/repository"
)

// 设备令牌的请求头。令牌在注册时签发，是不透明的随机值。
const DeviceTokenHeader = "X-Device-Token"

// Identity 返回一个 Gin 中间件，把设备令牌解析为用户身份。
// 没有令牌或令牌未知意味着“无会话”，客户端应走注册流程；
// Identity Store 查询失败是瞬态错误，不能当成无会话处理。
func Identity(store repository.IdentityStore) gin.HandlerFunc {
	if store == nil {
		panic("IdentityStore cannot be nil for Identity middleware")
	}

	return func(c *gin.Context) {
		token := c.GetHeader(DeviceTokenHeader)
		if token == "" {
			logrus.Warn("Identity middleware: missing device token header")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Device token is required"})
			c.Abort()
			return
		}

		identity, err := store.Get(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, repository.ErrIdentityNotFound) {
				logrus.Warn("Identity middleware: unknown device token")
				c.JSON(http.StatusUnauthorized, gin.H{"error": "No session for this device, please register"})
			} else {
				logrus.WithError(err).Error("Identity middleware: identity store lookup failed")
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Identity store unavailable"})
			}
			c.Abort()
			return
		}

		// 将身份存储在 Gin 上下文中，供后续处理程序使用
		c.Set("user_id", identity.UserID)
		c.Set("user_name", identity.Name)
		logrus.WithField("user_id", identity.UserID).Debug("Identity middleware: device identified")

		c.Next()
	}
}
