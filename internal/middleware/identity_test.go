package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jaanque/stanza/internal/domain"
	"github.com/jaanque/stanza/internal/repository"
	"github.com/jaanque/stanza/internal/repository/mocks"
)

func identityTestRouter(store repository.IdentityStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", Identity(store), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   c.GetUint("user_id"),
			"user_name": c.GetString("user_name"),
		})
	})
	return router
}

func TestIdentity_MissingToken(t *testing.T) {
	store := new(mocks.IdentityStore)
	router := identityTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	store.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestIdentity_UnknownToken(t *testing.T) {
	store := new(mocks.IdentityStore)
	store.On("Get", mock.Anything, "unknown-token").Return(nil, repository.ErrIdentityNotFound).Once()
	router := identityTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(DeviceTokenHeader, "unknown-token")
	router.ServeHTTP(w, req)

	// 未知令牌意味着“无会话”，引导回注册流程
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "register")
}

func TestIdentity_StoreFailureIsNotNoSession(t *testing.T) {
	store := new(mocks.IdentityStore)
	store.On("Get", mock.Anything, "token-abc").Return(nil, errors.New("connection reset")).Once()
	router := identityTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(DeviceTokenHeader, "token-abc")
	router.ServeHTTP(w, req)

	// 身份存储故障是瞬态错误，不能折叠成 401
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestIdentity_ValidToken(t *testing.T) {
	store := new(mocks.IdentityStore)
	store.On("Get", mock.Anything, "token-abc").
		Return(&domain.Identity{UserID: 7, Name: "Alice"}, nil).Once()
	router := identityTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(DeviceTokenHeader, "token-abc")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
	assert.Contains(t, w.Body.String(), `"user_name":"Alice"`)
	store.AssertExpectations(t)
}
