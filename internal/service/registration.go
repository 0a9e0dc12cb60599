package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jaanque/stanza/internal/domain"
	"github.com/jaanque/stanza/internal/repository"
)

// RegistrationService 负责注册流程：创建用户并签发设备令牌。
// 令牌是不透明的随机值，只用于在 Identity Store 中解析身份，
// 不携带任何声明，也不做认证（认证不在范围内）。
type RegistrationService struct {
	userRepo repository.UserRepository
	identity repository.IdentityStore
	// newToken 可替换，测试中注入确定性令牌
	newToken func() string
}

// NewRegistrationService 创建 RegistrationService 实例。
func NewRegistrationService(userRepo repository.UserRepository, identity repository.IdentityStore) *RegistrationService {
	if userRepo == nil {
		panic("UserRepository cannot be nil for RegistrationService")
	}
	if identity == nil {
		panic("IdentityStore cannot be nil for RegistrationService")
	}
	return &RegistrationService{
		userRepo: userRepo,
		identity: identity,
		newToken: uuid.NewString,
	}
}

// Register 创建用户、签发设备令牌并写入 Identity Store。
// 返回创建的用户和令牌；令牌丢失意味着会话丢失，需要重新注册。
func (s *RegistrationService) Register(ctx context.Context, name string) (*domain.User, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", ErrInvalidUserName
	}
	logCtx := logrus.WithField("name", name)

	user := &domain.User{Name: name}
	if err := s.userRepo.Save(ctx, user); err != nil {
		logCtx.WithError(err).Error("Failed to save new user")
		return nil, "", ErrInternalServer
	}
	logCtx = logCtx.WithField("user_id", user.ID)

	token := s.newToken()
	err := s.identity.Set(ctx, token, domain.Identity{UserID: user.ID, Name: user.Name})
	if err != nil {
		logCtx.WithError(err).Error("Failed to store device identity")
		return nil, "", ErrInternalServer
	}

	logCtx.Info("User registered, device token issued")
	return user, token, nil
}

// Logout 删除设备令牌对应的会话。令牌本就不存在时也算成功：
// 目标状态（无会话）已经达成，重复登出不报错。
func (s *RegistrationService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidDeviceToken
	}
	if err := s.identity.Remove(ctx, token); err != nil {
		logrus.WithError(err).Error("Failed to remove device identity")
		return ErrInternalServer
	}
	logrus.Info("Device session removed")
	return nil
}
