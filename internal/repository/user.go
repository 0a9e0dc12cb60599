package repository

import (
	"context"

	"github.com/jaanque/stanza/internal/domain"
)

// UserRepository 定义了用户数据的存储和检索操作。
type UserRepository interface {
	// FindByID 根据用户 ID 查找用户。
	// 如果用户不存在，返回 ErrUserNotFound。
	FindByID(ctx context.Context, id uint) (*domain.User, error)

	// Save 保存用户信息。
	// 新用户的 ID 和时间戳由数据库生成并回填到传入对象。
	Save(ctx context.Context, user *domain.User) error
}
