package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jaanque/stanza/internal/domain"
	"github.com/jaanque/stanza/internal/repository"
)

// GormUserRepository 是 UserRepository 接口的 GORM 实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository 创建 GormUserRepository 实例
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	if db == nil {
		panic("database connection cannot be nil for GormUserRepository")
	}
	return &GormUserRepository{db: db}
}

// FindByID 实现根据用户 ID 查找用户
func (r *GormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var userData domain.User
	err := r.db.WithContext(ctx).First(&userData, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("gorm: find user by id %d: %w", id, err)
	}
	return &userData, nil
}

// Save 实现保存用户信息（创建或更新），数据库生成的 ID 与时间戳回填到传入对象
func (r *GormUserRepository) Save(ctx context.Context, userData *domain.User) error {
	err := r.db.WithContext(ctx).Save(userData).Error
	if err != nil {
		return fmt.Errorf("gorm: save user (id: %d): %w", userData.ID, err)
	}
	return nil
}
