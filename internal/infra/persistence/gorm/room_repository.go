package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"github.com/jaanque/stanza/internal/domain"
	"github.com/jaanque/stanza/internal/repository"
)

// GormRoomRepository 是 RoomRepository 接口的 GORM 实现
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository 创建 GormRoomRepository 实例
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

// FindByID 实现根据房间 ID 查找房间
func (r *GormRoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	var roomData domain.Room
	err := r.db.WithContext(ctx).First(&roomData, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by id %d: %w", id, err)
	}
	return &roomData, nil
}

// FindByCode 实现根据共享码精确查找房间。
// “没有这样的房间”(ErrRoomNotFound) 与查询失败是两类错误，
// 后者包装原始错误返回，绝不折叠为未找到。
func (r *GormRoomRepository) FindByCode(ctx context.Context, code string) (*domain.Room, error) {
	var roomData domain.Room
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&roomData).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by code '%s': %w", code, err)
	}
	return &roomData, nil
}

// Save 实现保存房间信息。
// 共享码唯一索引冲突被映射为 repository.ErrDuplicateEntry，
// 由调用方按可重试的分配碰撞处理（检查-插入竞态在这里收口）。
func (r *GormRoomRepository) Save(ctx context.Context, roomData *domain.Room) error {
	err := r.db.WithContext(ctx).Save(roomData).Error
	if err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save room (id: %d, code: %s): %w", roomData.ID, roomData.Code, err)
	}
	return nil
}

// IsCodeExists 实现检查共享码是否已被占用
func (r *GormRoomRepository) IsCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	// 使用 Count() 优化查询，只查询数量
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count rooms by code '%s': %w", code, err)
	}
	return count > 0, nil
}

// isDuplicateEntry 判断错误是否为 MySQL 唯一约束冲突 (错误码 1062)
func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
