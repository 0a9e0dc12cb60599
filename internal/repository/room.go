package repository

import (
	"context"

	"github.com/jaanque/stanza/internal/domain"
)

// RoomRepository 定义了房间数据的存储和检索操作。
type RoomRepository interface {
	// FindByID 根据房间 ID 查找房间。
	// 如果房间不存在，返回 ErrRoomNotFound。
	FindByID(ctx context.Context, id uint) (*domain.Room, error)

	// FindByCode 根据共享码精确查找房间。
	// 如果房间不存在，返回 ErrRoomNotFound；查询失败返回包装后的原始错误。
	FindByCode(ctx context.Context, code string) (*domain.Room, error)

	// Save 保存房间信息。共享码唯一约束冲突时返回 ErrDuplicateEntry，
	// 调用方应将其视为可重试的分配碰撞而非致命错误。
	Save(ctx context.Context, room *domain.Room) error

	// IsCodeExists 检查共享码是否已被占用。
	// 仅用于分配时的预检；预检通过后插入仍可能冲突（检查-插入之间的竞态）。
	IsCodeExists(ctx context.Context, code string) (bool, error)
}
