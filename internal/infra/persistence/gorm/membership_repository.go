package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jaanque/stanza/internal/domain"
	"github.com/jaanque/stanza/internal/repository"
)

// GormMembershipRepository 是 MembershipRepository 接口的 GORM 实现。
// (room_id, user_id) 复合主键由数据库保证唯一；并发写入不加客户端锁，
// join 和状态更新各自只触达一行，不需要多行事务。
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository 创建 GormMembershipRepository 实例
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMembershipRepository")
	}
	return &GormMembershipRepository{db: db}
}

// Find 实现查找某房间中某用户的成员记录
func (r *GormMembershipRepository) Find(ctx context.Context, roomID, userID uint) (*domain.Membership, error) {
	var membership domain.Membership
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("gorm: find membership (room: %d, user: %d): %w", roomID, userID, err)
	}
	return &membership, nil
}

// Save 实现插入新的成员记录。
// 复合主键冲突映射为 repository.ErrDuplicateEntry，调用方据此做幂等加入。
func (r *GormMembershipRepository) Save(ctx context.Context, membership *domain.Membership) error {
	err := r.db.WithContext(ctx).Create(membership).Error
	if err != nil {
		if isDuplicateEntry(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save membership (room: %d, user: %d): %w",
			membership.RoomID, membership.UserID, err)
	}
	return nil
}

// ListByRoom 实现成员与用户展示名的联查，按展示名升序返回。
// 排序交给数据库以保证确定性；观察者优先的重排由上层完成。
func (r *GormMembershipRepository) ListByRoom(ctx context.Context, roomID uint) ([]domain.RoomMember, error) {
	var members []domain.RoomMember
	err := r.db.WithContext(ctx).
		Table("room_members").
		Select("room_members.user_id AS user_id, users.name AS name, room_members.status AS status").
		Joins("JOIN users ON users.id = room_members.user_id").
		Where("room_members.room_id = ?", roomID).
		Order("users.name ASC, room_members.user_id ASC").
		Scan(&members).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list members of room %d: %w", roomID, err)
	}
	return members, nil
}

// ListByUser 实现“我的房间”联查：成员记录连上房间信息，最近加入的在前。
func (r *GormMembershipRepository) ListByUser(ctx context.Context, userID uint) ([]domain.JoinedRoom, error) {
	var rooms []domain.JoinedRoom
	err := r.db.WithContext(ctx).
		Table("room_members").
		Select("rooms.id AS room_id, rooms.name AS name, rooms.code AS code, room_members.status AS status").
		Joins("JOIN rooms ON rooms.id = room_members.room_id").
		Where("room_members.user_id = ?", userID).
		Order("room_members.created_at DESC, rooms.id DESC").
		Scan(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list rooms of user %d: %w", userID, err)
	}
	return rooms, nil
}

// UpdateStatus 实现按复合条件更新单行状态。
// RowsAffected == 0 说明目标记录不存在（成员资格被外部移除或从未建立），
// 映射为 ErrMembershipNotFound 供上层触发“你已不是成员”的恢复流程。
func (r *GormMembershipRepository) UpdateStatus(ctx context.Context, roomID, userID uint, status domain.Status) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Membership{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("gorm: update membership status (room: %d, user: %d): %w", roomID, userID, result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrMembershipNotFound
	}
	return nil
}
