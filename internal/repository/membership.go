package repository

import (
	"context"

	"github.com/jaanque/stanza/internal/domain"
)

// MembershipRepository 定义了成员关系（成员账本）的存储和检索操作。
// 成员账本是唯一的可变共享资源；并发写入的正确性完全依赖存储层的
// 单行更新语义和 (room_id, user_id) 上的唯一约束，客户端不加锁。
type MembershipRepository interface {
	// Find 查找某房间中某用户的成员记录。
	// 记录不存在时返回 ErrMembershipNotFound。
	Find(ctx context.Context, roomID, userID uint) (*domain.Membership, error)

	// Save 插入一条新的成员记录。
	// (room_id, user_id) 冲突时返回 ErrDuplicateEntry，调用方据此实现幂等加入。
	Save(ctx context.Context, membership *domain.Membership) error

	// ListByRoom 返回房间的全部成员及其展示名，按展示名升序排列。
	// 观察者优先的排序由上层按视角完成。
	ListByRoom(ctx context.Context, roomID uint) ([]domain.RoomMember, error)

	// ListByUser 返回某用户加入过的全部房间及其在每间的状态，
	// 按加入时间降序排列（最近加入的在前）。
	ListByUser(ctx context.Context, userID uint) ([]domain.JoinedRoom, error)

	// UpdateStatus 更新某成员的在场状态（只触达一行）。
	// 目标记录不存在时返回 ErrMembershipNotFound，表示成员资格已丢失。
	UpdateStatus(ctx context.Context, roomID, userID uint, status domain.Status) error
}
