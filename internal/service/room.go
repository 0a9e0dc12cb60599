package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jaanque/stanza/internal/domain"
	"github.com/jaanque/stanza/internal/repository"
)

// RoomService 负责房间目录：创建房间、按共享码解析房间、以及幂等加入。
type RoomService struct {
	roomRepo   repository.RoomRepository
	memberRepo repository.MembershipRepository
	allocator  *CodeAllocator
	notifier   PresenceNotifier
}

// NewRoomService 创建 RoomService 实例。
func NewRoomService(roomRepo repository.RoomRepository, memberRepo repository.MembershipRepository, allocator *CodeAllocator, notifier PresenceNotifier) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	if memberRepo == nil {
		panic("MembershipRepository cannot be nil for RoomService")
	}
	if allocator == nil {
		panic("CodeAllocator cannot be nil for RoomService")
	}
	if notifier == nil {
		panic("PresenceNotifier cannot be nil for RoomService")
	}
	return &RoomService{
		roomRepo:   roomRepo,
		memberRepo: memberRepo,
		allocator:  allocator,
		notifier:   notifier,
	}
}

// CreateRoom 创建一个新房间，并把创建者以初始状态 outside 写入成员账本。
// 分配器的预检查无法消除检查-插入竞态，所以插入时的唯一约束冲突
// 按普通的可重试碰撞处理：换一个码重试。预检丢弃和插入冲突共用
// 同一份 MaxAttempts 预算，每轮恰好消耗一次生成加一次预检。
func (s *RoomService) CreateRoom(ctx context.Context, creatorID uint, name string) (*domain.Room, error) {
	logCtx := logrus.WithField("creator_id", creatorID)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidRoomName
	}

	var room *domain.Room
	maxAttempts := s.allocator.Config().MaxAttempts
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		code, err := s.allocator.candidate(ctx)
		if err != nil {
			if errors.Is(err, errCodeTaken) {
				logCtx.Warnf("Candidate room code already taken, regenerating (attempt %d)", attempt)
				continue
			}
			logCtx.WithError(err).Error("Failed to produce room code candidate")
			return nil, ErrInternalServer
		}

		candidate := &domain.Room{
			CreatorID: creatorID,
			Name:      name,
			Code:      code,
		}
		err = s.roomRepo.Save(ctx, candidate)
		if err == nil {
			room = candidate
			break
		}
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// 预检查之后、插入之前被并发创建抢占了同一个码，换码重试
			logCtx.WithField("code", code).Warnf("Room code collided on insert, reallocating (attempt %d)", attempt)
			continue
		}
		logCtx.WithError(err).Error("Failed to save new room")
		return nil, ErrInternalServer
	}
	if room == nil {
		logCtx.Errorf("Failed to place a unique room code within %d attempts, giving up", maxAttempts)
		return nil, ErrCodeAllocationExhausted
	}
	logCtx = logCtx.WithFields(logrus.Fields{"room_id": room.ID, "code": room.Code})

	// 创建者自身的成员记录，初始状态 outside
	membership := &domain.Membership{
		RoomID: room.ID,
		UserID: creatorID,
		Status: domain.StatusOutside,
	}
	if err := s.memberRepo.Save(ctx, membership); err != nil && !errors.Is(err, repository.ErrDuplicateEntry) {
		logCtx.WithError(err).Error("Failed to save creator membership")
		return nil, ErrInternalServer
	}

	s.notifyChanged(ctx, room.ID)
	logCtx.Info("Room created successfully")
	return room, nil
}

// JoinRoom 通过共享码加入房间。对调用方幂等：
// 已有成员记录时原样返回，不报错也不产生重复记录。
func (s *RoomService) JoinRoom(ctx context.Context, userID uint, code string) (*domain.Room, *domain.Membership, error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "code": code})

	code = NormalizeCode(code)
	if err := s.validateCode(code); err != nil {
		return nil, nil, err
	}

	room, err := s.roomRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Failed to find room by code: not found")
			return nil, nil, ErrRoomNotFound
		}
		// 查询失败是瞬态错误，不能折叠成“房间不存在”
		logCtx.WithError(err).Error("Failed to find room by code: repository error")
		return nil, nil, ErrInternalServer
	}
	logCtx = logCtx.WithField("room_id", room.ID)

	existing, err := s.memberRepo.Find(ctx, room.ID, userID)
	if err == nil {
		logCtx.Debug("User already a member, join is a no-op")
		return room, existing, nil
	}
	if !errors.Is(err, repository.ErrMembershipNotFound) {
		logCtx.WithError(err).Error("Failed to check existing membership")
		return nil, nil, ErrInternalServer
	}

	membership := &domain.Membership{
		RoomID: room.ID,
		UserID: userID,
		Status: domain.StatusOutside,
	}
	err = s.memberRepo.Save(ctx, membership)
	if errors.Is(err, repository.ErrDuplicateEntry) {
		// 并发加入：另一条请求抢先插入了同一条记录，读回已有的那条
		existing, err = s.memberRepo.Find(ctx, room.ID, userID)
		if err != nil {
			logCtx.WithError(err).Error("Failed to re-read membership after duplicate insert")
			return nil, nil, ErrInternalServer
		}
		return room, existing, nil
	}
	if err != nil {
		logCtx.WithError(err).Error("Failed to save membership")
		return nil, nil, ErrInternalServer
	}

	s.notifyChanged(ctx, room.ID)
	logCtx.Info("User joined room successfully")
	return room, membership, nil
}

// ListRoomsForUser 返回调用者加入过的全部房间及自己在每间的状态，
// 最近加入的排在最前。供首页的房间列表使用。
func (s *RoomService) ListRoomsForUser(ctx context.Context, userID uint) ([]domain.JoinedRoom, error) {
	rooms, err := s.memberRepo.ListByUser(ctx, userID)
	if err != nil {
		logrus.WithField("user_id", userID).WithError(err).Error("Failed to list rooms for user")
		return nil, ErrInternalServer
	}
	return rooms, nil
}

// FindRoomByID 供房间视图打开前校验房间存在，返回业务错误供 Handler 判断。
func (s *RoomService) FindRoomByID(ctx context.Context, roomID uint) (*domain.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithField("room_id", roomID).WithError(err).Error("FindRoomByID: repository error")
		return nil, ErrInternalServer
	}
	return room, nil
}

// validateCode 在任何网络调用之前检查共享码的长度和字符集
func (s *RoomService) validateCode(code string) error {
	cfg := s.allocator.Config()
	if len(code) != cfg.Length {
		return ErrInvalidRoomCode
	}
	for _, r := range code {
		if !strings.ContainsRune(cfg.Alphabet, r) {
			return ErrInvalidRoomCode
		}
	}
	return nil
}

// notifyChanged 尽力而为地触发变更通知；失败记录日志但不影响写入结果，
// 订阅者会因周期重同步最终收敛。
func (s *RoomService) notifyChanged(ctx context.Context, roomID uint) {
	if err := s.notifier.NotifyRoomChanged(ctx, roomID); err != nil {
		logrus.WithField("room_id", roomID).WithError(err).
			Warn("Failed to enqueue presence change notification")
	}
}
