package service

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/jaanque/stanza/internal/domain"
	"github.com/jaanque/stanza/internal/repository"
)

// Snapshot 是一次对账得到的权威成员视图：
// 观察者自己的条目排在最前，其余按展示名升序。
type Snapshot struct {
	Members []domain.RoomMember `json:"members"`
	Self    domain.Status       `json:"self_status"`
}

type toggleKey struct {
	roomID uint
	userID uint
}

// PresenceService 承担两件事：
// 对账（Reconcile）——把变更信号或手动刷新变成一次全量重查，这是系统的
// 核心一致性机制：信号载荷不可信，永远重建全部真相，绝不增量合并；
// 状态切换（Toggle）——翻转调用者自己的状态，不做乐观本地更新，
// 等变更通道把结果带回来，保持单一事实来源。
type PresenceService struct {
	memberRepo repository.MembershipRepository
	notifier   PresenceNotifier

	// 在途切换的去重集合：同一 (房间, 用户) 的切换在途时拒绝新请求
	mu       sync.Mutex
	inFlight map[toggleKey]struct{}
}

// NewPresenceService 创建 PresenceService 实例。
func NewPresenceService(memberRepo repository.MembershipRepository, notifier PresenceNotifier) *PresenceService {
	if memberRepo == nil {
		panic("MembershipRepository cannot be nil for PresenceService")
	}
	if notifier == nil {
		panic("PresenceNotifier cannot be nil for PresenceService")
	}
	return &PresenceService{
		memberRepo: memberRepo,
		notifier:   notifier,
		inFlight:   make(map[toggleKey]struct{}),
	}
}

// Reconcile 对房间做一次全量对账并以 viewerID 的视角返回快照。
// 观察者不在结果中时返回 ErrMembershipLost，上层据此把用户引导出房间视图。
func (s *PresenceService) Reconcile(ctx context.Context, roomID, viewerID uint) (*Snapshot, error) {
	members, err := s.ListRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	var self *domain.RoomMember
	for i := range members {
		if members[i].UserID == viewerID {
			self = &members[i]
			break
		}
	}
	if self == nil {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "viewer_id": viewerID}).
			Warn("Viewer absent from reconciled membership")
		return nil, ErrMembershipLost
	}

	return &Snapshot{
		Members: domain.OrderForViewer(members, viewerID),
		Self:    self.Status,
	}, nil
}

// ListRoom 返回未个性化排序的成员列表（按展示名升序）。
// Hub 广播时对同一份列表按每个观察者分别重排，避免按客户端重复查库。
func (s *PresenceService) ListRoom(ctx context.Context, roomID uint) ([]domain.RoomMember, error) {
	members, err := s.memberRepo.ListByRoom(ctx, roomID)
	if err != nil {
		logrus.WithField("room_id", roomID).WithError(err).Error("Failed to list room members")
		return nil, ErrInternalServer
	}
	return members, nil
}

// Toggle 翻转调用者自己的在场状态并返回新状态。
// 权威的当前状态从账本读出再翻转，不信任调用方携带的旧值；
// 同一 (房间, 用户) 的切换在途时直接拒绝，避免快速连点造成丢失更新。
func (s *PresenceService) Toggle(ctx context.Context, roomID, userID uint) (domain.Status, error) {
	key := toggleKey{roomID: roomID, userID: userID}
	s.mu.Lock()
	if _, busy := s.inFlight[key]; busy {
		s.mu.Unlock()
		return "", ErrToggleInFlight
	}
	s.inFlight[key] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, key)
		s.mu.Unlock()
	}()

	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "user_id": userID})

	membership, err := s.memberRepo.Find(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			logCtx.Warn("Toggle requested without a membership")
			return "", ErrNotAMember
		}
		logCtx.WithError(err).Error("Failed to read membership before toggle")
		return "", ErrInternalServer
	}

	next := membership.Status.Toggled()
	err = s.memberRepo.UpdateStatus(ctx, roomID, userID, next)
	if err != nil {
		if errors.Is(err, repository.ErrMembershipNotFound) {
			// 读到更新之间成员记录被外部移除
			logCtx.Warn("Membership disappeared between read and update")
			return "", ErrNotAMember
		}
		logCtx.WithError(err).Error("Failed to update membership status")
		return "", ErrInternalServer
	}

	if err := s.notifier.NotifyRoomChanged(ctx, roomID); err != nil {
		logCtx.WithError(err).Warn("Failed to enqueue presence change notification")
	}
	logCtx.WithField("status", next).Info("Status toggled")
	return next, nil
}
