package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/jaanque/stanza/internal/repository"
	"github.com/jaanque/stanza/internal/tasks"
)

// ActiveRoomLister 提供当前有观察者的房间列表。由 Hub 实现。
type ActiveRoomLister interface {
	ActiveRooms() []uint
}

// PresenceNotifyHandler 处理变更通知任务：把信号发布到房间的变更通道。
// 返回错误时 Asynq 会按任务的重试策略重试。
type PresenceNotifyHandler struct {
	feed repository.ChangeFeed
}

// NewPresenceNotifyHandler 创建 PresenceNotifyHandler 实例
func NewPresenceNotifyHandler(feed repository.ChangeFeed) *PresenceNotifyHandler {
	if feed == nil {
		panic("ChangeFeed cannot be nil for PresenceNotifyHandler")
	}
	return &PresenceNotifyHandler{feed: feed}
}

// ProcessTask 实现 asynq.Handler
func (h *PresenceNotifyHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload tasks.PresenceNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// 载荷坏了重试也没用，直接跳过
		return fmt.Errorf("unmarshal presence notify payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.feed.Publish(ctx, payload.RoomID); err != nil {
		return fmt.Errorf("publish change signal for room %d: %w", payload.RoomID, err)
	}
	logrus.WithField("room_id", payload.RoomID).Debug("Change signal published")
	return nil
}

// PresenceResyncHandler 处理周期重同步任务：为所有有观察者的房间重发信号。
// 这是系统收敛性的兜底：即使 Pub/Sub 丢掉了全部事件，
// 观察者也会在下一个周期拿到与账本一致的快照。
type PresenceResyncHandler struct {
	feed  repository.ChangeFeed
	rooms ActiveRoomLister
}

// NewPresenceResyncHandler 创建 PresenceResyncHandler 实例
func NewPresenceResyncHandler(feed repository.ChangeFeed, rooms ActiveRoomLister) *PresenceResyncHandler {
	if feed == nil {
		panic("ChangeFeed cannot be nil for PresenceResyncHandler")
	}
	if rooms == nil {
		panic("ActiveRoomLister cannot be nil for PresenceResyncHandler")
	}
	return &PresenceResyncHandler{feed: feed, rooms: rooms}
}

// ProcessTask 实现 asynq.Handler
func (h *PresenceResyncHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	roomIDs := h.rooms.ActiveRooms()
	var failed int
	for _, roomID := range roomIDs {
		if err := h.feed.Publish(ctx, roomID); err != nil {
			logrus.WithField("room_id", roomID).WithError(err).Warn("Resync publish failed")
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("resync failed for %d of %d active rooms", failed, len(roomIDs))
	}
	logrus.WithField("room_count", len(roomIDs)).Debug("Periodic presence resync completed")
	return nil
}
