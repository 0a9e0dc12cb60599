package tasks

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// Notifier 通过 Asynq 任务队列触发变更通知，实现 service.PresenceNotifier。
type Notifier struct {
	client *asynq.Client
}

// NewNotifier 创建 Notifier 实例
func NewNotifier(client *asynq.Client) *Notifier {
	if client == nil {
		panic("asynq client cannot be nil for Notifier")
	}
	return &Notifier{client: client}
}

// NotifyRoomChanged 入队一个变更通知任务。
// 实际的信号投递由 Worker 执行并按需重试。
func (n *Notifier) NotifyRoomChanged(ctx context.Context, roomID uint) error {
	task, err := NewPresenceNotifyTask(roomID)
	if err != nil {
		return fmt.Errorf("build presence notify task: %w", err)
	}
	_, err = n.client.EnqueueContext(ctx, task, asynq.Queue("critical"), asynq.MaxRetry(5))
	if err != nil {
		return fmt.Errorf("enqueue presence notify task for room %d: %w", roomID, err)
	}
	return nil
}
