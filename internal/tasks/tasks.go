package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 定义任务类型常量
const (
	// TypePresenceNotify 把某房间的变更信号投递到变更通道。
	// 投递走任务队列而不是写入路径内联，Redis 抖动时可以重试。
	TypePresenceNotify = "presence:notify"

	// TypePresenceResync 周期性地为所有有观察者的房间重发变更信号。
	// 变更通道不保证投递，周期重同步保证即使信号全部丢失，
	// 观察者的快照也会最终收敛到账本的真实状态。
	TypePresenceResync = "presence:resync"
)

// PresenceNotifyPayload 定义了变更通知任务的数据结构
type PresenceNotifyPayload struct {
	RoomID uint `json:"room_id"`
}

// NewPresenceNotifyTask 创建一个变更通知任务
func NewPresenceNotifyTask(roomID uint) (*asynq.Task, error) {
	payload, err := json.Marshal(PresenceNotifyPayload{RoomID: roomID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePresenceNotify, payload), nil
}

// NewPresenceResyncTask 创建一个周期重同步任务（无载荷）
func NewPresenceResyncTask() *asynq.Task {
	return asynq.NewTask(TypePresenceResync, nil)
}
