package service

import "context"

// PresenceNotifier 在成员数据发生写入后触发变更通知。
// 通知是尽力而为的：投递失败只会让在场数据暂时过期（由周期重同步兜底），
// 因此调用方记录日志后继续，不让写入路径失败。
type PresenceNotifier interface {
	NotifyRoomChanged(ctx context.Context, roomID uint) error
}
