package service

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrRoomNotFound = errors.New("room not found")

	// 校验类错误：在任何网络调用之前拒绝，不自动重试
	ErrInvalidUserName    = errors.New("display name must not be empty")
	ErrInvalidDeviceToken = errors.New("device token must not be empty")
	ErrInvalidRoomName = errors.New("room name must not be empty")
	ErrInvalidRoomCode = errors.New("room code has invalid length or characters")

	// ErrCodeAllocationExhausted 表示重试预算耗尽仍未分配到唯一共享码。
	// 对当前创建操作是终结性的，向用户暴露显式的重试入口，不无限自动重试。
	ErrCodeAllocationExhausted = errors.New("failed to allocate a unique room code after several attempts")

	// ErrNotAMember 表示操作假定的成员记录不存在（被外部移除或从未建立）
	ErrNotAMember = errors.New("not a member of this room")
	// ErrMembershipLost 表示观察者在对账结果中缺席，应把用户引导出房间视图
	ErrMembershipLost = errors.New("membership no longer exists")

	// ErrToggleInFlight 表示同一 (房间, 用户) 已有一次状态切换在途。
	// 快速连点时拒绝而不是交错执行，避免丢失更新。
	ErrToggleInFlight = errors.New("status toggle already in flight")

	ErrInternalServer = errors.New("internal server error")
)
