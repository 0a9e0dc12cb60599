package repository

import "context"

// Signal 是变更通知通道投递的不透明信号。
// 信号不携带任何可信的载荷：事件类型、新旧行都是尽力而为的，
// 消费者必须把每个信号当作“重新拉取全量真相”的触发器，绝不能当增量应用。
type Signal int

const (
	// SignalChanged 表示房间的成员数据“可能变了”
	SignalChanged Signal = iota
	// SignalDegraded 表示通知通道本身出了问题：数据进入过期模式，
	// 消费者应提示手动刷新，而不是让房间视图直接失败
	SignalDegraded
)

// Subscription 是一条已打开的按房间订阅。
type Subscription interface {
	// Events 返回信号通道。订阅关闭后通道被关闭。
	// 信号之间没有任何顺序保证，可能乱序、丢失或合并。
	Events() <-chan Signal

	// Close 释放订阅。消费者停止查看房间时必须恰好调用一次；
	// 重复调用是安全的空操作。
	Close() error
}

// ChangeFeed 定义了按房间的变更通知通道。
type ChangeFeed interface {
	// Subscribe 打开一条作用域为该房间成员数据的逻辑通道。
	Subscribe(ctx context.Context, roomID uint) (Subscription, error)

	// Publish 向该房间的所有订阅者投递一个“有变化”信号。
	Publish(ctx context.Context, roomID uint) error
}
