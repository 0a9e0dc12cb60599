package redisfeed

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/jaanque/stanza/internal/repository"
)

// 每条订阅的信号缓冲区大小。信号是不透明的“有变化”触发器，
// 积压时合并丢弃是安全的：消费者反正要全量重新拉取。
const signalBuffer = 16

// RedisChangeFeed 是 ChangeFeed 接口的 Redis Pub/Sub 实现。
// 每个房间一条频道；消息内容不承载任何语义，只表示“成员数据可能变了”。
type RedisChangeFeed struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisChangeFeed 创建 RedisChangeFeed 实例
func NewRedisChangeFeed(client *redis.Client, keyPrefix string) *RedisChangeFeed {
	if client == nil {
		panic("redis client cannot be nil for RedisChangeFeed")
	}
	if keyPrefix == "" {
		keyPrefix = "stz:"
	}
	return &RedisChangeFeed{client: client, keyPrefix: keyPrefix}
}

func (f *RedisChangeFeed) roomChannel(roomID uint) string {
	return fmt.Sprintf("%sroom:%d:members", f.keyPrefix, roomID)
}

// Publish 向房间频道投递一个变更信号
func (f *RedisChangeFeed) Publish(ctx context.Context, roomID uint) error {
	err := f.client.Publish(ctx, f.roomChannel(roomID), "changed").Err()
	if err != nil {
		return fmt.Errorf("redis: publish change signal for room %d: %w", roomID, err)
	}
	return nil
}

// Subscribe 打开房间频道的订阅
func (f *RedisChangeFeed) Subscribe(ctx context.Context, roomID uint) (repository.Subscription, error) {
	pubsub := f.client.Subscribe(ctx, f.roomChannel(roomID))
	// 等待订阅确认，确保返回时频道已经建立
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe to room %d: %w", roomID, err)
	}

	return newSubscription(roomID, pubsub.Channel(), pubsub.Close), nil
}

// redisSubscription 把 Redis Pub/Sub 消息泵送为不透明信号。
// 只依赖消息通道和一个关闭函数，不直接持有 PubSub 对象。
type redisSubscription struct {
	roomID    uint
	msgs      <-chan *redis.Message
	closeFn   func() error
	events    chan repository.Signal
	done      chan struct{}
	closeOnce sync.Once
}

func newSubscription(roomID uint, msgs <-chan *redis.Message, closeFn func() error) *redisSubscription {
	sub := &redisSubscription{
		roomID:  roomID,
		msgs:    msgs,
		closeFn: closeFn,
		events:  make(chan repository.Signal, signalBuffer),
		done:    make(chan struct{}),
	}
	go sub.pump()
	return sub
}

func (s *redisSubscription) Events() <-chan repository.Signal {
	return s.events
}

// Close 释放订阅。幂等：重复调用是空操作。
func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.closeFn()
	})
	return err
}

// pump 在自己的 goroutine 中运行，把底层消息转成信号。
// 底层通道意外关闭时投递一个降级信号而不是报错：
// 在场数据从此过期但依然可用，由消费者决定如何提示。
func (s *redisSubscription) pump() {
	defer close(s.events)
	for {
		select {
		case <-s.done:
			return
		case _, ok := <-s.msgs:
			if !ok {
				select {
				case <-s.done:
					// 主动关闭，正常退出
				default:
					logrus.WithField("room_id", s.roomID).
						Warn("Change feed channel closed unexpectedly, presence data is now stale")
					s.emit(repository.SignalDegraded)
				}
				return
			}
			// 载荷不可信，一律视为“有变化”
			s.emit(repository.SignalChanged)
		}
	}
}

// emit 非阻塞投递：缓冲区满时丢弃信号，等价于把积压的触发器合并成一个
func (s *redisSubscription) emit(sig repository.Signal) {
	select {
	case s.events <- sig:
	default:
	}
}
