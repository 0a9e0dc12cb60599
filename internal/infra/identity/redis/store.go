package redisidentity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/jaanque/stanza/internal/domain"
	"github.com/jaanque/stanza/internal/repository"
)

// RedisIdentityStore 是 IdentityStore 接口的 Redis 实现。
// 设备令牌到身份的映射不设过期时间：会话必须跨进程重启存活，
// 注销只能通过显式 Remove。
type RedisIdentityStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdentityStore 创建 RedisIdentityStore 实例
func NewRedisIdentityStore(client *redis.Client, keyPrefix string) *RedisIdentityStore {
	if client == nil {
		panic("redis client cannot be nil for RedisIdentityStore")
	}
	if keyPrefix == "" {
		keyPrefix = "stz:"
	}
	return &RedisIdentityStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisIdentityStore) tokenKey(token string) string {
	return fmt.Sprintf("%sidentity:%s", s.keyPrefix, token)
}

// Get 根据设备令牌解析身份
func (s *RedisIdentityStore) Get(ctx context.Context, token string) (*domain.Identity, error) {
	data, err := s.client.Get(ctx, s.tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("redis: get identity: %w", err)
	}
	var identity domain.Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, fmt.Errorf("redis: unmarshal identity: %w", err)
	}
	return &identity, nil
}

// Set 写入令牌对应的身份
func (s *RedisIdentityStore) Set(ctx context.Context, token string, identity domain.Identity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("redis: marshal identity: %w", err)
	}
	if err := s.client.Set(ctx, s.tokenKey(token), data, 0).Err(); err != nil {
		return fmt.Errorf("redis: set identity: %w", err)
	}
	return nil
}

// Remove 删除令牌。键不存在时 DEL 返回 0，不视为错误。
func (s *RedisIdentityStore) Remove(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.tokenKey(token)).Err(); err != nil {
		return fmt.Errorf("redis: remove identity: %w", err)
	}
	return nil
}
