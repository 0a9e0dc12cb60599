package repository

import (
	"context"

	"github.com/jaanque/stanza/internal/domain"
)

// IdentityStore 定义了设备会话身份的键值存储。
// 必须跨进程重启持久化；令牌不存在意味着“无会话”，
// 调用方应把请求引导到注册流程。
type IdentityStore interface {
	// Get 根据设备令牌解析身份。令牌不存在时返回 ErrIdentityNotFound。
	Get(ctx context.Context, token string) (*domain.Identity, error)

	// Set 写入或覆盖令牌对应的身份。
	Set(ctx context.Context, token string, identity domain.Identity) error

	// Remove 删除令牌（注销会话）。删除不存在的令牌不报错。
	Remove(ctx context.Context, token string) error
}
