package repository

import "errors"

// 通用的存储库错误。
// “未找到”是正常的业务结果，必须与底层服务不可用（其他任何错误）区分开，
// 后者由各实现包装原始错误向上传播，绝不折叠成 ErrNotFound。
var (
	// ErrNotFound 表示请求的记录未找到
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry 表示尝试插入的数据违反了唯一约束
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)

// 特定资源的错误 (基于通用错误创建，便于 errors.Is 判断)
var (
	ErrUserNotFound       = ErrNotFound
	ErrRoomNotFound       = ErrNotFound
	ErrMembershipNotFound = ErrNotFound
	ErrIdentityNotFound   = ErrNotFound
)
