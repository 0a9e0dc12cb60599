package domain

import "time"

// Room 表示一个可共享的在场房间。
// 房间创建后不再修改，也不会被删除（删除不在本子系统范围内）。
type Room struct {
	ID        uint      `gorm:"primaryKey"`                            // 房间唯一标识符 (主键)
	CreatorID uint      `gorm:"index;not null"`                        // 创建该房间的用户 ID (外键关联到 User.ID, 添加索引)
	Name      string    `gorm:"type:varchar(191);not null"`            // 用户提供的房间名称
	Code      string    `gorm:"uniqueIndex;size:191;not null"`         // 用于加入房间的共享码，必须全局唯一且不能为空 (添加 uniqueIndex)
	CreatedAt time.Time `gorm:"autoCreateTime"`                        // 房间创建时间 (GORM 自动填充)
	UpdatedAt time.Time `gorm:"autoUpdateTime"`                        // 记录最后更新时间 (GORM 自动填充)
}
