package domain

import "time"

// User 表示一个已注册的设备身份。
// 在本子系统中用户创建后不可变，也没有密码等凭证（认证不在范围内）。
type User struct {
	ID        uint      `gorm:"primaryKey"`                 // 用户唯一标识符 (主键)
	Name      string    `gorm:"type:varchar(191);not null"` // 展示名称，用于房间成员列表排序
	CreatedAt time.Time `gorm:"autoCreateTime"`             // 用户记录创建时间 (GORM 自动填充)
	UpdatedAt time.Time `gorm:"autoUpdateTime"`             // 用户记录最后更新时间 (GORM 自动填充)
}
