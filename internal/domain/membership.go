package domain

import "time"

// Status 表示成员的在场状态，只有 inside / outside 两个取值。
type Status string

const (
	StatusInside  Status = "inside"  // 成员在房间“里面”
	StatusOutside Status = "outside" // 成员在房间“外面”，也是加入时的初始状态
)

// Valid 检查状态是否为两个合法取值之一。
func (s Status) Valid() bool {
	return s == StatusInside || s == StatusOutside
}

// Toggled 返回相反的状态。唯一的状态迁移就是用户主动切换。
func (s Status) Toggled() Status {
	if s == StatusInside {
		return StatusOutside
	}
	return StatusInside
}

// Membership 表示某用户与某房间之间的成员关系。
// (RoomID, UserID) 构成复合主键，由存储层保证一对 (房间, 用户) 至多一条记录。
// 离开房间建模为状态，不删除成员记录。
type Membership struct {
	RoomID    uint      `gorm:"primaryKey;autoIncrement:false"`              // 房间 ID (复合主键之一)
	UserID    uint      `gorm:"primaryKey;autoIncrement:false"`              // 用户 ID (复合主键之一)
	Status    Status    `gorm:"type:varchar(16);not null;default:'outside'"` // 在场状态
	CreatedAt time.Time `gorm:"autoCreateTime"`                              // 加入时间 (GORM 自动填充)
	UpdatedAt time.Time `gorm:"autoUpdateTime"`                              // 最后一次状态变更时间 (GORM 自动填充)
}

// TableName 指定表名，与原有的数据模型保持一致。
func (Membership) TableName() string {
	return "room_members"
}

// RoomMember 是成员列表查询的结果行：成员信息与用户展示名的联查视图。
type RoomMember struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	Status Status `json:"status"`
}

// JoinedRoom 是“我的房间”列表查询的结果行：房间信息与调用者自己的在场状态。
type JoinedRoom struct {
	RoomID uint   `json:"room_id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Status Status `json:"status"`
}

// OrderForViewer 返回一份为指定观察者排序后的成员列表副本：
// 观察者自己的条目排在最前，其余条目保持传入的顺序（按展示名升序，
// 由存储层保证）。排序是展示约定而非正确性约束，但必须可复现。
// 若观察者不在列表中，返回的副本顺序与输入一致。
func OrderForViewer(members []RoomMember, viewerID uint) []RoomMember {
	ordered := make([]RoomMember, 0, len(members))
	rest := make([]RoomMember, 0, len(members))
	for _, m := range members {
		if m.UserID == viewerID {
			ordered = append(ordered, m)
		} else {
			rest = append(rest, m)
		}
	}
	return append(ordered, rest...)
}
