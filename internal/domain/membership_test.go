package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusToggled(t *testing.T) {
	assert.Equal(t, StatusOutside, StatusInside.Toggled())
	assert.Equal(t, StatusInside, StatusOutside.Toggled())
	// 两次切换回到原状态
	assert.Equal(t, StatusInside, StatusInside.Toggled().Toggled())
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusInside.Valid())
	assert.True(t, StatusOutside.Valid())
	assert.False(t, Status("").Valid())
	assert.False(t, Status("away").Valid())
}

func TestOrderForViewer(t *testing.T) {
	members := []RoomMember{
		{UserID: 3, Name: "Alice"},
		{UserID: 1, Name: "Bob"},
		{UserID: 2, Name: "Carol"},
	}

	ordered := OrderForViewer(members, 1)
	assert.Equal(t, []RoomMember{
		{UserID: 1, Name: "Bob"},
		{UserID: 3, Name: "Alice"},
		{UserID: 2, Name: "Carol"},
	}, ordered)

	// 观察者不在列表中时顺序保持不变
	unchanged := OrderForViewer(members, 99)
	assert.Equal(t, members, unchanged)

	// 不修改输入切片
	assert.Equal(t, uint(3), members[0].UserID)

	assert.Empty(t, OrderForViewer(nil, 1))
}
