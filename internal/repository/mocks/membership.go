package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jaanque/stanza/internal/domain"
)

// MembershipRepository 是 repository.MembershipRepository 的 testify Mock 实现。
type MembershipRepository struct {
	mock.Mock
}

func (m *MembershipRepository) Find(ctx context.Context, roomID, userID uint) (*domain.Membership, error) {
	args := m.Called(ctx, roomID, userID)
	var membership *domain.Membership
	if args.Get(0) != nil {
		membership = args.Get(0).(*domain.Membership)
	}
	return membership, args.Error(1)
}

func (m *MembershipRepository) Save(ctx context.Context, membership *domain.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MembershipRepository) ListByRoom(ctx context.Context, roomID uint) ([]domain.RoomMember, error) {
	args := m.Called(ctx, roomID)
	var members []domain.RoomMember
	if args.Get(0) != nil {
		members = args.Get(0).([]domain.RoomMember)
	}
	return members, args.Error(1)
}

func (m *MembershipRepository) ListByUser(ctx context.Context, userID uint) ([]domain.JoinedRoom, error) {
	args := m.Called(ctx, userID)
	var rooms []domain.JoinedRoom
	if args.Get(0) != nil {
		rooms = args.Get(0).([]domain.JoinedRoom)
	}
	return rooms, args.Error(1)
}

func (m *MembershipRepository) UpdateStatus(ctx context.Context, roomID, userID uint, status domain.Status) error {
	args := m.Called(ctx, roomID, userID, status)
	return args.Error(0)
}
