package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jaanque/stanza/internal/domain"
	"github.com/jaanque/stanza/internal/repository"
	"github.com/jaanque/stanza/internal/repository/mocks"
	"github.com/jaanque/stanza/internal/service"
)

type stubNotifier struct {
	mock.Mock
}

func (s *stubNotifier) NotifyRoomChanged(ctx context.Context, roomID uint) error {
	args := s.Called(ctx, roomID)
	return args.Error(0)
}

func newPresenceServiceForTest(memberRepo *mocks.MembershipRepository) (*service.PresenceService, *stubNotifier) {
	notifier := new(stubNotifier)
	notifier.On("NotifyRoomChanged", mock.Anything, mock.AnythingOfType("uint")).Return(nil).Maybe()
	return service.NewPresenceService(memberRepo, notifier), notifier
}

func TestReconcile_ViewerFirstThenNameOrder(t *testing.T) {
	memberRepo := new(mocks.MembershipRepository)
	svc, _ := newPresenceServiceForTest(memberRepo)

	// 存储层按展示名升序返回
	members := []domain.RoomMember{
		{UserID: 3, Name: "Alice", Status: domain.StatusInside},
		{UserID: 1, Name: "Bob", Status: domain.StatusOutside},
		{UserID: 2, Name: "Carol", Status: domain.StatusInside},
	}
	memberRepo.On("ListByRoom", mock.Anything, uint(42)).Return(members, nil).Once()

	snapshot, err := svc.Reconcile(context.Background(), 42, 2)
	require.NoError(t, err)
	require.Len(t, snapshot.Members, 3)
	// 观察者自己排最前，其余保持名字升序
	assert.Equal(t, uint(2), snapshot.Members[0].UserID)
	assert.Equal(t, "Alice", snapshot.Members[1].Name)
	assert.Equal(t, "Bob", snapshot.Members[2].Name)
	assert.Equal(t, domain.StatusInside, snapshot.Self)
}

func TestReconcile_ViewerAbsent(t *testing.T) {
	memberRepo := new(mocks.MembershipRepository)
	svc, _ := newPresenceServiceForTest(memberRepo)

	members := []domain.RoomMember{
		{UserID: 3, Name: "Alice", Status: domain.StatusInside},
	}
	memberRepo.On("ListByRoom", mock.Anything, uint(42)).Return(members, nil).Once()

	_, err := svc.Reconcile(context.Background(), 42, 99)
	assert.ErrorIs(t, err, service.ErrMembershipLost)
}

func TestReconcile_ListFailureIsTransient(t *testing.T) {
	memberRepo := new(mocks.MembershipRepository)
	svc, _ := newPresenceServiceForTest(memberRepo)

	memberRepo.On("ListByRoom", mock.Anything, uint(42)).Return(nil, errors.New("connection reset")).Once()

	_, err := svc.Reconcile(context.Background(), 42, 2)
	assert.ErrorIs(t, err, service.ErrInternalServer)
	assert.NotErrorIs(t, err, service.ErrMembershipLost)
}

func TestToggle_RoundTrip(t *testing.T) {
	memberRepo := new(mocks.MembershipRepository)
	svc, notifier := newPresenceServiceForTest(memberRepo)

	memberRepo.On("Find", mock.Anything, uint(42), uint(7)).
		Return(&domain.Membership{RoomID: 42, UserID: 7, Status: domain.StatusOutside}, nil).Once()
	memberRepo.On("UpdateStatus", mock.Anything, uint(42), uint(7), domain.StatusInside).Return(nil).Once()

	status, err := svc.Toggle(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInside, status)

	// 再切一次回到 outside
	memberRepo.On("Find", mock.Anything, uint(42), uint(7)).
		Return(&domain.Membership{RoomID: 42, UserID: 7, Status: domain.StatusInside}, nil).Once()
	memberRepo.On("UpdateStatus", mock.Anything, uint(42), uint(7), domain.StatusOutside).Return(nil).Once()

	status, err = svc.Toggle(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOutside, status)
	notifier.AssertNumberOfCalls(t, "NotifyRoomChanged", 2)
}

func TestToggle_NotAMember(t *testing.T) {
	memberRepo := new(mocks.MembershipRepository)
	svc, notifier := newPresenceServiceForTest(memberRepo)

	memberRepo.On("Find", mock.Anything, uint(42), uint(7)).
		Return(nil, repository.ErrMembershipNotFound).Once()

	_, err := svc.Toggle(context.Background(), 42, 7)
	assert.ErrorIs(t, err, service.ErrNotAMember)
	memberRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "NotifyRoomChanged", mock.Anything, mock.Anything)
}

func TestToggle_MembershipRemovedBetweenReadAndUpdate(t *testing.T) {
	memberRepo := new(mocks.MembershipRepository)
	svc, _ := newPresenceServiceForTest(memberRepo)

	memberRepo.On("Find", mock.Anything, uint(42), uint(7)).
		Return(&domain.Membership{RoomID: 42, UserID: 7, Status: domain.StatusOutside}, nil).Once()
	// 更新落空：成员记录在读到更新之间被外部移除
	memberRepo.On("UpdateStatus", mock.Anything, uint(42), uint(7), domain.StatusInside).
		Return(repository.ErrMembershipNotFound).Once()

	_, err := svc.Toggle(context.Background(), 42, 7)
	assert.ErrorIs(t, err, service.ErrNotAMember)
}

func TestToggle_RejectsWhileInFlight(t *testing.T) {
	memberRepo := new(mocks.MembershipRepository)
	svc, _ := newPresenceServiceForTest(memberRepo)

	entered := make(chan struct{})
	release := make(chan struct{})
	memberRepo.On("Find", mock.Anything, uint(42), uint(7)).
		Return(&domain.Membership{RoomID: 42, UserID: 7, Status: domain.StatusOutside}, nil).Once()
	memberRepo.On("UpdateStatus", mock.Anything, uint(42), uint(7), domain.StatusInside).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).Return(nil).Once()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.Toggle(context.Background(), 42, 7)
		assert.NoError(t, err)
	}()

	<-entered
	// 第一次切换还在途，第二次必须被拒绝而不是排队
	_, err := svc.Toggle(context.Background(), 42, 7)
	assert.ErrorIs(t, err, service.ErrToggleInFlight)

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first toggle did not finish")
	}

	// 在途标记释放后允许新的切换
	memberRepo.On("Find", mock.Anything, uint(42), uint(7)).
		Return(&domain.Membership{RoomID: 42, UserID: 7, Status: domain.StatusInside}, nil).Once()
	memberRepo.On("UpdateStatus", mock.Anything, uint(42), uint(7), domain.StatusOutside).Return(nil).Once()
	status, err := svc.Toggle(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOutside, status)
}
