package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jaanque/stanza/internal/repository"
)

// ChangeFeed 是 repository.ChangeFeed 的 testify Mock 实现。
type ChangeFeed struct {
	mock.Mock
}

func (m *ChangeFeed) Subscribe(ctx context.Context, roomID uint) (repository.Subscription, error) {
	args := m.Called(ctx, roomID)
	var sub repository.Subscription
	if args.Get(0) != nil {
		sub = args.Get(0).(repository.Subscription)
	}
	return sub, args.Error(1)
}

func (m *ChangeFeed) Publish(ctx context.Context, roomID uint) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// Subscription 是 repository.Subscription 的 testify Mock 实现。
type Subscription struct {
	mock.Mock
}

func (m *Subscription) Events() <-chan repository.Signal {
	args := m.Called()
	var ch <-chan repository.Signal
	if args.Get(0) != nil {
		ch = args.Get(0).(<-chan repository.Signal)
	}
	return ch
}

func (m *Subscription) Close() error {
	args := m.Called()
	return args.Error(0)
}
