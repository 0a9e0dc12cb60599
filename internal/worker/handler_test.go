package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jaanque/stanza/internal/repository/mocks"
	"github.com/jaanque/stanza/internal/tasks"
)

type staticRoomLister struct {
	rooms []uint
}

func (s *staticRoomLister) ActiveRooms() []uint { return s.rooms }

func TestPresenceNotifyHandler_PublishesSignal(t *testing.T) {
	feed := new(mocks.ChangeFeed)
	feed.On("Publish", mock.Anything, uint(42)).Return(nil).Once()

	handler := NewPresenceNotifyHandler(feed)
	task, err := tasks.NewPresenceNotifyTask(42)
	require.NoError(t, err)

	err = handler.ProcessTask(context.Background(), task)
	assert.NoError(t, err)
	feed.AssertExpectations(t)
}

func TestPresenceNotifyHandler_BadPayloadSkipsRetry(t *testing.T) {
	feed := new(mocks.ChangeFeed)
	handler := NewPresenceNotifyHandler(feed)

	task := asynq.NewTask(tasks.TypePresenceNotify, []byte("not json"))
	err := handler.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	feed.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestPresenceNotifyHandler_PublishFailureRetryable(t *testing.T) {
	feed := new(mocks.ChangeFeed)
	feed.On("Publish", mock.Anything, uint(42)).Return(errors.New("connection reset")).Once()

	handler := NewPresenceNotifyHandler(feed)
	task, err := tasks.NewPresenceNotifyTask(42)
	require.NoError(t, err)

	err = handler.ProcessTask(context.Background(), task)
	require.Error(t, err)
	// 瞬态发布失败必须可重试
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestPresenceResyncHandler_PublishesForActiveRooms(t *testing.T) {
	feed := new(mocks.ChangeFeed)
	feed.On("Publish", mock.Anything, uint(1)).Return(nil).Once()
	feed.On("Publish", mock.Anything, uint(2)).Return(nil).Once()

	handler := NewPresenceResyncHandler(feed, &staticRoomLister{rooms: []uint{1, 2}})
	err := handler.ProcessTask(context.Background(), tasks.NewPresenceResyncTask())
	assert.NoError(t, err)
	feed.AssertExpectations(t)
}

func TestPresenceResyncHandler_ReportsPartialFailure(t *testing.T) {
	feed := new(mocks.ChangeFeed)
	feed.On("Publish", mock.Anything, uint(1)).Return(errors.New("connection reset")).Once()
	feed.On("Publish", mock.Anything, uint(2)).Return(nil).Once()

	handler := NewPresenceResyncHandler(feed, &staticRoomLister{rooms: []uint{1, 2}})
	err := handler.ProcessTask(context.Background(), tasks.NewPresenceResyncTask())
	assert.Error(t, err)
}
