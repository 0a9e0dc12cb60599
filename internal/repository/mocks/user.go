package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jaanque/stanza/internal/domain"
)

// UserRepository 是 repository.UserRepository 的 testify Mock 实现。
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	args := m.Called(ctx, id)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *UserRepository) Save(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
