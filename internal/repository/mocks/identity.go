package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jaanque/stanza/internal/domain"
)

// IdentityStore 是 repository.IdentityStore 的 testify Mock 实现。
type IdentityStore struct {
	mock.Mock
}

func (m *IdentityStore) Get(ctx context.Context, token string) (*domain.Identity, error) {
	args := m.Called(ctx, token)
	var identity *domain.Identity
	if args.Get(0) != nil {
		identity = args.Get(0).(*domain.Identity)
	}
	return identity, args.Error(1)
}

func (m *IdentityStore) Set(ctx context.Context, token string, identity domain.Identity) error {
	args := m.Called(ctx, token, identity)
	return args.Error(0)
}

func (m *IdentityStore) Remove(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}
