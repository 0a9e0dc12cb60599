package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jaanque/stanza/internal/domain"
	"github.com/jaanque/stanza/internal/repository/mocks"
)

func TestRegister_Success(t *testing.T) {
	userRepo := new(mocks.UserRepository)
	identity := new(mocks.IdentityStore)
	svc := NewRegistrationService(userRepo, identity)
	svc.newToken = func() string { return "token-abc" }

	userRepo.On("Save", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Name == "Alice"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.User).ID = 7
	}).Return(nil).Once()
	identity.On("Set", mock.Anything, "token-abc", domain.Identity{UserID: 7, Name: "Alice"}).Return(nil).Once()

	user, token, err := svc.Register(context.Background(), " Alice ")
	require.NoError(t, err)
	assert.Equal(t, uint(7), user.ID)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "token-abc", token)
	identity.AssertExpectations(t)
}

func TestRegister_EmptyName(t *testing.T) {
	userRepo := new(mocks.UserRepository)
	identity := new(mocks.IdentityStore)
	svc := NewRegistrationService(userRepo, identity)

	_, _, err := svc.Register(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidUserName)
	userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestLogout_RemovesIdentity(t *testing.T) {
	userRepo := new(mocks.UserRepository)
	identity := new(mocks.IdentityStore)
	svc := NewRegistrationService(userRepo, identity)

	identity.On("Remove", mock.Anything, "token-abc").Return(nil).Once()

	err := svc.Logout(context.Background(), "token-abc")
	require.NoError(t, err)
	identity.AssertExpectations(t)
}

func TestLogout_EmptyToken(t *testing.T) {
	userRepo := new(mocks.UserRepository)
	identity := new(mocks.IdentityStore)
	svc := NewRegistrationService(userRepo, identity)

	err := svc.Logout(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrInvalidDeviceToken)
	identity.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestLogout_StoreFailure(t *testing.T) {
	userRepo := new(mocks.UserRepository)
	identity := new(mocks.IdentityStore)
	svc := NewRegistrationService(userRepo, identity)

	identity.On("Remove", mock.Anything, "token-abc").Return(errors.New("connection reset")).Once()

	err := svc.Logout(context.Background(), "token-abc")
	assert.ErrorIs(t, err, ErrInternalServer)
}

func TestRegister_IdentityStoreFailure(t *testing.T) {
	userRepo := new(mocks.UserRepository)
	identity := new(mocks.IdentityStore)
	svc := NewRegistrationService(userRepo, identity)

	userRepo.On("Save", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil).Once()
	identity.On("Set", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("domain.Identity")).
		Return(errors.New("connection reset")).Once()

	_, _, err := svc.Register(context.Background(), "Alice")
	assert.ErrorIs(t, err, ErrInternalServer)
}
