package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jaanque/stanza/internal/repository/mocks"
)

func TestRandomCode_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := randomCode(DefaultCodeAlphabet, DefaultCodeLength)
		require.NoError(t, err)
		assert.Len(t, code, DefaultCodeLength)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(DefaultCodeAlphabet, r),
				"code %q contains character %q outside the alphabet", code, r)
		}
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "ABC123XYZ", NormalizeCode("  abc123xyz "))
	assert.Equal(t, "AAAAAAAAA", NormalizeCode("aaaaaaaaa"))
}

// sequenceGenerator 返回预设序列的生成器，用尽后报错
func sequenceGenerator(codes ...string) func(string, int) (string, error) {
	i := 0
	return func(string, int) (string, error) {
		if i >= len(codes) {
			return "", errors.New("sequence exhausted")
		}
		code := codes[i]
		i++
		return code, nil
	}
}

func TestAllocate_FirstCandidateFree(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	roomRepo.On("IsCodeExists", mock.Anything, "AAAAAAAAA").Return(false, nil).Once()

	allocator := NewCodeAllocator(roomRepo, CodeConfig{})
	allocator.generate = sequenceGenerator("AAAAAAAAA")

	code, err := allocator.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AAAAAAAAA", code)
	roomRepo.AssertExpectations(t)
}

func TestAllocate_RetriesOnCollision(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	roomRepo.On("IsCodeExists", mock.Anything, "AAAAAAAAA").Return(true, nil).Once()
	roomRepo.On("IsCodeExists", mock.Anything, "BBBBBBBBB").Return(false, nil).Once()

	allocator := NewCodeAllocator(roomRepo, CodeConfig{})
	allocator.generate = sequenceGenerator("AAAAAAAAA", "BBBBBBBBB")

	code, err := allocator.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BBBBBBBBB", code)
	roomRepo.AssertExpectations(t)
}

func TestAllocate_BudgetExhausted(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	// 每个候选码都被占用
	roomRepo.On("IsCodeExists", mock.Anything, mock.AnythingOfType("string")).Return(true, nil)

	allocator := NewCodeAllocator(roomRepo, CodeConfig{MaxAttempts: 5})

	code, err := allocator.Allocate(context.Background())
	assert.ErrorIs(t, err, ErrCodeAllocationExhausted)
	assert.Empty(t, code)
	roomRepo.AssertNumberOfCalls(t, "IsCodeExists", 5)
}

func TestAllocate_CheckFailurePropagates(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	storeErr := errors.New("connection reset")
	roomRepo.On("IsCodeExists", mock.Anything, mock.AnythingOfType("string")).Return(false, storeErr).Once()

	allocator := NewCodeAllocator(roomRepo, CodeConfig{})

	code, err := allocator.Allocate(context.Background())
	require.Error(t, err)
	// 检查失败不等于“码可用”，必须向上传播而不是继续分配
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, ErrCodeAllocationExhausted)
	assert.Empty(t, code)
	roomRepo.AssertNumberOfCalls(t, "IsCodeExists", 1)
}

func TestCodeConfig_Defaults(t *testing.T) {
	cfg := CodeConfig{}.withDefaults()
	assert.Equal(t, DefaultCodeAlphabet, cfg.Alphabet)
	assert.Equal(t, DefaultCodeLength, cfg.Length)
	assert.Equal(t, DefaultCodeMaxAttempts, cfg.MaxAttempts)
}

func TestCodeConfig_MixedCaseAlphabetNormalized(t *testing.T) {
	cfg := CodeConfig{Alphabet: "abcXYZabc123"}.withDefaults()
	// 大写规范化并去重，保持首次出现的顺序
	assert.Equal(t, "ABCXYZ123", cfg.Alphabet)
}

func TestAllocate_MixedCaseAlphabetYieldsJoinableCodes(t *testing.T) {
	roomRepo := new(mocks.RoomRepository)
	roomRepo.On("IsCodeExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)

	// 混合大小写的配置字母表：存下来的码必须和规范化后的输入查询一致,
	// 否则签发出去的共享码永远加入不了
	allocator := NewCodeAllocator(roomRepo, CodeConfig{Alphabet: "aBcDeFgHi23456789"})

	for i := 0; i < 50; i++ {
		code, err := allocator.Allocate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, NormalizeCode(code), code,
			"allocated code %q must survive input normalization unchanged", code)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(allocator.Config().Alphabet, r))
		}
	}
}
