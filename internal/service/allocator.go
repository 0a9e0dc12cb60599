package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jaanque/stanza/internal/repository"
)

// 共享码的默认配置。历史实现中字母表和重试预算散落在多个调用点且互不一致，
// 这里统一收拢为配置项：默认采用大写字母加数字的字母表，码长 9，预算 5 次。
const (
	DefaultCodeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultCodeLength      = 9
	DefaultCodeMaxAttempts = 5
)

// CodeConfig 是共享码分配的配置参数。
type CodeConfig struct {
	// Alphabet 是候选字符集。生效前会被大写规范化并去重：
	// 码按大写存储、查找时输入也转大写，字母表里留着小写字符
	// 会产生永远查不到的码。
	Alphabet    string
	Length      int // 码长
	MaxAttempts int // 唯一性重试预算，同时约束分配预检和插入冲突重试
}

func (c CodeConfig) withDefaults() CodeConfig {
	c.Alphabet = normalizeAlphabet(c.Alphabet)
	if c.Alphabet == "" {
		c.Alphabet = DefaultCodeAlphabet
	}
	if c.Length <= 0 {
		c.Length = DefaultCodeLength
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultCodeMaxAttempts
	}
	return c
}

// normalizeAlphabet 把配置的字母表转大写并去重，保持首次出现的顺序。
// 保证生成的码与 NormalizeCode 处理后的用户输入落在同一字符集上。
func normalizeAlphabet(alphabet string) string {
	seen := make(map[rune]bool, len(alphabet))
	var b strings.Builder
	for _, r := range strings.ToUpper(alphabet) {
		if seen[r] {
			continue
		}
		seen[r] = true
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeCode 把用户输入的共享码规范化：去空白并转大写。
// 码以大写存储，输入按大写比较，等效于对输入大小写不敏感。
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CodeAllocator 负责产生无碰撞的房间共享码。
// 预检查只能缩小碰撞窗口，不能消除它：两个并发分配可能对同一候选码
// 都通过检查。真正的唯一性由插入时的存储层约束兜底（见 RoomService.CreateRoom）。
type CodeAllocator struct {
	roomRepo repository.RoomRepository
	cfg      CodeConfig
	// generate 可替换，测试中注入确定性序列
	generate func(alphabet string, length int) (string, error)
}

// NewCodeAllocator 创建 CodeAllocator 实例
func NewCodeAllocator(roomRepo repository.RoomRepository, cfg CodeConfig) *CodeAllocator {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for CodeAllocator")
	}
	return &CodeAllocator{
		roomRepo: roomRepo,
		cfg:      cfg.withDefaults(),
		generate: randomCode,
	}
}

// Config 返回生效的配置（含默认值），供共享码校验等处复用。
func (a *CodeAllocator) Config() CodeConfig {
	return a.cfg
}

// errCodeTaken 表示候选码已被占用，调用方应在预算内换码重试
var errCodeTaken = errors.New("candidate room code already taken")

// candidate 生成一个候选码并做一次占用预检，恰好消耗一次生成加一次查询。
// 被占用返回 errCodeTaken；查询失败原样向上传播，不得与“未被占用”混淆。
// 预检丢弃和插入冲突都算在同一份 MaxAttempts 预算里，计数由调用方维护。
func (a *CodeAllocator) candidate(ctx context.Context) (string, error) {
	code, err := a.generate(a.cfg.Alphabet, a.cfg.Length)
	if err != nil {
		return "", fmt.Errorf("generate room code: %w", err)
	}

	exists, err := a.roomRepo.IsCodeExists(ctx, code)
	if err != nil {
		return "", fmt.Errorf("check room code uniqueness: %w", err)
	}
	if exists {
		return "", errCodeTaken
	}
	return code, nil
}

// Allocate 产生一个当前未被占用的共享码。
// 预算耗尽返回 ErrCodeAllocationExhausted。
// 需要同时兜住插入冲突的调用方（见 RoomService.CreateRoom）应改用
// candidate 逐次消费预算，而不是在外层再套一层重试。
func (a *CodeAllocator) Allocate(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		code, err := a.candidate(ctx)
		if err == nil {
			logrus.WithField("code", code).Debugf("Allocated unique room code after %d attempt(s)", attempt)
			return code, nil
		}
		if errors.Is(err, errCodeTaken) {
			logrus.Warnf("Generated room code already exists, retrying (attempt %d)", attempt)
			continue
		}
		return "", err
	}
	logrus.Errorf("Failed to allocate a unique room code after %d attempts", a.cfg.MaxAttempts)
	return "", ErrCodeAllocationExhausted
}

// randomCode 用 crypto/rand 从字母表生成定长随机串
func randomCode(alphabet string, length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b), nil
}
