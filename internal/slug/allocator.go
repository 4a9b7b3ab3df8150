package slug

import (
	"context"
	"crypto/rand"
	"math/big"
	"regexp"
	"sync"
	"time"

	"linktrace/internal/store"

	"go.uber.org/zap"
)

const (
	// Charset 包含用于生成短码的所有字符
	Charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// SlugLength 是随机生成的短码长度
	SlugLength = 6
	// MaxAttempts 是随机生成碰撞后的最大重试次数
	MaxAttempts = 5
	// ChannelBufferSize 是候选短码通道的缓冲区大小
	ChannelBufferSize = 1000
	// MinFillThreshold 是触发补充的最小阈值
	MinFillThreshold = 100
)

// customSlugPattern 自定义短码策略：字母、数字、连字符、下划线，长度 3-32
var customSlugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// Allocator 负责校验自定义短码和生成随机短码。
// 分配本身不做任何预留，唯一性最终由存储层的原子创建保证。
type Allocator struct {
	store     store.LinkStore
	codeChan  chan string
	mu        sync.Mutex
	isFilling bool
	stopChan  chan struct{}
	logger    *zap.SugaredLogger
}

// NewAllocator 创建一个新的短码分配器实例
func NewAllocator(linkStore store.LinkStore, logger *zap.SugaredLogger) *Allocator {
	return &Allocator{
		store:    linkStore,
		codeChan: make(chan string, ChannelBufferSize),
		stopChan: make(chan struct{}),
		logger:   logger.Named("slug_allocator"),
	}
}

// Start 启动后台短码生成和补充任务
func (a *Allocator) Start() {
	a.logger.Info("启动短码分配器...")
	go a.fillChannel() // 初始填充
	go a.monitorAndRefill()
}

// Stop 停止短码分配器
func (a *Allocator) Stop() {
	a.logger.Info("正在停止短码分配器...")
	close(a.stopChan)
}

// Allocate 返回一个候选短码。
// 传入自定义短码时校验策略与占用情况；否则从预生成池或即时生成中取得随机短码，
// 最多尝试 MaxAttempts 次，仍然碰撞则返回 ErrAllocationExhausted。
func (a *Allocator) Allocate(ctx context.Context, customSlug string) (string, error) {
	if customSlug != "" {
		if !customSlugPattern.MatchString(customSlug) {
			return "", store.ErrInvalidSlug
		}
		exists, err := a.store.Exists(ctx, customSlug)
		if err != nil {
			return "", err
		}
		if exists {
			return "", store.ErrSlugTaken
		}
		return customSlug, nil
	}

	for i := 0; i < MaxAttempts; i++ {
		code, err := a.nextCandidate()
		if err != nil {
			return "", err
		}
		exists, err := a.store.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	// 连续碰撞说明键空间或存储出现异常压力，需要告警而不是无限重试
	a.logger.Errorf("随机短码连续 %d 次碰撞，键空间可能已饱和", MaxAttempts)
	return "", store.ErrAllocationExhausted
}

// nextCandidate 优先从预生成通道取码，通道为空时即时生成
func (a *Allocator) nextCandidate() (string, error) {
	select {
	case code := <-a.codeChan:
		return code, nil
	default:
		return a.generateRandomString(SlugLength)
	}
}

// monitorAndRefill 监视通道的填充水平并根据需要进行补充
func (a *Allocator) monitorAndRefill() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if len(a.codeChan) < MinFillThreshold {
				a.fillChannel()
			}
		case <-a.stopChan:
			a.logger.Info("已停止监控和补充任务。")
			return
		}
	}
}

// fillChannel 是一个后台 goroutine，用于生成候选短码并填充通道
func (a *Allocator) fillChannel() {
	a.mu.Lock()
	if a.isFilling {
		a.mu.Unlock()
		return
	}
	a.isFilling = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.isFilling = false
		a.mu.Unlock()
	}()

	a.logger.Infof("通道中剩余 %d 个候选短码，开始补充...", len(a.codeChan))
	for len(a.codeChan) < ChannelBufferSize {
		select {
		case <-a.stopChan:
			a.logger.Info("填充任务已中断。")
			return
		default:
			code, err := a.generateUniqueCode()
			if err != nil {
				a.logger.Errorf("生成候选短码时出错: %v", err)
				time.Sleep(100 * time.Millisecond) // 避免在错误情况下快速循环
				continue
			}
			if code != "" {
				a.codeChan <- code
			}
		}
	}
	a.logger.Infof("候选短码通道已填满，现有 %d 个。", len(a.codeChan))
}

// generateUniqueCode 生成一个当前在存储中未被占用的短码
func (a *Allocator) generateUniqueCode() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 0; i < MaxAttempts; i++ {
		code, err := a.generateRandomString(SlugLength)
		if err != nil {
			return "", err
		}
		exists, err := a.store.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	a.logger.Warnf("已尝试 %d 次生成候选短码，但均存在冲突。", MaxAttempts)
	return "", nil // 返回空字符串表示本轮放弃
}

// generateRandomString 使用加密安全的随机数生成器生成一个给定长度的字符串
func (a *Allocator) generateRandomString(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(Charset))))
		if err != nil {
			return "", err
		}
		b[i] = Charset[num.Int64()]
	}
	return string(b), nil
}
