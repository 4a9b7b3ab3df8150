package slug

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"linktrace/internal/model"
	"linktrace/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq int64

// newAllocator 构造一个基于内存数据库的分配器（不启动后台填充任务）
func newAllocator(t *testing.T) (*Allocator, store.LinkStore) {
	t.Helper()

	dsn := fmt.Sprintf("file:slug_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		panic("无法连接到内存数据库: " + err.Error())
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.LinkRecord{}, &model.ClickEvent{}))

	logger, _ := zap.NewDevelopment()
	linkStore := store.NewGormStore(db, logger.Sugar())
	return NewAllocator(linkStore, logger.Sugar()), linkStore
}

func TestAllocator_CustomSlugPolicy(t *testing.T) {
	a, _ := newAllocator(t)
	ctx := context.Background()

	// 合法的自定义短码原样返回
	got, err := a.Allocate(ctx, "my_link-01")
	require.NoError(t, err)
	assert.Equal(t, "my_link-01", got)

	// 非法字符或长度越界一律拒绝
	for _, bad := range []string{"ab", "a b", "短码", "has.dot", strings.Repeat("x", 33)} {
		_, err := a.Allocate(ctx, bad)
		assert.ErrorIs(t, err, store.ErrInvalidSlug, "短码 %q 应被策略拒绝", bad)
	}
}

func TestAllocator_CustomSlugTaken(t *testing.T) {
	a, linkStore := newAllocator(t)
	ctx := context.Background()

	_, err := linkStore.Create(ctx, "taken", "https://example.com")
	require.NoError(t, err)

	_, err = a.Allocate(ctx, "taken")
	assert.ErrorIs(t, err, store.ErrSlugTaken)
}

func TestAllocator_GeneratedSlug(t *testing.T) {
	a, _ := newAllocator(t)

	got, err := a.Allocate(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got, SlugLength)
	// 生成的短码必须能通过自定义短码的字符策略
	assert.Regexp(t, `^[A-Za-z0-9_-]+$`, got)
}

// exhaustedStore 模拟键空间饱和：任何短码都已存在
type exhaustedStore struct {
	store.LinkStore
}

func (exhaustedStore) Exists(context.Context, string) (bool, error) {
	return true, nil
}

func TestAllocator_Exhausted(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	a := NewAllocator(exhaustedStore{}, logger.Sugar())

	_, err := a.Allocate(context.Background(), "")
	assert.ErrorIs(t, err, store.ErrAllocationExhausted)
}
