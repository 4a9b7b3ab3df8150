package store

import (
	"context"

	"linktrace/internal/model"
)

// DimensionCount 某个维度取值及其点击次数
type DimensionCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// LinkStore 短链接存储接口，是唯一性与计数一致性的唯一仲裁者
type LinkStore interface {
	// Create 原子性的 create-if-absent，短码已存在时返回 ErrSlugTaken
	Create(ctx context.Context, slug, longURL string) (*model.LinkRecord, error)
	// Get 点查，不存在时返回 ErrNotFound
	Get(ctx context.Context, slug string) (*model.LinkRecord, error)
	// Exists 检查短码是否已被占用
	Exists(ctx context.Context, slug string) (bool, error)
	// IncrementClicks 原子性递增点击数并刷新 last_accessed，并发下不丢更新
	IncrementClicks(ctx context.Context, slug string) error
	// ListRecent 按创建时间倒序返回最近的链接
	ListRecent(ctx context.Context, limit int) ([]model.LinkRecord, error)
	// AppendClickEvent 追加一条点击事件，与计数递增相互独立
	AppendClickEvent(ctx context.Context, event *model.ClickEvent) error
	// ListClickEvents 按时间倒序返回某短码的点击事件，limit <= 0 表示不限
	ListClickEvents(ctx context.Context, slug string, limit int) ([]model.ClickEvent, error)
	// GroupClickEvents 按列分组统计点击事件，次数降序、标签升序
	GroupClickEvents(ctx context.Context, slug, column string) ([]DimensionCount, error)
}
