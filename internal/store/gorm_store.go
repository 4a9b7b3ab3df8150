package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"linktrace/internal/model"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// retryBackoff 写操作瞬时失败后的重试间隔
const retryBackoff = 100 * time.Millisecond

// GormStore 基于 GORM 的 LinkStore 实现，生产环境使用 MySQL，测试使用 sqlite
type GormStore struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// NewGormStore 创建存储实例
func NewGormStore(db *gorm.DB, logger *zap.SugaredLogger) *GormStore {
	return &GormStore{
		db:     db,
		logger: logger.Named("link_store"),
	}
}

// Create 创建短链接记录，依赖 slug 唯一索引保证 create-if-absent 的原子性
func (s *GormStore) Create(ctx context.Context, slug, longURL string) (*model.LinkRecord, error) {
	record := model.LinkRecord{Slug: slug, LongURL: longURL}

	err := s.withRetry(func() error {
		return s.db.WithContext(ctx).Create(&record).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &record, nil
}

// Get 按短码查询记录
func (s *GormStore) Get(ctx context.Context, slug string) (*model.LinkRecord, error) {
	var record model.LinkRecord
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &record, nil
}

// Exists 检查短码是否存在
func (s *GormStore) Exists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.LinkRecord{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count > 0, nil
}

// IncrementClicks 用 SQL 表达式递增计数，避免读-改-写在并发下丢失更新
func (s *GormStore) IncrementClicks(ctx context.Context, slug string) error {
	var affected int64
	err := s.withRetry(func() error {
		result := s.db.WithContext(ctx).Model(&model.LinkRecord{}).
			Where("slug = ?", slug).
			Updates(map[string]interface{}{
				"clicks":        gorm.Expr("clicks + 1"),
				"last_accessed": time.Now(),
			})
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRecent 最近创建的链接，倒序
func (s *GormStore) ListRecent(ctx context.Context, limit int) ([]model.LinkRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var records []model.LinkRecord
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return records, nil
}

// AppendClickEvent 追加点击事件
func (s *GormStore) AppendClickEvent(ctx context.Context, event *model.ClickEvent) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// ListClickEvents 按时间倒序返回点击事件
func (s *GormStore) ListClickEvents(ctx context.Context, slug string, limit int) ([]model.ClickEvent, error) {
	query := s.db.WithContext(ctx).Where("slug = ?", slug).Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var events []model.ClickEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return events, nil
}

// GroupClickEvents 分组统计，column 由调用方从白名单中选取
func (s *GormStore) GroupClickEvents(ctx context.Context, slug, column string) ([]DimensionCount, error) {
	var counts []DimensionCount
	err := s.db.WithContext(ctx).Model(&model.ClickEvent{}).
		Select(fmt.Sprintf("%s AS label, COUNT(*) AS count", column)).
		Where("slug = ?", slug).
		Group(column).
		Order(fmt.Sprintf("count DESC, %s ASC", column)).
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return counts, nil
}

// withRetry 对瞬时失败的写操作重试一次；固定错误（如唯一键冲突）直接返回
func (s *GormStore) withRetry(fn func() error) error {
	err := fn()
	if err == nil || errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	s.logger.Warnf("存储写入失败，%v 后重试一次: %v", retryBackoff, err)
	time.Sleep(retryBackoff)
	return fn()
}
