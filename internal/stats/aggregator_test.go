package stats

import (
	"context"
	"fmt"
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

func newTestAggregator(t *testing.T, eventCap int) (*Aggregator, store.LinkStore) {
	t.Helper()

	dsn := fmt.Sprintf("file:stats_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
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
	return NewAggregator(linkStore, eventCap), linkStore
}

func TestAggregator_GetStats(t *testing.T) {
	a, linkStore := newTestAggregator(t, 2)
	ctx := context.Background()

	_, err := linkStore.Create(ctx, "abc", "https://example.com/a")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, linkStore.IncrementClicks(ctx, "abc"))
		require.NoError(t, linkStore.AppendClickEvent(ctx, &model.ClickEvent{
			Slug:       "abc",
			DeviceInfo: model.DeviceInfo{DeviceType: "desktop", OS: "Linux", Browser: "Firefox"},
			Country:    "France",
		}))
	}

	view, err := a.GetStats(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, int64(3), view.Clicks)
	assert.False(t, view.CreatedAt.IsZero())
	// 点击详情按 eventCap 截断
	assert.Len(t, view.ClickDetails, 2)
}

func TestAggregator_GetStatsNotFound(t *testing.T) {
	a, _ := newTestAggregator(t, 0)

	_, err := a.GetStats(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// TestAggregator_EmptyDistribution 没有任何点击时应返回空数组而不是错误
func TestAggregator_EmptyDistribution(t *testing.T) {
	a, linkStore := newTestAggregator(t, 0)
	ctx := context.Background()

	_, err := linkStore.Create(ctx, "fresh", "https://example.com")
	require.NoError(t, err)

	dist, err := a.GetDistribution(ctx, "fresh", DimensionOS)
	require.NoError(t, err)
	assert.Empty(t, dist.Labels)
	assert.Empty(t, dist.Data)
	assert.NotNil(t, dist.Labels)
	assert.NotNil(t, dist.Data)
}

func TestAggregator_DistributionOrdering(t *testing.T) {
	a, linkStore := newTestAggregator(t, 0)
	ctx := context.Background()

	_, err := linkStore.Create(ctx, "abc", "https://example.com/a")
	require.NoError(t, err)

	countries := []string{"Germany", "France", "Germany", "Brazil", "France"}
	for _, country := range countries {
		require.NoError(t, linkStore.AppendClickEvent(ctx, &model.ClickEvent{
			Slug:    "abc",
			Country: country,
		}))
	}

	dist, err := a.GetDistribution(ctx, "abc", DimensionCountry)
	require.NoError(t, err)
	// 次数降序，并列时标签升序
	assert.Equal(t, []string{"France", "Germany", "Brazil"}, dist.Labels)
	assert.Equal(t, []int64{2, 2, 1}, dist.Data)
}

func TestAggregator_DistributionNotFound(t *testing.T) {
	a, _ := newTestAggregator(t, 0)

	_, err := a.GetDistribution(context.Background(), "missing", DimensionCountry)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAggregator_UnknownDimension(t *testing.T) {
	a, linkStore := newTestAggregator(t, 0)
	ctx := context.Background()

	_, err := linkStore.Create(ctx, "abc", "https://example.com/a")
	require.NoError(t, err)

	_, err = a.GetDistribution(ctx, "abc", Dimension("browser"))
	assert.Error(t, err)
}
