package stats

import (
	"context"
	"fmt"
	"time"

	"linktrace/internal/model"
	"linktrace/internal/store"
)

// Dimension 分布统计的维度
type Dimension string

const (
	DimensionOS      Dimension = "os"
	DimensionCountry Dimension = "country"
)

// dimensionColumns 维度到事件表列名的白名单映射
var dimensionColumns = map[Dimension]string{
	DimensionOS:      "device_os",
	DimensionCountry: "country",
}

// StatsView 单个短码的统计摘要
type StatsView struct {
	Slug         string             `json:"slug"`
	Clicks       int64              `json:"clicks"`
	CreatedAt    time.Time          `json:"createdAt"`
	LastAccessed *time.Time         `json:"lastAccessed,omitempty"`
	ClickDetails []model.ClickEvent `json:"clickDetails"`
}

// Distribution 按维度分组的点击分布，labels 与 data 按下标一一对应
type Distribution struct {
	Labels []string `json:"labels"`
	Data   []int64  `json:"data"`
}

// Aggregator 统计聚合器，只读，按需从存储的事件中即时计算
type Aggregator struct {
	store    store.LinkStore
	eventCap int
}

// NewAggregator 创建聚合器，eventCap 限制统计接口返回的点击详情条数
func NewAggregator(linkStore store.LinkStore, eventCap int) *Aggregator {
	if eventCap <= 0 {
		eventCap = 100
	}
	return &Aggregator{store: linkStore, eventCap: eventCap}
}

// GetStats 返回点击总数、创建时间和（截断后的）点击详情列表
func (a *Aggregator) GetStats(ctx context.Context, slug string) (*StatsView, error) {
	record, err := a.store.Get(ctx, slug)
	if err != nil {
		return nil, err
	}

	events, err := a.store.ListClickEvents(ctx, slug, a.eventCap)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.ClickEvent{}
	}

	return &StatsView{
		Slug:         record.Slug,
		Clicks:       record.Clicks,
		CreatedAt:    record.CreatedAt,
		LastAccessed: record.LastAccessed,
		ClickDetails: events,
	}, nil
}

// GetDistribution 按维度分组统计点击事件。
// 排序规则为次数降序、标签升序，保证输出确定性；空事件集返回空数组而非错误。
func (a *Aggregator) GetDistribution(ctx context.Context, slug string, dim Dimension) (*Distribution, error) {
	column, ok := dimensionColumns[dim]
	if !ok {
		return nil, fmt.Errorf("不支持的统计维度: %s", dim)
	}

	// 先确认短码存在，未知短码应当返回 404 而不是空分布
	if _, err := a.store.Get(ctx, slug); err != nil {
		return nil, err
	}

	counts, err := a.store.GroupClickEvents(ctx, slug, column)
	if err != nil {
		return nil, err
	}

	dist := &Distribution{Labels: []string{}, Data: []int64{}}
	for _, c := range counts {
		dist.Labels = append(dist.Labels, c.Label)
		dist.Data = append(dist.Data, c.Count)
	}
	return dist, nil
}
