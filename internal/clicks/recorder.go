package clicks

import (
	"context"
	"sync"
	"time"

	"linktrace/internal/model"
	"linktrace/internal/store"
	"linktrace/pkg/geo"

	"github.com/mileusna/useragent"
	"go.uber.org/zap"
)

const (
	// Unknown 是解析失败时设备信息与国家的占位值
	Unknown = "unknown"
	// maxHeaderLength 入库前对 UA 和 Referer 的截断长度
	maxHeaderLength = 500
	// writeTimeout 单次分析写入的超时
	writeTimeout = 3 * time.Second
)

// RequestMetadata 重定向请求携带的原始元数据，由 handler 采集后投递
type RequestMetadata struct {
	Slug          string
	IP            string
	UserAgent     string
	Referer       string
	CountryHeader string // CDN 注入的国家头（如 CF-IPCountry），优先于 IP 解析
	Timestamp     time.Time
}

// Recorder 点击记录器。
// 事件经由有界通道交给固定数量的工作协程落库，重定向路径从不等待这里的结果，
// 任何失败只记日志，绝不影响主链路。
type Recorder struct {
	store   store.LinkStore
	geo     geo.Resolver
	events  chan RequestMetadata
	wg      sync.WaitGroup
	workers int
	logger  *zap.SugaredLogger
}

// NewRecorder 创建点击记录器实例
func NewRecorder(linkStore store.LinkStore, resolver geo.Resolver, workers, queueSize int, logger *zap.SugaredLogger) *Recorder {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Recorder{
		store:   linkStore,
		geo:     resolver,
		events:  make(chan RequestMetadata, queueSize),
		workers: workers,
		logger:  logger.Named("click_recorder"),
	}
}

// Start 启动工作协程池
func (r *Recorder) Start() {
	r.logger.Infof("启动 %d 个点击记录工作协程...", r.workers)
	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
}

// Stop 关闭事件通道并等待队列内的事件处理完毕
func (r *Recorder) Stop() {
	r.logger.Info("正在停止点击记录器，等待队列排空...")
	close(r.events)
	r.wg.Wait()
}

// Record 投递一次点击。队列已满时丢弃事件并告警，绝不阻塞调用方。
func (r *Recorder) Record(meta RequestMetadata) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	select {
	case r.events <- meta:
	default:
		r.logger.Warnf("点击事件队列已满，丢弃短码 %s 的事件", meta.Slug)
	}
}

// worker 持续消费事件通道，直到通道被关闭
func (r *Recorder) worker() {
	defer r.wg.Done()
	for meta := range r.events {
		r.process(meta)
	}
}

// process 落库一次点击：计数递增与事件追加相互独立，允许部分失败
func (r *Recorder) process(meta RequestMetadata) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.store.IncrementClicks(ctx, meta.Slug); err != nil {
		r.logger.Errorf("短码 %s 点击计数递增失败: %v", meta.Slug, err)
	}

	event := r.buildEvent(meta)
	if err := r.store.AppendClickEvent(ctx, event); err != nil {
		r.logger.Errorf("短码 %s 点击事件写入失败: %v", meta.Slug, err)
	}
}

// buildEvent 从请求元数据推导点击事件，任何解析失败都退化为 unknown 而不是报错
func (r *Recorder) buildEvent(meta RequestMetadata) *model.ClickEvent {
	return &model.ClickEvent{
		Slug:       meta.Slug,
		IPAddress:  meta.IP,
		UserAgent:  truncate(meta.UserAgent, maxHeaderLength),
		Referer:    truncate(meta.Referer, maxHeaderLength),
		DeviceInfo: ParseDevice(meta.UserAgent),
		Country:    r.resolveCountry(meta),
		CreatedAt:  meta.Timestamp,
	}
}

// resolveCountry 国家解析优先级：CDN 头 > GeoIP 库 > unknown
func (r *Recorder) resolveCountry(meta RequestMetadata) string {
	if meta.CountryHeader != "" && meta.CountryHeader != "XX" {
		return meta.CountryHeader
	}
	if country := r.geo.Country(meta.IP); country != "" {
		return country
	}
	return Unknown
}

// ParseDevice 解析 User-Agent，无法判定的字段填 unknown
func ParseDevice(rawUA string) model.DeviceInfo {
	info := model.DeviceInfo{DeviceType: Unknown, OS: Unknown, Browser: Unknown}
	if rawUA == "" {
		return info
	}

	ua := useragent.Parse(rawUA)
	switch {
	case ua.Bot:
		info.DeviceType = "bot"
	case ua.Mobile:
		info.DeviceType = "mobile"
	case ua.Tablet:
		info.DeviceType = "tablet"
	case ua.Desktop:
		info.DeviceType = "desktop"
	}
	if ua.OS != "" {
		info.OS = ua.OS
	}
	if ua.Name != "" {
		info.Browser = ua.Name
	}
	return info
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
