package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"linktrace/internal/clicks"
	"linktrace/internal/model"
	"linktrace/internal/slug"
	"linktrace/internal/stats"
	"linktrace/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// LinkHandler 处理器
type LinkHandler struct {
	store      store.LinkStore
	redis      *redis.Client
	allocator  *slug.Allocator
	recorder   *clicks.Recorder
	aggregator *stats.Aggregator
	baseURL    string
	recentSize int
}

// NewLinkHandler 创建处理器实例
func NewLinkHandler(
	linkStore store.LinkStore,
	redisClient *redis.Client,
	allocator *slug.Allocator,
	recorder *clicks.Recorder,
	aggregator *stats.Aggregator,
	baseURL string,
	recentSize int,
) *LinkHandler {
	return &LinkHandler{
		store:      linkStore,
		redis:      redisClient,
		allocator:  allocator,
		recorder:   recorder,
		aggregator: aggregator,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		recentSize: recentSize,
	}
}

// HealthCheck 健康检查
func (h *LinkHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

// ShortenRequest 创建短链接的请求体
type ShortenRequest struct {
	LongURL    string `json:"longUrl" binding:"required,url" example:"https://github.com/gin-gonic/gin"`
	CustomSlug string `json:"customSlug" example:"my-link"`
}

// ShortenResponse 创建短链接的响应体
type ShortenResponse struct {
	Slug     string `json:"slug" example:"aZ3kf9"`
	ShortURL string `json:"shortUrl" example:"http://localhost:8080/aZ3kf9"`
	LongURL  string `json:"longUrl" example:"https://github.com/gin-gonic/gin"`
	Clicks   int64  `json:"clicks" example:"0"`
}

// Shorten godoc
// @Summary 创建短链接
// @Description 为一个长 URL 创建短链接，可选自定义短码
// @Tags Link
// @Accept  json
// @Produce  json
// @Param   request  body   ShortenRequest  true  "长链接与可选短码"
// @Success 201 {object} ShortenResponse "创建成功"
// @Failure 400 {object} gin.H "请求无效或短码不合规"
// @Failure 409 {object} gin.H "短码已被占用"
// @Failure 503 {object} gin.H "存储不可用或短码分配失败"
// @Router /api/shorten [post]
func (h *LinkHandler) Shorten(c *gin.Context) {
	var req ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}

	ctx := c.Request.Context()

	candidate, err := h.allocator.Allocate(ctx, req.CustomSlug)
	if err != nil {
		h.writeError(c, err)
		return
	}

	// 分配只给出候选短码，唯一性由存储层的原子创建最终裁决
	record, err := h.store.Create(ctx, candidate, req.LongURL)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cacheLink(record.Slug, record.LongURL)

	c.JSON(http.StatusCreated, ShortenResponse{
		Slug:     record.Slug,
		ShortURL: h.shortURL(c, record.Slug),
		LongURL:  record.LongURL,
		Clicks:   record.Clicks,
	})
}

// Redirect godoc
// @Summary 短链接重定向
// @Description 跳转到短码对应的原始链接，并异步记录点击
// @Tags Link
// @Param   slug  path  string  true  "短码"
// @Success 302 "重定向到原始链接"
// @Failure 404 {object} gin.H "链接不存在"
// @Router /{slug} [get]
func (h *LinkHandler) Redirect(c *gin.Context) {
	s := c.Param("slug")

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		if cachedURL, err := h.redis.Get(ctx, "link:"+s).Result(); err == nil {
			h.dispatchClick(c, s)
			c.Redirect(http.StatusFound, cachedURL)
			return
		}
	}

	record, err := h.store.Get(c.Request.Context(), s)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.cacheLink(record.Slug, record.LongURL)
	h.dispatchClick(c, s)

	// 先响应重定向，点击记录完全异步，分析写入的任何故障都不影响跳转
	c.Redirect(http.StatusFound, record.LongURL)
}

// Recent godoc
// @Summary 最近创建的链接
// @Description 按创建时间倒序返回最近的短链接列表
// @Tags Link
// @Produce  json
// @Success 200 {array} model.LinkRecord
// @Router /api/recent [get]
func (h *LinkHandler) Recent(c *gin.Context) {
	records, err := h.store.ListRecent(c.Request.Context(), h.recentSize)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if records == nil {
		records = []model.LinkRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// Stats godoc
// @Summary 链接统计
// @Description 返回点击总数、创建时间与点击详情
// @Tags Stats
// @Produce  json
// @Param   slug  path  string  true  "短码"
// @Success 200 {object} stats.StatsView
// @Failure 404 {object} gin.H "链接不存在"
// @Router /api/stats/{slug} [get]
func (h *LinkHandler) Stats(c *gin.Context) {
	view, err := h.aggregator.GetStats(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// OSDistribution godoc
// @Summary 操作系统分布
// @Description 按操作系统分组统计点击次数
// @Tags Stats
// @Produce  json
// @Param   slug  path  string  true  "短码"
// @Success 200 {object} stats.Distribution
// @Failure 404 {object} gin.H "链接不存在"
// @Router /api/stats/{slug}/os [get]
func (h *LinkHandler) OSDistribution(c *gin.Context) {
	h.distribution(c, stats.DimensionOS)
}

// CountryDistribution godoc
// @Summary 国家分布
// @Description 按国家分组统计点击次数
// @Tags Stats
// @Produce  json
// @Param   slug  path  string  true  "短码"
// @Success 200 {object} stats.Distribution
// @Failure 404 {object} gin.H "链接不存在"
// @Router /api/stats/{slug}/country [get]
func (h *LinkHandler) CountryDistribution(c *gin.Context) {
	h.distribution(c, stats.DimensionCountry)
}

func (h *LinkHandler) distribution(c *gin.Context, dim stats.Dimension) {
	dist, err := h.aggregator.GetDistribution(c.Request.Context(), c.Param("slug"), dim)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dist)
}

// dispatchClick 采集请求元数据并投递给点击记录器，不等待结果
func (h *LinkHandler) dispatchClick(c *gin.Context, slug string) {
	h.recorder.Record(clicks.RequestMetadata{
		Slug:          slug,
		IP:            c.ClientIP(),
		UserAgent:     c.Request.UserAgent(),
		Referer:       c.GetHeader("Referer"),
		CountryHeader: c.GetHeader("CF-IPCountry"),
		Timestamp:     time.Now(),
	})
}

// cacheLink 写入短码到原始链接的缓存，未配置 Redis 时为空操作
func (h *LinkHandler) cacheLink(slug, longURL string) {
	if h.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// 记录创建后不可变，缓存无需主动失效，靠 TTL 自然过期即可
	h.redis.Set(ctx, "link:"+slug, longURL, 24*time.Hour)
}

// shortURL 拼接对外展示的短链接地址
func (h *LinkHandler) shortURL(c *gin.Context, slug string) string {
	if h.baseURL != "" {
		return h.baseURL + "/" + slug
	}
	return "http://" + c.Request.Host + "/" + slug
}

// writeError 将业务错误映射为 HTTP 状态码
func (h *LinkHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidSlug):
		c.JSON(http.StatusBadRequest, gin.H{"error": "短码只能包含字母、数字、连字符和下划线，长度 3-32"})
	case errors.Is(err, store.ErrSlugTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "该短码已被占用，请换一个"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "链接不存在"})
	case errors.Is(err, store.ErrAllocationExhausted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "短码分配失败，请稍后重试"})
	case errors.Is(err, store.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "存储暂时不可用，请稍后重试"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "服务器内部错误"})
	}
}
