package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"linktrace/internal/clicks"
	"linktrace/internal/model"
	"linktrace/internal/slug"
	"linktrace/internal/stats"
	"linktrace/internal/store"
	"linktrace/pkg/geo"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var testDBSeq int64

// setupTest 为集成测试初始化一个干净的环境
// 它返回一个配置好的 gin.Engine、点击记录器和一个清理函数
func setupTest(t *testing.T) (*gin.Engine, *clicks.Recorder, func()) {
	t.Helper()

	// 1. 设置测试模式
	gin.SetMode(gin.TestMode)

	// 2. 初始化内存数据库（单连接，保证内存库稳定）
	dsn := fmt.Sprintf("file:handler_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		panic("无法连接到内存数据库: " + err.Error())
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	// 3. 自动迁移
	err = db.AutoMigrate(&model.LinkRecord{}, &model.ClickEvent{})
	if err != nil {
		panic("数据库迁移失败: " + err.Error())
	}

	// 4. 组装各组件
	// 注意：在测试中我们不依赖 Redis，所以传入 nil；
	// 分配器不启动后台填充，记录器只开一个工作协程
	logger, _ := zap.NewDevelopment()
	sugaredLogger := logger.Sugar()

	linkStore := store.NewGormStore(db, sugaredLogger)
	allocator := slug.NewAllocator(linkStore, sugaredLogger)
	recorder := clicks.NewRecorder(linkStore, geo.NoopResolver{}, 1, 64, sugaredLogger)
	recorder.Start()
	aggregator := stats.NewAggregator(linkStore, 100)

	linkHandler := NewLinkHandler(linkStore, nil, allocator, recorder, aggregator, "", 10)

	// 5. 设置路由
	router := gin.New()
	router.POST("/api/shorten", linkHandler.Shorten)
	router.GET("/:slug", linkHandler.Redirect)
	router.GET("/api/recent", linkHandler.Recent)
	router.GET("/api/stats/:slug", linkHandler.Stats)
	router.GET("/api/stats/:slug/os", linkHandler.OSDistribution)
	router.GET("/api/stats/:slug/country", linkHandler.CountryDistribution)

	// 6. 定义清理函数
	cleanup := func() {
		sqlDB.Close()
	}

	return router, recorder, cleanup
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestShortenAndRedirect_Scenario 覆盖创建、三次跳转与统计的完整流程
func TestShortenAndRedirect_Scenario(t *testing.T) {
	router, recorder, cleanup := setupTest(t)
	defer cleanup()

	// === 步骤 1: 用自定义短码创建短链接 ===
	w := doJSON(router, http.MethodPost, "/api/shorten", ShortenRequest{
		LongURL:    "https://example.com/a",
		CustomSlug: "abc",
	})
	require.Equal(t, http.StatusCreated, w.Code, "创建短链接时，状态码应为 201 Created")

	var createResp ShortenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &createResp))
	assert.Equal(t, "abc", createResp.Slug)
	assert.Equal(t, "https://example.com/a", createResp.LongURL)
	assert.Equal(t, int64(0), createResp.Clicks)
	assert.Contains(t, createResp.ShortURL, "/abc")

	// === 步骤 2: 访问短链接三次并验证重定向 ===
	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodGet, "/abc", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		req.Header.Set("CF-IPCountry", "DE")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code, "访问短码时，状态码应为 302 Found")
		assert.Equal(t, "https://example.com/a", w.Header().Get("Location"))
	}

	// 点击记录是异步的，先排空队列再断言统计结果
	recorder.Stop()

	// === 步骤 3: 验证统计 ===
	w = doJSON(router, http.MethodGet, "/api/stats/abc", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view stats.StatsView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, int64(3), view.Clicks)
	assert.Len(t, view.ClickDetails, 3)
	assert.Equal(t, "Windows", view.ClickDetails[0].DeviceInfo.OS)

	// === 步骤 4: 验证分布 ===
	w = doJSON(router, http.MethodGet, "/api/stats/abc/os", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var dist stats.Distribution
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dist))
	assert.Equal(t, []string{"Windows"}, dist.Labels)
	assert.Equal(t, []int64{3}, dist.Data)

	w = doJSON(router, http.MethodGet, "/api/stats/abc/country", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dist))
	assert.Equal(t, []string{"DE"}, dist.Labels)
}

func TestShorten_DuplicateCustomSlug(t *testing.T) {
	router, _, cleanup := setupTest(t)
	defer cleanup()

	w := doJSON(router, http.MethodPost, "/api/shorten", ShortenRequest{
		LongURL: "https://example.com/a", CustomSlug: "abc",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// 相同短码再次创建应返回 409，且不改动已有记录
	w = doJSON(router, http.MethodPost, "/api/shorten", ShortenRequest{
		LongURL: "https://example.com/other", CustomSlug: "abc",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	req, _ := http.NewRequest(http.MethodGet, "/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "https://example.com/a", rec.Header().Get("Location"))
}

func TestShorten_Validation(t *testing.T) {
	router, _, cleanup := setupTest(t)
	defer cleanup()

	// 非法长链接
	w := doJSON(router, http.MethodPost, "/api/shorten", ShortenRequest{LongURL: "not-a-url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 非法自定义短码
	w = doJSON(router, http.MethodPost, "/api/shorten", ShortenRequest{
		LongURL: "https://example.com", CustomSlug: "a!",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestShorten_GeneratedSlug 不带自定义短码时生成的短码应立即可解析
func TestShorten_GeneratedSlug(t *testing.T) {
	router, _, cleanup := setupTest(t)
	defer cleanup()

	w := doJSON(router, http.MethodPost, "/api/shorten", ShortenRequest{LongURL: "https://example.com/x"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp ShortenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Regexp(t, `^[A-Za-z0-9_-]{3,32}$`, resp.Slug)

	req, _ := http.NewRequest(http.MethodGet, "/"+resp.Slug, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/x", rec.Header().Get("Location"))
}

func TestRedirect_NotFound(t *testing.T) {
	router, _, cleanup := setupTest(t)
	defer cleanup()

	req, _ := http.NewRequest(http.MethodGet, "/ghost1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStats_NotFound(t *testing.T) {
	router, _, cleanup := setupTest(t)
	defer cleanup()

	w := doJSON(router, http.MethodGet, "/api/stats/ghost1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/api/stats/ghost1/os", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecent(t *testing.T) {
	router, _, cleanup := setupTest(t)
	defer cleanup()

	for i := 0; i < 3; i++ {
		w := doJSON(router, http.MethodPost, "/api/shorten", ShortenRequest{
			LongURL:    "https://example.com/page",
			CustomSlug: fmt.Sprintf("link%d", i),
		})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(router, http.MethodGet, "/api/recent", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var records []model.LinkRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 3)
	// 最新创建的排在最前
	assert.Equal(t, "link2", records[0].Slug)
}
