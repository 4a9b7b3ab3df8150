package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linktrace/internal/clicks"
	"linktrace/internal/config"
	"linktrace/internal/handler"
	"linktrace/internal/middleware"
	"linktrace/internal/slug"
	"linktrace/internal/stats"
	"linktrace/internal/store"
	"linktrace/pkg/database"
	"linktrace/pkg/geo"
	"linktrace/pkg/logger"
	"linktrace/pkg/redis"

	_ "linktrace/docs"

	"github.com/gin-gonic/gin"
	redisClient "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title LinkTrace 短链接与点击分析服务
// @version 1.0
// @description 短链接重定向与点击分析 API
// @BasePath /

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Println("配置加载失败:", err)
		os.Exit(1)
	}

	logger.InitLogger(cfg.Log.File, cfg.Log.Level)
	defer func() {
		if err := logger.Logger.Sync(); err != nil {
			fmt.Println("日志同步失败:", err)
		}
	}()
	sugaredLogger := zap.S()

	db, err := database.InitMySQL(cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name)
	if err != nil {
		sugaredLogger.Fatalf("数据库初始化失败: %v", err)
	}
	sugaredLogger.Info("✅ 数据库连接成功")

	var rdb *redisClient.Client
	if cfg.Cache.Host != "" {
		rdb, err = redis.NewClient(&redis.Options{
			Host: cfg.Cache.Host, Port: cfg.Cache.Port, Password: cfg.Cache.Password, DB: cfg.Cache.DB,
		})
		if err != nil {
			sugaredLogger.Warnf("缓存连接失败: %v", err)
		} else {
			defer func() {
				if err := rdb.Close(); err != nil {
					sugaredLogger.Errorf("关闭 Redis 连接失败: %v", err)
				}
			}()
			sugaredLogger.Info("✅ 缓存连接成功")
		}
	}

	// GeoIP 库是可选的，未配置时国家解析退化为 CDN 头
	var geoResolver geo.Resolver = geo.NoopResolver{}
	if cfg.Analytics.GeoDBPath != "" {
		resolver, err := geo.NewMaxMindResolver(cfg.Analytics.GeoDBPath)
		if err != nil {
			sugaredLogger.Warnf("GeoIP 数据库加载失败: %v", err)
		} else {
			geoResolver = resolver
			defer func() {
				if err := resolver.Close(); err != nil {
					sugaredLogger.Errorf("关闭 GeoIP 数据库失败: %v", err)
				}
			}()
			sugaredLogger.Info("✅ GeoIP 数据库加载成功")
		}
	}

	linkStore := store.NewGormStore(db, sugaredLogger)

	// 初始化并启动短码分配器
	allocator := slug.NewAllocator(linkStore, sugaredLogger)
	allocator.Start()
	defer allocator.Stop()
	sugaredLogger.Info("✅ 短码分配器已启动")

	// 初始化并启动点击记录器
	recorder := clicks.NewRecorder(linkStore, geoResolver, cfg.Analytics.Workers, cfg.Analytics.QueueSize, sugaredLogger)
	recorder.Start()
	defer recorder.Stop()
	sugaredLogger.Info("✅ 点击记录器已启动")

	aggregator := stats.NewAggregator(linkStore, cfg.Analytics.EventCap)

	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.GinZapRecovery(logger.Logger, true))
	router.Use(middleware.GinZapLogger(logger.Logger))
	router.Use(middleware.RateLimit(&cfg.RateLimit))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	linkHandler := handler.NewLinkHandler(linkStore, rdb, allocator, recorder, aggregator, cfg.App.BaseURL, cfg.Analytics.RecentSize)
	registerRoutes(router, linkHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		sugaredLogger.Infof("🚀 服务启动成功, 访问 http://localhost:%d", cfg.Server.Port)
		sugaredLogger.Infof("📚 Swagger 文档地址: http://localhost:%d/swagger/index.html", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugaredLogger.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号后优雅关闭，让点击记录队列有机会排空
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sugaredLogger.Info("收到退出信号，开始关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugaredLogger.Errorf("服务关闭异常: %v", err)
	}
	sugaredLogger.Info("服务已退出")
}

func registerRoutes(router *gin.Engine, linkHandler *handler.LinkHandler) {
	router.GET("/health", linkHandler.HealthCheck)
	router.GET("/:slug", linkHandler.Redirect)

	api := router.Group("/api")
	{
		api.POST("/shorten", linkHandler.Shorten)
		api.GET("/recent", linkHandler.Recent)
		api.GET("/stats/:slug", linkHandler.Stats)
		api.GET("/stats/:slug/os", linkHandler.OSDistribution)
		api.GET("/stats/:slug/country", linkHandler.CountryDistribution)
	}
}
