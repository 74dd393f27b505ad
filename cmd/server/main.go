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

	"go.uber.org/zap"
	"gorm.io/gorm"

	"timewise/backend/config"
	"timewise/backend/internal/api/handler"
	"timewise/backend/internal/api/router"
	"timewise/backend/internal/generator"
	"timewise/backend/internal/repository"
	"timewise/backend/internal/service"
	"timewise/backend/internal/timetable"
	"timewise/backend/pkg/database"
	pkgerrors "timewise/backend/pkg/errors"
	"timewise/backend/pkg/jwt"
	applogger "timewise/backend/pkg/logger"
	"timewise/backend/pkg/redis"
)

func main() {
	// 1. 加载配置（TIMEWISE_CONFIG_FILE 为空时查找 ./config/config.yaml）
	cfg, err := config.Load(os.Getenv("TIMEWISE_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.New(&cfg.Log, "timewise-api")
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	loc, _ := cfg.Schedule.Location() // Validate 已校验
	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", loc.String()),
	)

	checks := map[string]handler.Pinger{}

	// 3. 连接数据库（可选：失败时仅保留内存课表，历史与审计不可用）
	var (
		db   *gorm.DB
		repo *repository.Repository
	)
	db, err = database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Warn("数据库连接失败，版本历史与代课审计将不可用", zap.Error(err))
		db = nil
	} else {
		logger.Info("数据库连接成功")

		// 3.1 执行数据库迁移
		sqlDB, err := db.DB()
		if err != nil {
			logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
		}
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			logger.Fatal("数据库迁移失败", zap.Error(err))
		}
		repo = repository.NewRepository(db)
		checks["database"] = handler.PingFunc(sqlDB.PingContext)
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 吊销、限流与事件广播将不可用", zap.Error(err))
		rdb = nil
	} else {
		checks["redis"] = rdb
	}

	// 5. 课表生成服务（可选）
	var gen generator.Generator
	gemini, err := generator.NewGemini(context.Background(), &cfg.AI, logger.Named("generator"))
	switch {
	case errors.Is(err, pkgerrors.ErrNotConfigured):
		logger.Info("未配置 ai.api_key，课表生成接口将返回 503")
	case err != nil:
		logger.Warn("初始化课表生成服务失败", zap.Error(err))
	default:
		gen = gemini
		defer gemini.Close()
	}

	// 6. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 7. 依赖注入: Store → Service → Handler
	store := timetable.NewStore(nil, timetable.WithLocation(loc))

	var events service.EventPublisher
	if rdb != nil {
		events = rdb
	}
	svc := service.NewService(store, repo, gen, events, logger)

	if cfg.Schedule.RestoreOnStart {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := svc.Schedule.Restore(ctx); err != nil {
			logger.Warn("恢复课表失败，使用默认课表", zap.Error(err))
		}
		cancel()
	}

	health := handler.NewHealthHandler(svc.Schedule, loc.String(), checks)
	h := handler.NewHandler(svc, health)

	// 8. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 15*time.Second, // 生成接口同步等待模型返回
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if db != nil {
		if closeDB, _ := db.DB(); closeDB != nil {
			closeDB.Close()
		}
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
