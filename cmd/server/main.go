package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Dreamstarlake/EduNexus/config"
	"github.com/Dreamstarlake/EduNexus/internal/api/handler"
	"github.com/Dreamstarlake/EduNexus/internal/api/router"
	"github.com/Dreamstarlake/EduNexus/internal/repository"
	"github.com/Dreamstarlake/EduNexus/internal/service"
	"github.com/Dreamstarlake/EduNexus/pkg/database"
	"github.com/Dreamstarlake/EduNexus/pkg/jwt"
	applogger "github.com/Dreamstarlake/EduNexus/pkg/logger"
	"github.com/Dreamstarlake/EduNexus/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认搜索 ./config.yaml）")
	migrateMode := flag.String("migrate", "up", "启动前的迁移动作：up 执行迁移后启动；down 回滚全部迁移后退出；skip 不处理")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *migrateMode, logger); err != nil {
		logger.Error("服务异常退出", zap.Error(err))
		os.Exit(1)
	}
}

// run 组装依赖并阻塞到 ctx 结束
func run(ctx context.Context, cfg *config.Config, migrateMode string, logger *zap.Logger) error {
	logger.Info("EduNexus 课程服务启动中",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// ── PostgreSQL ──
	db, err := database.NewDB(&cfg.Database, logger, cfg.Log.Level == "debug")
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	defer sqlDB.Close()

	done, err := migrate(sqlDB, migrateMode, logger)
	if err != nil || done {
		return err
	}

	// ── Redis（可选，不可用时登出仅在客户端生效，认证接口不限流）──
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 不可用，凭证吊销与登录限流已关闭", zap.Error(err))
		rdb = nil
	}
	var blacklist service.TokenBlacklist
	if rdb != nil {
		blacklist = rdb
		defer rdb.Close()
	}

	// ── Repository → Service → Handler → Router ──
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, blacklist, logger)
	engine := router.Setup(cfg, handler.NewHandler(svc), jwtMgr, rdb, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return serve(ctx, srv, cfg.Server.ShutdownTimeout, logger)
}

// migrate 按模式处理迁移；done=true 表示进程应直接退出
func migrate(sqlDB *sql.DB, mode string, logger *zap.Logger) (done bool, err error) {
	switch mode {
	case "up":
		return false, database.RunMigrations(sqlDB, logger)
	case "down":
		if err := database.RollbackMigrations(sqlDB); err != nil {
			return true, err
		}
		logger.Info("已回滚全部迁移")
		return true, nil
	case "skip":
		return false, nil
	default:
		return true, fmt.Errorf("未知的 -migrate 取值 %q（可选 up/down/skip）", mode)
	}
}

// serve 启动 HTTP 服务，ctx 结束后在 timeout 内优雅关闭
func serve(ctx context.Context, srv *http.Server, timeout time.Duration, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("收到关闭信号，开始优雅关闭")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("服务器关闭异常: %w", err)
	}
	logger.Info("服务器已关闭")
	return nil
}
