package main

import (
	"Marquee/internal/api/config"
	"Marquee/internal/pkg/cron"
	"Marquee/internal/pkg/database"
	"Marquee/internal/pkg/logger"
	"Marquee/internal/pkg/redis"
	"Marquee/internal/pkg/security"
	"Marquee/internal/wire"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	// 加载配置
	if err := config.LoadConfig(); err != nil {
		log.Error("Fatal error: failed to load configuration", "err", err)
		panic(err)
	}
	cfg := config.Cfg

	// 初始化日志
	logger.InitLogger(cfg)
	security.Init(cfg.JWT)

	// 数据库连接
	dbCfg := cfg.DB
	db, err := database.NewGormDB(&dbCfg)
	if err != nil {
		log.Error("Fatal error: failed to create database connection", "err", err)
		panic(err)
	}
	if err = database.AutoMigrate(db); err != nil {
		log.Error("Fatal error: failed to migrate database", "err", err)
		panic(err)
	}

	// Redis 连接
	rdb, err := redis.NewClient(context.Background(), cfg.Redis)
	if err != nil {
		log.Error("Fatal error: failed to create redis connection", "err", err)
		panic(err)
	}
	defer func() {
		_ = rdb.Close()
	}()

	// 依赖注入
	app, err := wire.BuildApplication(db, rdb, cfg)
	if err != nil {
		log.Error("Fatal error: failed to create application", "err", err)
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// 定时任务
	g.Go(func() error {
		return cron.InitCron(ctx, app.CronMgr)
	})

	// Kafka 消费者
	if app.KafkaManager != nil {
		g.Go(func() error {
			log.Info("Kafka Consumers starting...")
			return app.KafkaManager.Start(ctx)
		})
	}

	// HTTP 服务器
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: app.Router,
	}
	g.Go(func() error {
		log.Info("HTTP Server starting...", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 优雅退出
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-ctx.Done():
		case sig := <-quit:
			log.Info("Received signal, shutting down...", "signal", sig)
			cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		// websocket 连接已被劫持，Shutdown 不会等待它们
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP Server shutdown failed", "err", err)
		}
		if app.MirrorProducer != nil {
			if err := app.MirrorProducer.Close(); err != nil {
				log.Error("Mirror producer close failed", "err", err)
			}
		}
		return nil
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("App exited with error", "err", err)
	}
	log.Info("App exited successfully.")
}
