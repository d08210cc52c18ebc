package cron

import (
	"context"
	"fmt"
	log "log/slog"
)

// InitCron 注册并启动全部任务，阻塞到 ctx 结束后等待执行中的任务退出
// 注册失败直接返回，由 errgroup 取消其余组件
func InitCron(ctx context.Context, mgr *Manager) error {
	if err := mgr.RegisterJobs(); err != nil {
		return fmt.Errorf("register cron jobs: %w", err)
	}
	mgr.Start()
	log.Info("Cron Jobs started", "jobs", len(mgr.engine.Entries()))

	<-ctx.Done()
	mgr.Stop()
	return nil
}
