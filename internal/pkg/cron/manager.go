package cron

import (
	"Marquee/internal/api/config"
	"Marquee/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine          *cron.Cron
	cfg             config.ChatConfig
	typingSweepJob  *job.TypingSweepJob
	presenceSyncJob *job.PresenceSyncJob
}

func NewCronManager(cfg config.ChatConfig, typingSweepJob *job.TypingSweepJob, presenceSyncJob *job.PresenceSyncJob) *Manager {
	return &Manager{
		// 上一轮未结束时跳过本轮，避免清扫与同步任务堆积
		engine:          cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		cfg:             cfg,
		typingSweepJob:  typingSweepJob,
		presenceSyncJob: presenceSyncJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.cfg.TypingSweepSpec, s.typingSweepJob); err != nil {
		return err
	}
	if s.presenceSyncJob != nil {
		if _, err := s.engine.AddJob(s.cfg.PresenceSyncSpec, s.presenceSyncJob); err != nil {
			return err
		}
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

// Stop 等待正在执行的任务结束
func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
