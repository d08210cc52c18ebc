package job

import (
	"Marquee/internal/pkg/logger"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// TypingSweeper 清理过期输入状态并通知参与者
type TypingSweeper interface {
	SweepTyping(ctx context.Context) (int, error)
}

type TypingSweepJob struct {
	sweeper TypingSweeper
	timeout time.Duration
}

func NewTypingSweepJob(sweeper TypingSweeper) *TypingSweepJob {
	return &TypingSweepJob{sweeper: sweeper, timeout: 5 * time.Second}
}

func (s *TypingSweepJob) Run() {
	ctx, cancel := context.WithTimeout(logger.WithTraceID(context.Background(), "job-"+uuid.NewString()), s.timeout)
	defer cancel()

	n, err := s.sweeper.SweepTyping(ctx)
	if err != nil {
		log.ErrorContext(ctx, "typing sweep error", "swept", n, "err", err)
		return
	}
	if n > 0 {
		log.DebugContext(ctx, "typing sweep", "swept", n)
	}
}
