package logger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

// SlogGormLogger 将 gorm 日志接入 slog，镜像写入量大，普通语句只在 debug 级别输出
type SlogGormLogger struct {
	LogLevel      logger.LogLevel
	SlowThreshold time.Duration
}

func NewGormLogger() *SlogGormLogger {
	return &SlogGormLogger{LogLevel: logger.Warn, SlowThreshold: 200 * time.Millisecond}
}

func (l *SlogGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	n := *l
	n.LogLevel = level
	return &n
}

func (l *SlogGormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Info {
		slog.InfoContext(ctx, msg, "data", data)
	}
}

func (l *SlogGormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Warn {
		slog.WarnContext(ctx, msg, "data", data)
	}
}

func (l *SlogGormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Error {
		slog.ErrorContext(ctx, msg, "data", data)
	}
}

func (l *SlogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	operation, _, _ := strings.Cut(sql, " ")
	if operation == "" {
		operation = "Query"
	}
	msg := "MySQL " + operation

	fields := []any{
		slog.String("sql", sql),
		slog.Duration("latency", elapsed),
		slog.Int64("rows", rows),
	}

	switch {
	case err != nil && !errors.Is(err, logger.ErrRecordNotFound) && l.LogLevel >= logger.Error:
		slog.ErrorContext(ctx, msg+" Error", append(fields, slog.Any("err", err))...)
	case elapsed > l.SlowThreshold && l.LogLevel >= logger.Warn:
		slog.WarnContext(ctx, msg+" Slow", fields...)
	default:
		slog.DebugContext(ctx, msg, fields...)
	}
}
