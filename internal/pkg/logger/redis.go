package logger

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLoggerHook 记录 Redis 连接、命令与管道的异常和慢调用
type RedisLoggerHook struct {
	SlowThreshold time.Duration
}

func NewRedisLogger() *RedisLoggerHook {
	return &RedisLoggerHook{SlowThreshold: 100 * time.Millisecond}
}

// DialHook 记录建立连接的事件
func (s *RedisLoggerHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		if err != nil {
			log.ErrorContext(ctx, "Redis Dial Error",
				log.String("addr", addr),
				log.Duration("latency", time.Since(start)),
				log.Any("err", err),
			)
		}
		return conn, err
	}
}

// ProcessHook 记录普通单条命令执行情况
func (s *RedisLoggerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		elapsed := time.Since(start)

		if err == nil && elapsed < s.SlowThreshold {
			return nil
		}
		if err != nil && isBenignRedisErr(cmd.Name(), err) {
			return err
		}

		fields := []any{
			log.String("command", cmd.Name()),
			log.String("args", redactArgs(cmd)),
			log.Duration("latency", elapsed),
		}
		if err != nil {
			log.ErrorContext(ctx, "Redis Error", append(fields, log.Any("err", err))...)
		} else {
			log.WarnContext(ctx, "Redis Slow", fields...)
		}
		return err
	}
}

// ProcessPipelineHook 记录管道/事务命令执行情况
func (s *RedisLoggerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		elapsed := time.Since(start)

		if err == nil && elapsed < s.SlowThreshold {
			return nil
		}
		if errors.Is(err, redis.Nil) || errors.Is(err, redis.TxFailedErr) {
			return err
		}

		names := make([]string, 0, len(cmds))
		for _, c := range cmds {
			names = append(names, c.Name())
		}
		fields := []any{
			log.Int("cmd_count", len(cmds)),
			log.String("commands", strings.Join(names, ",")),
			log.Duration("latency", elapsed),
		}
		if err != nil {
			log.ErrorContext(ctx, "Redis Pipeline Error", append(fields, log.Any("err", err))...)
		} else {
			log.WarnContext(ctx, "Redis Pipeline Slow", fields...)
		}
		return err
	}
}

func isBenignRedisErr(cmdName string, err error) bool {
	if errors.Is(err, redis.Nil) || errors.Is(err, redis.TxFailedErr) {
		return true
	}
	// 旧版本服务端不支持 CLIENT SETINFO
	return cmdName == "client" && strings.Contains(err.Error(), "setinfo")
}

func redactArgs(cmd redis.Cmder) string {
	switch cmd.Name() {
	case "auth", "hello":
		return "[PROTECTED]"
	}
	args := fmt.Sprint(cmd.Args())
	if len(args) > 512 {
		args = args[:512] + "...[truncated]"
	}
	return args
}
