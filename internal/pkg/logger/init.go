package logger

import (
	"Marquee/internal/api/config"
	log "log/slog"
	"net"
	"os"
	"strings"
	"time"
)

// InitLogger 初始化全局 slog：标准输出 + 可选的 Logstash 远程上报
func InitLogger(cfg *config.Config) {
	level := ParseLevel(cfg.Log.Level)
	hStdout := log.NewJSONHandler(os.Stdout, &log.HandlerOptions{Level: level})

	var finalHandler log.Handler = hStdout

	if cfg.Logstash.Address != "" {
		conn, err := net.DialTimeout("tcp", cfg.Logstash.Address, 3*time.Second)
		if err == nil {
			hRemote := log.NewJSONHandler(conn, &log.HandlerOptions{Level: level}).
				WithAttrs([]log.Attr{
					log.String("target_index", cfg.Logstash.Index),
					log.String("log_token", cfg.Logstash.Token),
				})

			filterRemote := &RemoteFilterHandler{next: hRemote}

			finalHandler = &TeeHandler{
				handlers: []log.Handler{hStdout, filterRemote},
			}
		} else {
			log.Warn("Failed to connect to Logstash, logging to stdout only", "err", err)
		}
	}

	logger := log.New(&ContextHandler{finalHandler})
	log.SetDefault(logger)
}

// ParseLevel 未知级别按 info 处理
func ParseLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
