package database

import (
	"Marquee/internal/api/config"
	"Marquee/internal/model"
	"Marquee/internal/pkg/logger"
	"fmt"
	log "log/slog"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewGormDB 初始化并返回 *gorm.DB 实例，处理连接池配置
func NewGormDB(cfg *config.DBConfig) (*gorm.DB, error) {
	dsnCfg, err := mysqldriver.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid database dsn: %w", err)
	}
	// 镜像表的时间列需要解析为 time.Time
	dsnCfg.ParseTime = true
	if dsnCfg.Loc == nil {
		dsnCfg.Loc = time.Local
	}

	dialector := mysql.New(mysql.Config{DSNConfig: dsnCfg})

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      logger.NewGormLogger(),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database connection check failed: %w", err)
	}

	log.Info("Database connection established successfully.")
	return db, nil
}

// AutoMigrate 镜像表结构
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Conversation{},
		&model.ConversationMember{},
		&model.ChatMessage{},
		&model.UserPresence{},
		&model.UserFollow{},
	)
}
