package config

import "time"

// Config 配置主体
type Config struct {
	Server             ServerConfig             `mapstructure:"server"`
	Log                LogConfig                `mapstructure:"log"`
	Logstash           LogstashConfig           `mapstructure:"logstash"`
	DB                 DBConfig                 `mapstructure:"database"`
	Redis              RedisConfig              `mapstructure:"redis"`
	Kafka              KafkaConfig              `mapstructure:"kafka"`
	KafkaMessageMirror KafkaMessageMirrorConfig `mapstructure:"kafka_message_mirror"`
	KafkaUserFollows   KafkaConsumerConfig      `mapstructure:"kafka_user_follows"`
	JWT                JWTConfig                `mapstructure:"jwt"`
	Chat               ChatConfig               `mapstructure:"chat"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"` // 为空时放行所有 Origin
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LogstashConfig 远程日志
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type KafkaConfig struct {
	Enable   bool           `mapstructure:"enable"`
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// KafkaMessageMirrorConfig 聊天镜像 Topic
type KafkaMessageMirrorConfig struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// KafkaConsumerConfig canal 订阅的表变更 Topic
type KafkaConsumerConfig struct {
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// ChatConfig 实时聊天核心参数
type ChatConfig struct {
	HistoryLimit          int64         `mapstructure:"history_limit"` // 每个会话最近消息列表上限
	TypingTTL             time.Duration `mapstructure:"typing_ttl"`
	TypingSweepSpec       string        `mapstructure:"typing_sweep_spec"`
	PresenceSyncSpec      string        `mapstructure:"presence_sync_spec"`
	SendBuffer            int           `mapstructure:"send_buffer"`
	ContactLimit          int           `mapstructure:"contact_limit"`
	LegacyPeerKeyFallback bool          `mapstructure:"legacy_peer_key_fallback"` // 兼容旧的 "<idA>-<idB>" 会话 ID
}

// DefaultChatConfig 默认参数
func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		HistoryLimit:     1000,
		TypingTTL:        10 * time.Second,
		TypingSweepSpec:  "@every 1s",
		PresenceSyncSpec: "@every 30s",
		SendBuffer:       256,
		ContactLimit:     1000,
	}
}
