package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，环境变量 MARQUEE_* 可覆盖文件中的值
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("MARQUEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("logstash.index", "logstash-marquee")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_open", 50)
	v.SetDefault("database.max_lifetime", 30)
	v.SetDefault("kafka.consumer.session_timeout", 10)
	v.SetDefault("kafka.consumer.heartbeat_interval", 3)
	v.SetDefault("kafka.consumer.rebalance_timeout", 60)
	v.SetDefault("kafka.consumer.max_processing_time", 5)
	v.SetDefault("kafka_message_mirror.topic", "marquee-chat-mirror")
	v.SetDefault("kafka_message_mirror.group_id", "marquee-chat-mirror-writer")
	v.SetDefault("kafka_user_follows.topic", "canal-user-follows")
	v.SetDefault("kafka_user_follows.group_id", "marquee-contact-cache")
	v.SetDefault("jwt.issuer", "Marquee")

	d := DefaultChatConfig()
	v.SetDefault("chat.history_limit", d.HistoryLimit)
	v.SetDefault("chat.typing_ttl", d.TypingTTL)
	v.SetDefault("chat.typing_sweep_spec", d.TypingSweepSpec)
	v.SetDefault("chat.presence_sync_spec", d.PresenceSyncSpec)
	v.SetDefault("chat.send_buffer", d.SendBuffer)
	v.SetDefault("chat.contact_limit", d.ContactLimit)
	v.SetDefault("chat.legacy_peer_key_fallback", d.LegacyPeerKeyFallback)
}
