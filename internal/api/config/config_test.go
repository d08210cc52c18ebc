package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults_Without_File(t *testing.T) {
	req := require.New(t)
	t.Chdir(t.TempDir())

	req.NoError(LoadConfig())

	req.Equal(8080, Cfg.Server.Port)
	req.Equal(DefaultChatConfig().HistoryLimit, Cfg.Chat.HistoryLimit)
	req.Equal(10*time.Second, Cfg.Chat.TypingTTL)
	req.Equal("@every 1s", Cfg.Chat.TypingSweepSpec)
	req.False(Cfg.Chat.LegacyPeerKeyFallback)
	req.Equal("canal-user-follows", Cfg.KafkaUserFollows.Topic)
}

func TestLoadConfig_File_And_Env_Override(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	req.NoError(os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	req.NoError(os.WriteFile(filepath.Join(dir, "configs", "config.yaml"), []byte(`
server:
  port: 9000
chat:
  typing_ttl: 5s
  legacy_peer_key_fallback: true
`), 0o644))
	t.Chdir(dir)
	t.Setenv("MARQUEE_CHAT_HISTORY_LIMIT", "50")

	req.NoError(LoadConfig())

	req.Equal(9000, Cfg.Server.Port)
	req.Equal(5*time.Second, Cfg.Chat.TypingTTL)
	req.True(Cfg.Chat.LegacyPeerKeyFallback)
	req.EqualValues(50, Cfg.Chat.HistoryLimit)
}
