package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config := &Config{Server: ServerConfig{Host: "localhost", Port: "8080"}}
		require.NoError(t, InitConfig(config, "abc", "v1.0.0", "today"))
		assert.Equal(t, "abc", config.GitCommit)
		assert.Equal(t, "v1.0.0", config.GitTag)
		assert.Equal(t, "today", config.BuildTime)
		assert.Equal(t, DefaultShelves, config.Shelves)
		assert.Equal(t, StreamKindWebsocket, config.Stream.Kind)
		assert.Equal(t, DefaultStreamURL, config.Stream.URL)
		assert.Equal(t, DefaultHandshakeTimeout, config.Stream.HandshakeTimeout)
		assert.Equal(t, DefaultDisplayDelay, config.Display.Delay)
		assert.Equal(t, DefaultLogMaxSize, config.LogMaxSize)
		assert.Equal(t, DefaultShutdownTimeout, config.Server.ShutdownTimeout)
		assert.Equal(t, DefaultLivePingPeriod, config.Server.LivePingPeriod)
	})

	t.Run("configured values are kept", func(t *testing.T) {
		config := &Config{
			GitTag:  "v0.1.0",
			Shelves: []ShelfName{"A", "B"},
			Server:  ServerConfig{Host: "localhost", Port: "8080"},
			Display: DisplayConfig{Delay: -time.Millisecond},
			Stream:  StreamConfig{Kind: StreamKindRedis},
			Redis:   RedisConfig{Host: "localhost", Port: "6379"},
		}
		require.NoError(t, InitConfig(config, "", "", ""))
		assert.Equal(t, "v0.1.0", config.GitTag)
		assert.Equal(t, []ShelfName{"A", "B"}, config.Shelves)
		assert.Equal(t, -time.Millisecond, config.Display.Delay)
		assert.Equal(t, DefaultRedisChannel, config.Redis.Channel)
	})

	testCases := []struct {
		name   string
		config *Config
	}{
		{"missing server port", &Config{Server: ServerConfig{Host: "localhost"}}},
		{"missing redis address", &Config{Server: ServerConfig{Host: "localhost", Port: "8080"}, Stream: StreamConfig{Kind: StreamKindRedis}}},
		{"missing kafka topic", &Config{Server: ServerConfig{Host: "localhost", Port: "8080"}, Stream: StreamConfig{Kind: StreamKindKafka}, Kafka: KafkaConfig{Brokers: []string{"localhost:9092"}}}},
		{"unknown stream kind", &Config{Server: ServerConfig{Host: "localhost", Port: "8080"}, Stream: StreamConfig{Kind: "mqtt"}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, InitConfig(tc.config, "", "", ""))
		})
	}
}

func TestLoadConfigFileAndEnvs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `
log_level: debug
shelves: ["Shelf A", "Shelf B"]
server:
  host: 127.0.0.1
  port: "9090"
stream:
  kind: websocket
  url: ws://shelves.local/echo/websocket
display:
  delay: 250ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	config, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, config.LogLevel)
	assert.Equal(t, []ShelfName{"Shelf A", "Shelf B"}, config.Shelves)
	assert.Equal(t, "9090", config.Server.Port)
	assert.Equal(t, 250*time.Millisecond, config.Display.Delay)

	t.Setenv("RSC_SERVER_PORT", "7070")
	t.Setenv("RSC_DISPLAY_DELAY", "1s")
	require.NoError(t, LoadConfigEnvs("RSC", config))
	assert.Equal(t, "7070", config.Server.Port)
	assert.Equal(t, time.Second, config.Display.Delay)
	assert.Equal(t, "ws://shelves.local/echo/websocket", config.Stream.URL)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
