package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string        `yaml:"git_commit" envconfig:"RSC_GIT_COMMIT"`
	GitTag                  string        `yaml:"git_tag" envconfig:"RSC_GIT_TAG"`
	BuildTime               string        `yaml:"build_time" envconfig:"RSC_BUILD_TIME"`
	IsProduction            bool          `yaml:"is_production" envconfig:"RSC_IS_PRODUCTION"`
	LogLevel                zapcore.Level `yaml:"log_level" envconfig:"RSC_LOG_LEVEL"`
	LogFolder               string        `yaml:"log_folder" envconfig:"RSC_LOG_FOLDER"`
	LogMaxSize              int           `yaml:"log_max_size" envconfig:"RSC_LOG_MAX_SIZE"` // in megabytes
	OpsEndpointsEnable      bool          `yaml:"ops_endpoints_enable" envconfig:"RSC_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool          `yaml:"profiler_endpoints_enable" envconfig:"RSC_PROFILER_ENDPOINTS_ENABLE"`
	Shelves                 []ShelfName   `yaml:"shelves" envconfig:"RSC_SHELVES"`
	Server                  ServerConfig  `yaml:"server"`
	Stream                  StreamConfig  `yaml:"stream"`
	Display                 DisplayConfig `yaml:"display"`
	Redis                   RedisConfig   `yaml:"redis"`
	Kafka                   KafkaConfig   `yaml:"kafka"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"RSC_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"RSC_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"RSC_SERVER_READ_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"RSC_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"RSC_SERVER_SHUTDOWN_TIMEOUT"`
	LivePingPeriod  time.Duration `yaml:"live_ping_period" envconfig:"RSC_SERVER_LIVE_PING_PERIOD"`
}

type StreamConfig struct {
	Kind             string        `yaml:"kind" envconfig:"RSC_STREAM_KIND"` // websocket, redis or kafka
	URL              string        `yaml:"url" envconfig:"RSC_STREAM_URL"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" envconfig:"RSC_STREAM_HANDSHAKE_TIMEOUT"`
	ReadLimit        int64         `yaml:"read_limit" envconfig:"RSC_STREAM_READ_LIMIT"`
}

type DisplayConfig struct {
	Delay time.Duration `yaml:"delay" envconfig:"RSC_DISPLAY_DELAY"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"RSC_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"RSC_REDIS_PORT"`
	Channel       string        `yaml:"channel" envconfig:"RSC_REDIS_CHANNEL"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"RSC_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"RSC_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"RSC_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"RSC_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"RSC_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"RSC_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"RSC_REDIS_PASSWORD" json:"-"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"RSC_REDIS_DATABASE_INDEX"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" envconfig:"RSC_KAFKA_BROKERS"`
	Topic   string   `yaml:"topic" envconfig:"RSC_KAFKA_TOPIC"`
	GroupID string   `yaml:"group_id" envconfig:"RSC_KAFKA_GROUP_ID"`
}

// Defaults applied by InitConfig for non provided parameters.
const (
	DefaultStreamURL        = "ws://localhost:8091/echo/websocket"
	DefaultDisplayDelay     = 500 * time.Millisecond
	DefaultRedisChannel     = "shelves"
	DefaultLogMaxSize       = 10
	DefaultShutdownTimeout  = 10 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultLivePingPeriod   = 30 * time.Second
)

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if len(config.Shelves) == 0 {
		config.Shelves = append([]ShelfName{}, DefaultShelves...)
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = DefaultLogMaxSize
	}

	if config.Server.ShutdownTimeout <= 0 {
		config.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if config.Server.LivePingPeriod <= 0 {
		config.Server.LivePingPeriod = DefaultLivePingPeriod
	}

	// a negative delay shows snapshots as soon as they are received.
	if config.Display.Delay == 0 {
		config.Display.Delay = DefaultDisplayDelay
	}

	switch config.Stream.Kind {
	case "", StreamKindWebsocket:
		config.Stream.Kind = StreamKindWebsocket
		if len(config.Stream.URL) == 0 {
			config.Stream.URL = DefaultStreamURL
		}
		if config.Stream.HandshakeTimeout <= 0 {
			config.Stream.HandshakeTimeout = DefaultHandshakeTimeout
		}
	case StreamKindRedis:
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration file")
		}
		if len(config.Redis.Channel) == 0 {
			config.Redis.Channel = DefaultRedisChannel
		}
	case StreamKindKafka:
		if len(config.Kafka.Brokers) == 0 || len(config.Kafka.Topic) == 0 {
			return errors.New("make sure to set valid kafka brokers and topic in configuration file")
		}
	default:
		return fmt.Errorf("unsupported stream kind %q", config.Stream.Kind)
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration. The file is optional.
	err = godotenv.Load("./config.env")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `RSC`.
	err = LoadConfigEnvs("RSC", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
