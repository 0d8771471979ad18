package config

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Relay    RelayConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

var (
	ConfigInstance *Config
	once           sync.Once
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RelayConfig describes the chat relay to subscribe to. ChatroomIDs are
// numeric ids; ChannelSlugs are resolved to ids at startup via the REST
// API.
type RelayConfig struct {
	Endpoint     string
	APIBaseURL   string
	ChatroomIDs  []int64
	ChannelSlugs []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

// KafkaConfig configures the archived-event firehose. Leaving Brokers
// empty disables publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func LoadConfig() (*Config, error) {
	once.Do(func() {
		// Optional .env for local development
		_ = godotenv.Load()

		viper.SetDefault("KICKFEED_PORT", "8080")
		viper.SetDefault("KICKFEED_READ_TIMEOUT", 30*time.Second)
		viper.SetDefault("KICKFEED_WRITE_TIMEOUT", 30*time.Second)
		viper.SetDefault("KICKFEED_IDLE_TIMEOUT", 60*time.Second)
		viper.SetDefault("KICK_WS_ENDPOINT", "wss://ws-us2.pusher.com/app/32cbd69e4b950bf97679?protocol=7&client=js&version=8.4.0-rc2&flash=false")
		viper.SetDefault("KICK_API_BASE_URL", "https://kick.com")
		viper.SetDefault("KICK_CHATROOM_IDS", "")
		viper.SetDefault("KICK_CHANNELS", "")
		viper.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
		viper.SetDefault("REDIS_MAX_RETRIES", 3)
		viper.SetDefault("REDIS_POOL_SIZE", 100)
		viper.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
		viper.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
		viper.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
		viper.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
		viper.SetDefault("POSTGRES_USER", "postgres")
		viper.SetDefault("POSTGRES_PASSWORD", "password")
		viper.SetDefault("POSTGRES_HOST", "localhost")
		viper.SetDefault("POSTGRES_PORT", "5432")
		viper.SetDefault("POSTGRES_DB", "kickfeed")
		viper.SetDefault("POSTGRES_SSLMODE", "disable")
		viper.SetDefault("KAFKA_BROKERS", "")
		viper.SetDefault("KAFKA_TOPIC", "kickfeed.chat-events")
		viper.AutomaticEnv()

		ConfigInstance = &Config{
			Server: ServerConfig{
				Host:         viper.GetString("KICKFEED_HOST"),
				Port:         viper.GetString("KICKFEED_PORT"),
				ReadTimeout:  viper.GetDuration("KICKFEED_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("KICKFEED_WRITE_TIMEOUT"),
				IdleTimeout:  viper.GetDuration("KICKFEED_IDLE_TIMEOUT"),
			},
			Relay: RelayConfig{
				Endpoint:     viper.GetString("KICK_WS_ENDPOINT"),
				APIBaseURL:   viper.GetString("KICK_API_BASE_URL"),
				ChatroomIDs:  parseChatroomIDs(viper.GetString("KICK_CHATROOM_IDS")),
				ChannelSlugs: splitList(viper.GetString("KICK_CHANNELS")),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("POSTGRES_HOST"),
				Port:     viper.GetString("POSTGRES_PORT"),
				User:     viper.GetString("POSTGRES_USER"),
				Password: viper.GetString("POSTGRES_PASSWORD"),
				DBName:   viper.GetString("POSTGRES_DB"),
				SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
			},
			Redis: RedisConfig{
				Addr:         viper.GetString("REDIS_ADDR"),
				Password:     viper.GetString("REDIS_PASSWORD"),
				DB:           viper.GetInt("REDIS_DB"),
				MaxRetries:   viper.GetInt("REDIS_MAX_RETRIES"),
				DialTimeout:  viper.GetDuration("REDIS_DIAL_TIMEOUT"),
				ReadTimeout:  viper.GetDuration("REDIS_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("REDIS_WRITE_TIMEOUT"),
				PoolSize:     viper.GetInt("REDIS_POOL_SIZE"),
				MinIdleConns: viper.GetInt("REDIS_MIN_IDLE_CONNS"),
			},
			Kafka: KafkaConfig{
				Brokers: splitList(viper.GetString("KAFKA_BROKERS")),
				Topic:   viper.GetString("KAFKA_TOPIC"),
			},
		}
	})

	return ConfigInstance, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseChatroomIDs(s string) []int64 {
	var ids []int64
	for _, part := range splitList(s) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
