package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Rooms     RoomsConfig     `mapstructure:"rooms"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type AppConfig struct {
	Name         string `mapstructure:"name"`
	Version      string `mapstructure:"version"`
	ShareBaseURL string `mapstructure:"share_base_url"`
}

type ServerConfig struct {
	Port        string `mapstructure:"port"`
	Host        string `mapstructure:"host"`
	Description string `mapstructure:"description"`
}

// StoreConfig selects the persistence driver: "postgres" or "memory".
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type PostgresConfig struct {
	Port     string `mapstructure:"port"`
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	Encoding string   `mapstructure:"encoding"` // json or protobuf
}

type RoomsConfig struct {
	MinPlayers   int `mapstructure:"min_players"`
	MaxPlayers   int `mapstructure:"max_players"`
	CodeAttempts int `mapstructure:"code_attempts"`
}

type SessionConfig struct {
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type RateLimitConfig struct {
	RequestsPerMinute       int `mapstructure:"requests_per_minute"`
	Burst                   int `mapstructure:"burst"`
	CreateRequestsPerMinute int `mapstructure:"create_requests_per_minute"`
	CreateBurst             int `mapstructure:"create_burst"`
}

func Read() Config {
	// .env only seeds the environment; real env vars win.
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("No .env file loaded", zap.Error(err))
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/")

	SetDefaults(viper.GetViper())

	viper.SetEnvPrefix("IMPOSTOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		zap.L().Warn("Failed to read configuration file", zap.Error(err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		zap.L().Error("Configuration could not be parsed", zap.Error(err))
	}

	return config
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "impostor-service")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.share_base_url", "http://localhost:5173")

	v.SetDefault("server.port", "8083")
	v.SetDefault("server.host", "0.0.0.0")

	v.SetDefault("store.driver", "postgres")

	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.user", "myuser")
	v.SetDefault("postgres.password", "mypassword")
	v.SetDefault("postgres.db", "impostordb")
	v.SetDefault("postgres.sslmode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "impostor-events")
	v.SetDefault("kafka.encoding", "json")

	v.SetDefault("rooms.min_players", 4)
	v.SetDefault("rooms.max_players", 20)
	v.SetDefault("rooms.code_attempts", 5)

	v.SetDefault("session.poll_interval", 2*time.Second)
	v.SetDefault("session.request_timeout", 6*time.Second)

	v.SetDefault("ratelimit.requests_per_minute", 600)
	v.SetDefault("ratelimit.burst", 60)
	v.SetDefault("ratelimit.create_requests_per_minute", 30)
	v.SetDefault("ratelimit.create_burst", 5)
}
