package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/weiawesome/wes-chat-room/internal/events"
	"github.com/weiawesome/wes-chat-room/internal/hub"
	"github.com/weiawesome/wes-chat-room/internal/identity"
	"github.com/weiawesome/wes-chat-room/internal/roomlog"
	pkgconfig "github.com/weiawesome/wes-chat-room/pkg/config"
	"github.com/weiawesome/wes-chat-room/pkg/database"
	"github.com/weiawesome/wes-chat-room/pkg/log"
	"github.com/weiawesome/wes-chat-room/pkg/storage"
)

type Config struct {
	Server    ServerConfig
	Database  database.Config
	Redis     RedisConfig
	Kafka     events.Config
	WebSocket hub.Config `mapstructure:"websocket"`
	Room      roomlog.Config
	Identity  IdentityConfig
	Token     TokenConfig
	Assets    AssetsConfig
	Log       log.Config
}

type ServerConfig struct {
	Host             string
	Port             int
	BaseURL          string        `mapstructure:"base_url"`
	AdvertiseAddress string        `mapstructure:"advertise_address"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisConfig is shared by the room registry and the directory cache. An
// empty Address disables both.
type RedisConfig struct {
	Address           string
	Password          string
	DB                int
	RegistryPrefix    string        `mapstructure:"registry_prefix"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	KeyTTL            time.Duration `mapstructure:"key_ttl"`
	DirectoryPrefix   string        `mapstructure:"directory_prefix"`
	DirectoryTTL      time.Duration `mapstructure:"directory_ttl"`
}

type IdentityConfig struct {
	identity.Config `mapstructure:",squash"`
	CookieName      string `mapstructure:"cookie_name"`
	CookieMaxAge    int    `mapstructure:"cookie_max_age"` // seconds
}

type TokenConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

type AssetsConfig struct {
	Driver   string // local, s3
	BasePath string `mapstructure:"base_path"`
	Index    string
	S3       storage.S3Config
}

// Storage converts the assets section to a storage backend config.
func (a AssetsConfig) Storage() storage.Config {
	return storage.Config{
		Driver: a.Driver,
		Local:  storage.LocalConfig{BasePath: a.BasePath},
		S3:     a.S3,
	}
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	if err := pkgconfig.BindEnvs(v, map[string]string{
		"server.port":                 "PORT",
		"server.base_url":             "BASE_URL",
		"server.advertise_address":    "ADVERTISE_ADDRESS",
		"database.driver":             "DB_DRIVER",
		"database.host":               "DB_HOST",
		"database.port":               "DB_PORT",
		"database.user":               "DB_USER",
		"database.password":           "DB_PASSWORD",
		"database.dbname":             "DB_NAME",
		"database.file_path":          "DB_FILE_PATH",
		"redis.address":               "REDIS_ADDRESS",
		"redis.password":              "REDIS_PASSWORD",
		"kafka.enabled":               "KAFKA_ENABLED",
		"kafka.brokers":               "KAFKA_BROKERS",
		"kafka.topic":                 "KAFKA_TOPIC",
		"token.secret":                "TOKEN_SECRET",
		"assets.driver":               "ASSETS_DRIVER",
		"assets.base_path":            "ASSETS_BASE_PATH",
		"assets.s3.endpoint":          "S3_ENDPOINT",
		"assets.s3.bucket":            "S3_BUCKET",
		"assets.s3.access_key_id":     "S3_ACCESS_KEY_ID",
		"assets.s3.secret_access_key": "S3_SECRET_ACCESS_KEY",
		"log.level":                   "LOG_LEVEL",
	}); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Parse durations
	cfg.Server.ShutdownTimeout = parseDuration(v, "server.shutdown_timeout", 10*time.Second)
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Redis.HeartbeatInterval = parseDuration(v, "redis.heartbeat_interval", 10*time.Second)
	cfg.Redis.KeyTTL = parseDuration(v, "redis.key_ttl", 30*time.Second)
	cfg.Redis.DirectoryTTL = parseDuration(v, "redis.directory_ttl", 24*time.Hour)
	cfg.Room.IdleTimeout = parseDuration(v, "room.idle_timeout", 10*time.Minute)
	cfg.Room.SweepInterval = parseDuration(v, "room.sweep_interval", time.Minute)
	cfg.Room.LoadTimeout = parseDuration(v, "room.load_timeout", 5*time.Second)
	cfg.Room.WriteTimeout = parseDuration(v, "room.write_timeout", 5*time.Second)
	cfg.Identity.LastKnownTimeout = parseDuration(v, "identity.last_known_timeout", 2*time.Second)
	cfg.Token.TTL = parseDuration(v, "token.ttl", 24*time.Hour)

	if cfg.Server.AdvertiseAddress == "" {
		cfg.Server.AdvertiseAddress = cfg.Server.Addr()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "chat.db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.log_level", "silent")

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.registry_prefix", "chat:registry")
	v.SetDefault("redis.heartbeat_interval", "10s")
	v.SetDefault("redis.key_ttl", "30s")
	v.SetDefault("redis.directory_prefix", "chat:directory")
	v.SetDefault("redis.directory_ttl", "24h")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "chat-room-messages")
	v.SetDefault("kafka.partitions", 8)

	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 65536)
	v.SetDefault("websocket.send_buffer", 256)

	v.SetDefault("room.idle_timeout", "10m")
	v.SetDefault("room.sweep_interval", "1m")
	v.SetDefault("room.load_timeout", "5s")
	v.SetDefault("room.write_timeout", "5s")
	v.SetDefault("room.queue_size", 256)

	v.SetDefault("identity.query_params", []string{"email", "user", "user_id"})
	v.SetDefault("identity.cookie_names", []string{"email", "user"})
	v.SetDefault("identity.last_known_fallback", true)
	v.SetDefault("identity.last_known_timeout", "2s")
	v.SetDefault("identity.cookie_name", "user")
	v.SetDefault("identity.cookie_max_age", 60*60*24*365)

	v.SetDefault("token.secret", "")
	v.SetDefault("token.ttl", "24h")
	v.SetDefault("token.issuer", "wes-chat-room")

	v.SetDefault("assets.driver", "local")
	v.SetDefault("assets.base_path", "./public")
	v.SetDefault("assets.index", "index.html")
	v.SetDefault("assets.s3.region", "us-east-1")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "chat-room")
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
