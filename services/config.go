package services

import (
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	WebSocket   WebSocketConfig
	Predictor   PredictorConfig
	Matchmaking MatchmakingConfig
	Avatar      AvatarConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL          string // Postgres DSN; empty falls back to SQLite
	SQLitePath   string
	Seed         bool
	LogLevel     string
	MaxIdleConns int
	MaxOpenConns int
}

type RedisConfig struct {
	URL string
}

type JWTConfig struct {
	Secret string
}

type WebSocketConfig struct {
	AllowedOrigins string
}

type PredictorConfig struct {
	Epochs       int
	LearningRate float64
	Seed         int64
}

type MatchmakingConfig struct {
	SweepInterval time.Duration
	EntryTTL      time.Duration
}

type AvatarConfig struct {
	Dir     string
	MaxEdge int
}

// LoadConfig loads configuration from environment variables and config files
func LoadConfig() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.sqlite_path", "mindhaven.db")
	viper.SetDefault("database.seed", "true")
	viper.SetDefault("database.log_level", "silent")
	viper.SetDefault("database.max_idle_conns", "10")
	viper.SetDefault("database.max_open_conns", "100")
	viper.SetDefault("redis.url", "")
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("websocket.allowed_origins", "")
	viper.SetDefault("predictor.epochs", "400")
	viper.SetDefault("predictor.learning_rate", "0.1")
	viper.SetDefault("predictor.seed", "42")
	viper.SetDefault("matchmaking.sweep_interval", "2s")
	viper.SetDefault("matchmaking.entry_ttl", "120s")
	viper.SetDefault("avatar.dir", "avatars")
	viper.SetDefault("avatar.max_edge", "256")

	// Map environment variables to config keys
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("database.sqlite_path", "DATABASE_SQLITE_PATH")
	viper.BindEnv("database.seed", "DATABASE_SEED")
	viper.BindEnv("database.log_level", "DATABASE_LOG_LEVEL")
	viper.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")
	viper.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	viper.BindEnv("redis.url", "REDIS_URL")
	viper.BindEnv("jwt.secret", "JWT_SECRET")
	viper.BindEnv("websocket.allowed_origins", "WEBSOCKET_ALLOWED_ORIGINS")
	viper.BindEnv("predictor.epochs", "PREDICTOR_EPOCHS")
	viper.BindEnv("predictor.learning_rate", "PREDICTOR_LEARNING_RATE")
	viper.BindEnv("predictor.seed", "PREDICTOR_SEED")
	viper.BindEnv("matchmaking.sweep_interval", "MATCHMAKING_SWEEP_INTERVAL")
	viper.BindEnv("matchmaking.entry_ttl", "MATCHMAKING_ENTRY_TTL")
	viper.BindEnv("avatar.dir", "AVATAR_DIR")
	viper.BindEnv("avatar.max_edge", "AVATAR_MAX_EDGE")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("Config file not found, using defaults and environment variables")
		} else {
			slog.Error("Error reading config file", "error", err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
		},
		Database: DatabaseConfig{
			URL:          viper.GetString("database.url"),
			SQLitePath:   viper.GetString("database.sqlite_path"),
			Seed:         viper.GetBool("database.seed"),
			LogLevel:     viper.GetString("database.log_level"),
			MaxIdleConns: viper.GetInt("database.max_idle_conns"),
			MaxOpenConns: viper.GetInt("database.max_open_conns"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("redis.url"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("jwt.secret"),
		},
		WebSocket: WebSocketConfig{
			AllowedOrigins: viper.GetString("websocket.allowed_origins"),
		},
		Predictor: PredictorConfig{
			Epochs:       viper.GetInt("predictor.epochs"),
			LearningRate: viper.GetFloat64("predictor.learning_rate"),
			Seed:         viper.GetInt64("predictor.seed"),
		},
		Matchmaking: MatchmakingConfig{
			SweepInterval: viper.GetDuration("matchmaking.sweep_interval"),
			EntryTTL:      viper.GetDuration("matchmaking.entry_ttl"),
		},
		Avatar: AvatarConfig{
			Dir:     viper.GetString("avatar.dir"),
			MaxEdge: viper.GetInt("avatar.max_edge"),
		},
	}
}
