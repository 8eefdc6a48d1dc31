package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mindhaven/backend/predictor"
	"github.com/mindhaven/backend/repository"
	"github.com/mindhaven/backend/services"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// Setup structured logging with JSON format
	jsonLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(jsonLogger)

	config := services.LoadConfig()

	db, err := openDatabase(config)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(config.Database.MaxIdleConns)
		sqlDB.SetMaxOpenConns(config.Database.MaxOpenConns)
	}

	repo := repository.NewGORMRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		slog.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	if config.Database.Seed {
		seeder := services.NewDatabaseSeeder(repo)
		if err := seeder.SeedDatabase(); err != nil {
			slog.Error("Failed to seed database", "error", err)
		}
	}

	// Train the stress predictor, or restore the last stored snapshot
	pred := predictor.New(config.Predictor.Seed)
	if err := pred.LoadOrTrain(context.Background(), repo, config.Predictor.Epochs, config.Predictor.LearningRate, config.Predictor.Seed); err != nil {
		slog.Error("Failed to initialize stress predictor", "error", err)
		os.Exit(1)
	}

	server := services.NewServer(config)
	server.SetDatabase(repo, repository.NewStatsRepository(db), db)
	server.SetPredictor(pred)

	if config.Redis.URL != "" {
		opts, err := redis.ParseURL(config.Redis.URL)
		if err != nil {
			slog.Error("Invalid Redis URL", "error", err)
			os.Exit(1)
		}
		queue := repository.NewMatchQueue(redis.NewClient(opts))
		if err := queue.Ping(context.Background()); err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		server.SetQueue(queue)
		slog.Info("Connected to Redis")
	} else {
		slog.Warn("Redis URL not configured, matchmaking disabled")
	}

	if err := server.InitializeServices(); err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}

	server.Start()
}

// openDatabase connects to Postgres when a DSN is configured and falls back
// to a local SQLite file for development.
func openDatabase(config *services.Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(config.Database.LogLevel)),
	}

	if config.Database.URL != "" {
		// Probe connectivity with pgx first for a clearer error than a
		// lazy GORM connection would give.
		pool, err := pgxpool.New(context.Background(), config.Database.URL)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(context.Background()); err != nil {
			pool.Close()
			return nil, err
		}
		pool.Close()

		slog.Info("Connecting to Postgres")
		return gorm.Open(postgres.Open(config.Database.URL), gormConfig)
	}

	slog.Info("Connecting to SQLite", "path", config.Database.SQLitePath)
	return gorm.Open(sqlite.Open(config.Database.SQLitePath), gormConfig)
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "info":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}
