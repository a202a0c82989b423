// Package bootstrap wires the shared runtime (database, Redis, GitHub client,
// Telegram sender and services) used by every binary.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"trackerbot.app/relay/core/config"
	"trackerbot.app/relay/core/db"
	"trackerbot.app/relay/internal/cache"
	"trackerbot.app/relay/internal/notify"
	"trackerbot.app/relay/internal/queue"
	"trackerbot.app/relay/internal/service"
	"trackerbot.app/relay/internal/service/issue_tracker"
	"trackerbot.app/relay/internal/store"
	"trackerbot.app/relay/internal/tracker"
)

type App struct {
	DB       *db.DB
	Redis    *redis.Client
	Services *service.Services
	Producer queue.Producer
}

// New connects to Postgres and Redis and builds the services. The Telegram
// dispatcher is only created when a bot token is configured.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	slog.InfoContext(ctx, "database connected")

	redisClient, err := OpenRedis(ctx, cfg.Pipeline.RedisURL)
	if err != nil {
		database.Close()
		return nil, err
	}
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Pipeline.RedisStream)

	source, err := issue_tracker.NewGitHubIssueTrackerService(issue_tracker.Config{
		Token:   cfg.GitHub.Token,
		BaseURL: cfg.GitHub.BaseURL,
	})
	if err != nil {
		database.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("creating github client: %w", err)
	}

	var dispatcher *notify.Dispatcher
	if cfg.Telegram.Enabled() {
		sender, err := notify.NewTelegramSender(cfg.Telegram.BotToken)
		if err != nil {
			database.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("creating telegram sender: %w", err)
		}
		dispatcher = notify.NewDispatcher(sender, cfg.Tracker.DeliveryParallel)
	}

	services := service.NewServices(service.Deps{
		Stores:     store.NewStores(database.Queries()),
		TxRunner:   service.NewTxRunner(database),
		Source:     source,
		Snapshots:  cache.NewSnapshotCache(cache.NewRedisKV(redisClient)),
		Locker:     cache.NewLocker(redisClient),
		Dispatcher: dispatcher,
		Clock:      tracker.SystemClock,
	}, cfg.Tracker, cfg.Telegram)

	return &App{
		DB:       database,
		Redis:    redisClient,
		Services: services,
		Producer: queue.NewRedisProducer(redisClient, cfg.Pipeline.RedisStream, slog.Default()),
	}, nil
}

// Close releases the Redis client (through the producer) and the database pool.
func (a *App) Close() {
	if err := a.Producer.Close(); err != nil {
		slog.Warn("closing redis", "error", err)
	}
	a.DB.Close()
}

func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}
