package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trackerbot.app/relay/common/id"
	"trackerbot.app/relay/common/logger"
	"trackerbot.app/relay/common/otel"
	"trackerbot.app/relay/core/config"
	"trackerbot.app/relay/internal/bootstrap"
	"trackerbot.app/relay/internal/queue"
	"trackerbot.app/relay/internal/scheduler"
	"trackerbot.app/relay/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel, cfg.Env)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Setup(cfg)

	slog.InfoContext(ctx, "tracker worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Pipeline.RedisGroup,
		"consumer_name", cfg.Pipeline.RedisConsumer)

	// Different node ID than the server so IDs never collide.
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	// Scans take the cycle lock, so one task at a time is enough.
	consumer, err := queue.NewRedisConsumer(ctx, app.Redis, queue.ConsumerConfig{
		Stream:       cfg.Pipeline.RedisStream,
		Group:        cfg.Pipeline.RedisGroup,
		Consumer:     cfg.Pipeline.RedisConsumer,
		DLQStream:    cfg.Pipeline.RedisDLQStream,
		BatchSize:    1,
		Block:        5 * time.Second,
		MaxAttempts:  cfg.Pipeline.MaxAttempts,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	runner := worker.NewTaskRunner(worker.TaskRunnerConfig{
		Cycles:       app.Services.Tracker(),
		Digests:      app.Services.Reviews(),
		Redis:        app.Redis,
		StatusStream: cfg.Pipeline.RedisStatusStream,
	})

	w := worker.New(consumer, runner, worker.Config{
		MaxAttempts: cfg.Pipeline.MaxAttempts,
	})

	reclaimer := worker.NewRedisReclaimer(app.Redis, worker.RedisReclaimerConfig{
		Stream:    cfg.Pipeline.RedisStream,
		Group:     cfg.Pipeline.RedisGroup,
		Consumer:  cfg.Pipeline.RedisConsumer + "-reclaimer",
		MinIdle:   cfg.Pipeline.ReclaimMinIdle,
		Interval:  cfg.Pipeline.ReclaimInterval,
		BatchSize: 10,
	}, consumer, w.ProcessMessage, w.HandleFailedMessage)

	sched := scheduler.New(app.Producer, app.Services.Subscribers(), scheduler.Config{
		ScanInterval:   cfg.Tracker.ScanInterval,
		DigestInterval: cfg.Tracker.DigestInterval,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()
	go reclaimer.Run(ctx)
	sched.Start(ctx)

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		slog.ErrorContext(ctx, "worker exited", "error", err)
	}

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		sched.Stop()
		reclaimer.Stop()
		w.Stop()
		close(done)
	}()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
		cancel()
	case <-done:
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 _                  _                                    _
| |_ _ __ __ _  ___| | _____ _ __  __      _____  _ __| | _____ _ __
| __| '__/ _' |/ __| |/ / _ \ '__| \ \ /\ / / _ \| '__| |/ / _ \ '__|
| |_| | | (_| | (__|   <  __/ |     \ V  V / (_) | |  |   <  __/ |
 \__|_|  \__,_|\___|_|\_\___|_|      \_/\_/ \___/|_|  |_|\_\___|_|
`
