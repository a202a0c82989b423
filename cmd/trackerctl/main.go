package main

import (
	"context"
	"fmt"
	"os"

	"trackerbot.app/relay/common/id"
	"trackerbot.app/relay/common/logger"
	"trackerbot.app/relay/core/config"
	"trackerbot.app/relay/internal/bootstrap"
	"trackerbot.app/relay/internal/cli"
	"trackerbot.app/relay/internal/queue"
	"trackerbot.app/relay/internal/service"
)

func main() {
	label := os.Getenv("CONTRIBUTOR_LABEL_PATTERN")
	if label == "" {
		label = "odhack"
	}

	cmd := cli.NewCommand(connect, os.Stdout, label)
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "trackerctl: %v\n", err)
		os.Exit(1)
	}
}

func connect(ctx context.Context) (cli.Backend, error) {
	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return nil, err
	}
	// stdout carries command output.
	logger.Setup(cfg, logger.WithOutput(os.Stderr))

	if err := id.Init(3); err != nil {
		return nil, fmt.Errorf("initializing id generator: %w", err)
	}

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &backend{app: app}, nil
}

type backend struct {
	app *bootstrap.App
}

func (b *backend) Tracker() service.TrackerService { return b.app.Services.Tracker() }
func (b *backend) Issues() service.IssueService    { return b.app.Services.Issues() }
func (b *backend) Reviews() service.ReviewService  { return b.app.Services.Reviews() }
func (b *backend) Support() service.SupportService { return b.app.Services.Support() }
func (b *backend) Producer() queue.Producer        { return b.app.Producer }
func (b *backend) Close()                          { b.app.Close() }
