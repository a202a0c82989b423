// Package cli implements trackerctl, the operator command line for the tracker.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/notify"
	"trackerbot.app/relay/internal/queue"
	"trackerbot.app/relay/internal/service"
)

// Backend is what the commands need from a running installation.
type Backend interface {
	Tracker() service.TrackerService
	Issues() service.IssueService
	Reviews() service.ReviewService
	Support() service.SupportService
	Producer() queue.Producer
	Close()
}

// BackendFactory connects lazily so that --help works without infrastructure.
type BackendFactory func(ctx context.Context) (Backend, error)

var errUsage = errors.New("usage error")

func NewCommand(factory BackendFactory, out io.Writer, defaultLabel string) *cli.Command {
	run := func(action func(ctx context.Context, cmd *cli.Command, b Backend) error) cli.ActionFunc {
		return func(ctx context.Context, cmd *cli.Command) error {
			b, err := factory(ctx)
			if err != nil {
				return err
			}
			defer b.Close()
			return action(ctx, cmd, b)
		}
	}

	return &cli.Command{
		Name:  "trackerctl",
		Usage: "inspect and drive the issue tracker",
		Commands: []*cli.Command{
			{
				Name:  "scan",
				Usage: "run one reconciliation cycle now",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "enqueue", Usage: "hand the scan to the worker instead of running it here"},
				},
				Action: run(func(ctx context.Context, cmd *cli.Command, b Backend) error {
					if cmd.Bool("enqueue") {
						id, err := b.Producer().Enqueue(ctx, queue.NewScanTask())
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "enqueued scan %s\n", id)
						return nil
					}
					result, err := b.Tracker().RunCycle(ctx)
					if err != nil {
						return err
					}
					printCycle(out, result)
					return nil
				}),
			},
			{
				Name:  "digest",
				Usage: "show or send the pull request review digest for a chat",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "telegram-id", Aliases: []string{"t"}, Required: true},
					&cli.BoolFlag{Name: "send", Usage: "deliver the digest to the chat"},
				},
				Action: run(func(ctx context.Context, cmd *cli.Command, b Backend) error {
					telegramID := cmd.String("telegram-id")
					if cmd.Bool("send") {
						n, err := b.Reviews().SendDigest(ctx, telegramID)
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "sent digest covering %d pull requests\n", n)
						return nil
					}
					digest, err := b.Reviews().Digest(ctx, telegramID)
					if err != nil {
						return err
					}
					if len(digest) == 0 {
						fmt.Fprintln(out, "No reviewed pull requests.")
						return nil
					}
					fmt.Fprintln(out, notify.ReviewDigestMessage(digest))
					return nil
				}),
			},
			{
				Name:      "deadline",
				Usage:     "show the assignment deadline of an issue",
				ArgsUsage: "<owner/repo> <number>",
				Action: run(func(ctx context.Context, cmd *cli.Command, b Backend) error {
					repo, number, err := parseIssueArgs(cmd.Args().Get(0), cmd.Args().Get(1))
					if err != nil {
						return err
					}
					status, err := b.Issues().Deadline(ctx, repo, number)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, status.String())
					return nil
				}),
			},
			{
				Name:  "missed-deadlines",
				Usage: "list assigned issues without a pull request past the threshold",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "telegram-id", Aliases: []string{"t"}, Required: true},
				},
				Action: run(func(ctx context.Context, cmd *cli.Command, b Backend) error {
					repos, err := b.Issues().MissedDeadlines(ctx, cmd.String("telegram-id"))
					if err != nil {
						return err
					}
					for _, r := range repos {
						fmt.Fprintln(out, notify.MissedDeadlinesMessage(r.Repository, r.Issues))
					}
					return nil
				}),
			},
			{
				Name:  "available-issues",
				Usage: "list open unassigned issues",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "telegram-id", Aliases: []string{"t"}, Required: true},
				},
				Action: run(func(ctx context.Context, cmd *cli.Command, b Backend) error {
					repos, err := b.Issues().AvailableIssues(ctx, cmd.String("telegram-id"))
					if err != nil {
						return err
					}
					for _, r := range repos {
						fmt.Fprintln(out, notify.AvailableIssuesMessage(r.Repository, r.Issues))
					}
					return nil
				}),
			},
			{
				Name:  "support",
				Usage: "show the support contact of every repository a chat follows",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "telegram-id", Aliases: []string{"t"}, Required: true},
				},
				Action: run(func(ctx context.Context, cmd *cli.Command, b Backend) error {
					contacts, err := b.Support().Contacts(ctx, cmd.String("telegram-id"))
					if err != nil {
						return err
					}
					for _, c := range contacts {
						fmt.Fprintln(out, notify.SupportMessage(c.Repository, c.Link))
					}
					return nil
				}),
			},
			{
				Name:      "contributor",
				Usage:     "list issues assigned to a contributor",
				ArgsUsage: "<username>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "include closed issues"},
					&cli.StringFlag{Name: "label", Value: defaultLabel, Usage: "case-insensitive label pattern, empty for any"},
				},
				Action: run(func(ctx context.Context, cmd *cli.Command, b Backend) error {
					username := cmd.Args().First()
					if username == "" {
						return fmt.Errorf("%w: username is required", errUsage)
					}
					issues, err := b.Issues().ContributorIssues(ctx, username, !cmd.Bool("all"), cmd.String("label"))
					if err != nil {
						return err
					}
					fmt.Fprintln(out, notify.ContributorIssuesMessage(issues))
					return nil
				}),
			},
		},
	}
}

func parseIssueArgs(repoArg, numberArg string) (model.RepositoryRef, int, error) {
	author, name, ok := strings.Cut(repoArg, "/")
	if !ok || author == "" || name == "" {
		return model.RepositoryRef{}, 0, fmt.Errorf("%w: repository must be owner/repo", errUsage)
	}
	number, err := strconv.Atoi(numberArg)
	if err != nil || number <= 0 {
		return model.RepositoryRef{}, 0, fmt.Errorf("%w: issue number must be a positive integer", errUsage)
	}
	return model.RepositoryRef{Author: author, Name: name}, number, nil
}

func printCycle(out io.Writer, r *service.CycleResult) {
	if r.Seeded {
		fmt.Fprintf(out, "cycle %d: baseline stored for %d repositories\n", r.CycleID, r.Repositories)
		return
	}
	fmt.Fprintf(out, "cycle %d: %d repositories, %d with new issues, %d sent, %d failed\n",
		r.CycleID, r.Repositories, len(r.NewIssues), r.Delivery.Sent, len(r.Delivery.Failed))
	for _, repo := range r.Skipped {
		fmt.Fprintf(out, "  skipped %s\n", repo)
	}
}
