// Command followup-cron drives the API's cron endpoints on a schedule.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

const (
	syncPath      = "/api/cron/sync"
	followUpsPath = "/api/cron/follow-ups"
)

type options struct {
	apiURL           string
	secret           string
	syncSchedule     string
	followUpSchedule string
	timeout          time.Duration
	once             bool
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "followup-cron",
		Short: "Periodically trigger integration syncs and automatic follow-ups",
		Long: `followup-cron calls the API's cron endpoints on two schedules:

  sync          POST /api/cron/sync        (every enabled integration of every user)
  follow-ups    POST /api/cron/follow-ups  (fire due automatic follow-ups)

Use --once to trigger both a single time and exit, e.g. from an external scheduler.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.secret == "" {
				return errors.New("cron secret is required (--secret or CRON_SECRET)")
			}
			t := newTrigger(opts.apiURL, opts.secret, opts.timeout)
			if opts.once {
				return runOnce(cmd.Context(), t)
			}
			return runScheduled(cmd.Context(), t, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.apiURL, "api-url", envOr("API_URL", "http://localhost:8080"), "Base URL of the API server")
	flags.StringVar(&opts.secret, "secret", os.Getenv("CRON_SECRET"), "Shared cron secret (default $CRON_SECRET)")
	flags.StringVar(&opts.syncSchedule, "sync-schedule", "*/30 * * * *", "Cron expression for integration syncs")
	flags.StringVar(&opts.followUpSchedule, "follow-up-schedule", "0 * * * *", "Cron expression for automatic follow-ups")
	flags.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Timeout for a single trigger request")
	flags.BoolVar(&opts.once, "once", false, "Trigger both jobs once and exit")

	return cmd
}

func runOnce(ctx context.Context, t *trigger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return errors.Join(
		t.fire(ctx, "sync", syncPath),
		t.fire(ctx, "follow-ups", followUpsPath),
	)
}

func runScheduled(ctx context.Context, t *trigger, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newCron(ctx, t, opts)
	if err != nil {
		return err
	}
	c.Start()
	log.Printf("[CRON] Started: sync=%q follow-ups=%q api=%s", opts.syncSchedule, opts.followUpSchedule, opts.apiURL)

	<-ctx.Done()
	log.Printf("[CRON] Stopping, waiting for running jobs")
	<-c.Stop().Done()
	return nil
}

// newCron registers both jobs. Overlapping runs of the same job are skipped.
func newCron(ctx context.Context, t *trigger, opts *options) (*cron.Cron, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	if _, err := c.AddFunc(opts.syncSchedule, func() { _ = t.fire(ctx, "sync", syncPath) }); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", opts.syncSchedule, err)
	}
	if _, err := c.AddFunc(opts.followUpSchedule, func() { _ = t.fire(ctx, "follow-ups", followUpsPath) }); err != nil {
		return nil, fmt.Errorf("invalid follow-up schedule %q: %w", opts.followUpSchedule, err)
	}
	return c, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
