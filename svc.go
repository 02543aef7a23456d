package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/TxnLab/farm/internal/lib/misc"
)

func GetDaemonCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "daemon",
		Aliases: []string{"d"},
		Usage:   "Serve farm metrics and journal pool snapshots on a schedule",
		Before:  checkInitialized,
		Action:  runAsDaemon,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "metrics",
				Usage:   "Address the prometheus /metrics endpoint listens on",
				Value:   ":9100",
				Sources: cli.EnvVars("FARM_METRICS_ADDR"),
			},
			&cli.StringFlag{
				Name:    "snapshot-cron",
				Usage:   "Cron schedule for pool snapshots, ie: '*/5 * * * *' or '@every 1m'",
				Value:   "@every 1m",
				Sources: cli.EnvVars("FARM_SNAPSHOT_CRON"),
			},
		},
	}
}

func checkInitialized(ctx context.Context, command *cli.Command) error {
	if _, err := LoadState(App.statePath); err != nil {
		return err
	}
	return nil
}

func runAsDaemon(ctx context.Context, command *cli.Command) error {
	var wg sync.WaitGroup

	schedule := command.String("snapshot-cron")
	if err := validateSchedule(schedule); err != nil {
		return err
	}

	// Create channel used by both the signal handler and server goroutines
	// to notify the main goroutine when to stop the server.
	errc := make(chan error, 2)

	// SIGINT and SIGTERM stop the services gracefully.
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errc <- fmt.Errorf("%s", <-c)
	}()

	ctx, cancel := context.WithCancel(ctx)

	d := newDaemon(App.logger, App.statePath, App.journal, command.String("metrics"), schedule)
	if err := d.start(ctx, &wg, errc); err != nil {
		cancel()
		return err
	}

	misc.Infof(App.logger, "exiting (%v)", <-errc) // wait for termination signal

	// Send cancellation signal to the goroutines.
	cancel()
	misc.Infof(App.logger, "waiting on background tasks..")
	wg.Wait()

	misc.Infof(App.logger, "exited")
	return nil
}
