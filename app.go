package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/TxnLab/farm/internal/lib/journal"
	"github.com/TxnLab/farm/internal/lib/misc"
)

func initApp() *FarmApp {
	log.SetFlags(0)
	logger := misc.NewLogger(os.Stdout, os.Getenv("DEBUG") == "1")
	slog.SetDefault(logger)

	misc.LoadEnvSettings()

	// The wrapper exists first so the Before/After hooks can populate it from parsed flags.
	appConfig := &FarmApp{logger: logger}

	appConfig.cliCmd = &cli.Command{
		Name:    "farm",
		Usage:   "Multi-pool staking farm: pools, stakes, emission administration and a metrics daemon",
		Version: misc.GetVersionInfo(),
		Before: func(ctx context.Context, cmd *cli.Command) error {
			return appConfig.initStores(ctx, cmd)
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			return appConfig.close()
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "envfile",
				Usage:   "env file to load",
				Sources: cli.EnvVars("FARM_ENVFILE"),
				Aliases: []string{"e"},
			},
			&cli.StringFlag{
				Name:        "state",
				Usage:       "Path of the farm state file. Defaults to farm/state.json in the user config dir",
				Sources:     cli.EnvVars("FARM_STATE"),
				Destination: &appConfig.statePath,
				OnlyOnce:    true,
			},
			&cli.StringFlag{
				Name:        "journal",
				Usage:       "Path of the SQLite operation journal. Defaults to farm/journal.db next to the state",
				Sources:     cli.EnvVars("FARM_JOURNAL"),
				Destination: &appConfig.journalPath,
				OnlyOnce:    true,
			},
		},
		Commands: []*cli.Command{
			GetInitCmdOpts(),
			GetPoolCmdOpts(),
			GetStakeCmdOpts(),
			GetAdminCmdOpts(),
			GetBankCmdOpts(),
			GetHistoryCmdOpts(),
			GetDaemonCmdOpts(),
		},
	}
	return appConfig
}

type FarmApp struct {
	cliCmd  *cli.Command
	logger  *slog.Logger
	journal *journal.Journal

	// flag destinations
	statePath   string
	journalPath string
}

// initStores resolves the state and journal paths and opens the journal.
func (ac *FarmApp) initStores(ctx context.Context, cmd *cli.Command) error {
	if envfile := cmd.String("envfile"); envfile != "" {
		misc.Infof(ac.logger, "loading env file:%s", envfile)
		if err := misc.LoadEnvFile(envfile); err != nil {
			return err
		}
	}
	if ac.statePath == "" {
		path, err := StateFilename()
		if err != nil {
			return err
		}
		ac.statePath = path
	}
	if ac.journalPath == "" {
		ac.journalPath = JournalFilename(ac.statePath)
	}
	j, err := journal.Open(ac.journalPath)
	if err != nil {
		return err
	}
	ac.journal = j
	misc.Debugf(ac.logger, "state:%s journal:%s", ac.statePath, ac.journalPath)
	return nil
}

func (ac *FarmApp) close() error {
	if ac.journal == nil {
		return nil
	}
	return ac.journal.Close()
}
