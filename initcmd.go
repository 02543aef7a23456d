package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/TxnLab/farm/internal/config"
	"github.com/TxnLab/farm/internal/lib/bank"
	"github.com/TxnLab/farm/internal/lib/farm"
	"github.com/TxnLab/farm/internal/lib/journal"
	"github.com/TxnLab/farm/internal/lib/misc"
)

func GetInitCmdOpts() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create a new farm from a genesis file, or interactively when run on a terminal without one",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "genesis",
				Usage:   "YAML genesis file",
				Sources: cli.EnvVars("FARM_GENESIS"),
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Replace an existing farm without asking",
			},
		},
		Action: InitFarm,
	}
}

func InitFarm(ctx context.Context, command *cli.Command) error {
	var (
		genesis config.Genesis
		err     error
	)
	if path := command.String("genesis"); path == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		genesis, err = genesisWizard()
	} else {
		genesis, err = config.Load(path)
	}
	if err != nil {
		return err
	}

	if _, err = os.Stat(App.statePath); err == nil && !command.Bool("force") {
		if _, err = yesNo(fmt.Sprintf("Replace the existing farm at %s", App.statePath)); err != nil {
			if errors.Is(err, promptui.ErrAbort) {
				return fmt.Errorf("init cancelled")
			}
			return err
		}
	}

	state, err := newState(genesis, App.logger)
	if err != nil {
		return err
	}
	if err = SaveState(App.statePath, state); err != nil {
		return err
	}
	_, err = App.journal.Record(ctx, journal.Entry{
		Clock:  state.Farm.Clock,
		Op:     "init",
		Caller: genesis.Owner,
		Args:   map[string]any{"rewardAsset": genesis.RewardAsset, "rewardPerTick": genesis.RewardPerTick, "pools": len(genesis.Pools)},
	})
	if err != nil {
		misc.Warnf(App.logger, "journal write of init failed: %v", err)
	}
	misc.Infof(App.logger, "farm initialized with %d pools, state in %s", len(state.Farm.Pools), App.statePath)
	return nil
}

// newState builds a fresh farm from genesis: faucet balances are credited and the genesis pools are added
// at clock zero.
func newState(g config.Genesis, logger *slog.Logger) (*LocalState, error) {
	ledger := bank.New()
	for account, assets := range g.Faucet {
		for asset, amount := range assets {
			if asset == g.RewardAsset {
				return nil, fmt.Errorf("faucet for %s: %s is the reward asset", account, asset)
			}
			if err := ledger.Credit(asset, account, amount); err != nil {
				return nil, fmt.Errorf("faucet for %s: %w", account, err)
			}
		}
	}
	f, err := farm.New(g.FarmConfig(), farm.Deps{
		Custody:  bank.NewCustody(ledger, g.Custody),
		Issuer:   bank.NewIssuer(ledger, g.RewardAsset),
		Reverter: ledger,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}
	for _, p := range g.Pools {
		if _, err = f.AddPool(g.Owner, p.AllocWeight, p.Asset, p.DepositFeeBps, false, 0); err != nil {
			return nil, err
		}
	}
	state := &LocalState{RewardAsset: g.RewardAsset}
	state.Capture(f, ledger)
	return state, nil
}

func genesisWizard() (config.Genesis, error) {
	var (
		g   config.Genesis
		err error
	)
	if g.Owner, err = getString("Owner account (administers pools)", "owner"); err != nil {
		return g, err
	}
	if g.DevBeneficiary, err = getString("Dev beneficiary (receives the 10% top-up)", g.Owner); err != nil {
		return g, err
	}
	if g.FeeBeneficiary, err = getString("Fee beneficiary (receives deposit fees)", g.Owner); err != nil {
		return g, err
	}
	if g.RewardAsset, err = getString("Reward asset name", config.DefaultRewardAsset); err != nil {
		return g, err
	}
	if g.RewardPerTick, err = getUint("Reward emitted per tick", 1000, 0, 1<<53); err != nil {
		return g, err
	}
	if g.StartClock, err = getUint("Clock rewards start at", 0, 0, 1<<53); err != nil {
		return g, err
	}
	g.ApplyDefaults()
	return g, g.Validate()
}
