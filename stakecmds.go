package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v3"

	"github.com/TxnLab/farm/internal/lib/misc"
)

func GetStakeCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "stake",
		Aliases: []string{"s"},
		Usage:   "Deposit into and withdraw from pools, harvest rewards",
		Commands: []*cli.Command{
			{
				Name:   "deposit",
				Usage:  "Stake an amount of the pool's asset. Pending reward is paid first and the deposit fee is deducted",
				Action: StakeDeposit,
				Flags:  []cli.Flag{asFlag(), clockFlag(), poolFlag(), amountFlag("Amount of the pool asset to stake")},
			},
			{
				Name:   "withdraw",
				Usage:  "Withdraw staked asset after paying the pending reward",
				Action: StakeWithdraw,
				Flags:  []cli.Flag{asFlag(), clockFlag(), poolFlag(), amountFlag("Amount of the pool asset to withdraw")},
			},
			{
				Name:   "harvest",
				Usage:  "Collect the pending reward without changing the stake",
				Action: StakeHarvest,
				Flags:  []cli.Flag{asFlag(), clockFlag(), poolFlag()},
			},
			{
				Name:   "emergency",
				Usage:  "Withdraw the whole stake without collecting rewards. Pending reward is forfeited",
				Action: StakeEmergency,
				Flags: []cli.Flag{
					asFlag(),
					poolFlag(),
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Skip the confirmation prompt",
					},
				},
			},
			{
				Name:   "pending",
				Usage:  "Show the reward an account would collect at a clock",
				Action: StakePending,
				Flags: []cli.Flag{
					asFlag(),
					poolFlag(),
					&cli.UintFlag{
						Name:  "clock",
						Usage: "Clock to project to. Defaults to the last clock used",
					},
				},
			},
		},
	}
}

func StakeDeposit(ctx context.Context, command *cli.Command) error {
	var (
		caller = command.String("as")
		id     = command.Uint("pool")
		amount = command.Uint("amount")
		clock  = command.Uint("clock")
	)
	args := map[string]any{"pool": id, "amount": amount, "clock": clock}
	return App.mutate(ctx, "deposit", caller, args, func(s *session) error {
		before := s.bank.BalanceOf(s.state.RewardAsset, caller)
		if err := s.farm.Deposit(id, caller, amount, clock); err != nil {
			return err
		}
		reportPaid(s, caller, before)
		return nil
	})
}

func StakeWithdraw(ctx context.Context, command *cli.Command) error {
	var (
		caller = command.String("as")
		id     = command.Uint("pool")
		amount = command.Uint("amount")
		clock  = command.Uint("clock")
	)
	args := map[string]any{"pool": id, "amount": amount, "clock": clock}
	return App.mutate(ctx, "withdraw", caller, args, func(s *session) error {
		before := s.bank.BalanceOf(s.state.RewardAsset, caller)
		if err := s.farm.Withdraw(id, caller, amount, clock); err != nil {
			return err
		}
		reportPaid(s, caller, before)
		return nil
	})
}

func StakeHarvest(ctx context.Context, command *cli.Command) error {
	var (
		caller = command.String("as")
		id     = command.Uint("pool")
		clock  = command.Uint("clock")
	)
	return App.mutate(ctx, "harvest", caller, map[string]any{"pool": id, "clock": clock}, func(s *session) error {
		before := s.bank.BalanceOf(s.state.RewardAsset, caller)
		if err := s.farm.Harvest(id, caller, clock); err != nil {
			return err
		}
		reportPaid(s, caller, before)
		return nil
	})
}

func StakeEmergency(ctx context.Context, command *cli.Command) error {
	var (
		caller = command.String("as")
		id     = command.Uint("pool")
	)
	if !command.Bool("yes") {
		s, err := App.load()
		if err != nil {
			return err
		}
		pool, err := poolOrErr(s.farm, id)
		if err != nil {
			return err
		}
		stake, _ := s.farm.Stake(id, caller)
		pending, _ := s.farm.PendingReward(id, caller, s.farm.Clock())
		prompt := numbers.Sprintf("Withdraw %d %s from pool %d, forfeiting at least %d %s", stake.Amount, pool.Asset,
			id, pending, s.state.RewardAsset)
		if _, err = yesNo(prompt); err != nil {
			if errors.Is(err, promptui.ErrAbort) {
				return fmt.Errorf("emergency withdraw cancelled")
			}
			return err
		}
	}
	return App.mutate(ctx, "emergency withdraw", caller, map[string]any{"pool": id}, func(s *session) error {
		return s.farm.EmergencyWithdraw(id, caller)
	})
}

func StakePending(ctx context.Context, command *cli.Command) error {
	s, err := App.load()
	if err != nil {
		return err
	}
	var (
		caller = command.String("as")
		id     = command.Uint("pool")
		clock  = command.Uint("clock")
	)
	if clock == 0 {
		clock = s.farm.Clock()
	}
	stake, err := s.farm.Stake(id, caller)
	if err != nil {
		return err
	}
	pending, err := s.farm.PendingReward(id, caller, clock)
	if err != nil {
		return err
	}
	numbers.Printf("%s in pool %d: staked %d, pending %d %s at clock %d\n", caller, id, stake.Amount, pending,
		s.state.RewardAsset, clock)
	return nil
}

func reportPaid(s *session, account string, before uint64) {
	if paid := s.bank.BalanceOf(s.state.RewardAsset, account) - before; paid > 0 {
		misc.Infof(App.logger, "paid %s", numbers.Sprintf("%d %s to %s", paid, s.state.RewardAsset, account))
	}
}
