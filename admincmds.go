package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/TxnLab/farm/internal/lib/farm"
)

func GetAdminCmdOpts() *cli.Command {
	toFlag := &cli.StringFlag{
		Name:     "to",
		Usage:    "The new account",
		Required: true,
	}
	return &cli.Command{
		Name:  "admin",
		Usage: "Rotate privileged accounts and change the emission rate",
		Commands: []*cli.Command{
			{
				Name:   "dev",
				Usage:  "Hand the dev beneficiary role to another account (current dev beneficiary only)",
				Action: rotateAction("set dev beneficiary", (*farm.Farm).SetDevBeneficiary),
				Flags:  []cli.Flag{asFlag(), toFlag},
			},
			{
				Name:   "fee",
				Usage:  "Hand the fee beneficiary role to another account (current fee beneficiary only)",
				Action: rotateAction("set fee beneficiary", (*farm.Farm).SetFeeBeneficiary),
				Flags:  []cli.Flag{asFlag(), toFlag},
			},
			{
				Name:   "owner",
				Usage:  "Transfer pool administration to another account (owner only)",
				Action: rotateAction("transfer ownership", (*farm.Farm).TransferOwnership),
				Flags:  []cli.Flag{asFlag(), toFlag},
			},
			{
				Name:   "rate",
				Usage:  "Change the reward emitted per tick (owner only). Every pool is accrued at the old rate first",
				Action: AdminRate,
				Flags: []cli.Flag{
					asFlag(),
					clockFlag(),
					&cli.UintFlag{
						Name:     "reward",
						Usage:    "Reward units emitted per tick",
						Required: true,
					},
				},
			},
		},
	}
}

func rotateAction(op string, rotate func(f *farm.Farm, caller, next string) error) cli.ActionFunc {
	return func(ctx context.Context, command *cli.Command) error {
		caller, next := command.String("as"), command.String("to")
		return App.mutate(ctx, op, caller, map[string]any{"to": next}, func(s *session) error {
			return rotate(s.farm, caller, next)
		})
	}
}

func AdminRate(ctx context.Context, command *cli.Command) error {
	var (
		caller = command.String("as")
		reward = command.Uint("reward")
		clock  = command.Uint("clock")
	)
	args := map[string]any{"reward": reward, "clock": clock}
	return App.mutate(ctx, "set reward rate", caller, args, func(s *session) error {
		return s.farm.SetRewardRate(caller, reward, clock)
	})
}
