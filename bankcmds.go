package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
)

func GetBankCmdOpts() *cli.Command {
	return &cli.Command{
		Name:  "bank",
		Usage: "Inspect and seed the in-memory asset balances the farm settles against",
		Commands: []*cli.Command{
			{
				Name:   "fund",
				Usage:  "Credit an account with a stakeable asset",
				Action: BankFund,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "account",
						Usage:    "Account to credit",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "asset",
						Usage:    "Asset to credit. The reward asset can only be minted by the farm",
						Required: true,
					},
					amountFlag("Amount to credit"),
				},
			},
			{
				Name:   "balance",
				Usage:  "Show balances, of one account or of all accounts",
				Action: BankBalance,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "account",
						Usage: "Only show this account",
					},
				},
			},
		},
	}
}

func BankFund(ctx context.Context, command *cli.Command) error {
	var (
		account = command.String("account")
		asset   = command.String("asset")
		amount  = command.Uint("amount")
	)
	args := map[string]any{"account": account, "asset": asset, "amount": amount}
	return App.mutate(ctx, "fund", "", args, func(s *session) error {
		if asset == s.state.RewardAsset {
			return fmt.Errorf("%s is the reward asset and is only minted by the farm", asset)
		}
		return s.bank.Credit(asset, account, amount)
	})
}

func BankBalance(ctx context.Context, command *cli.Command) error {
	s, err := App.load()
	if err != nil {
		return err
	}
	only := command.String("account")
	balances := s.bank.Balances()

	out := new(strings.Builder)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Account\tAsset\tBalance\t")
	for _, asset := range s.bank.Assets() {
		accounts := make([]string, 0, len(balances[asset]))
		for account := range balances[asset] {
			if only == "" || account == only {
				accounts = append(accounts, account)
			}
		}
		sort.Strings(accounts)
		for _, account := range accounts {
			numbers.Fprintf(tw, "%s\t%s\t%d\t\n", account, asset, balances[asset][account])
		}
	}
	tw.Flush()
	fmt.Print(out.String())
	return nil
}
