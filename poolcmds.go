package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/TxnLab/farm/internal/lib/farm"
	"github.com/TxnLab/farm/internal/lib/fixedpoint"
	"github.com/TxnLab/farm/internal/lib/misc"
)

func GetPoolCmdOpts() *cli.Command {
	settleFlag := &cli.BoolFlag{
		Name:  "settle",
		Usage: "Accrue every pool before the weight change so past ticks are paid at the old weights",
		Value: true,
	}
	return &cli.Command{
		Name:    "pool",
		Aliases: []string{"p"},
		Usage:   "Add, configure and inspect staking pools",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "List all pools",
				Action:  PoolsList,
			},
			{
				Name:   "ledger",
				Usage:  "List the stakers of a pool with their pending reward",
				Action: PoolLedger,
				Flags: []cli.Flag{
					poolFlag(),
					&cli.UintFlag{
						Name:  "clock",
						Usage: "Clock to project pending rewards to. Defaults to the last clock used",
					},
				},
			},
			{
				Name:    "add",
				Aliases: []string{"a"},
				Usage:   "Add a new staking pool (owner only)",
				Action:  PoolAdd,
				Flags: []cli.Flag{
					asFlag(),
					clockFlag(),
					settleFlag,
					&cli.StringFlag{
						Name:     "asset",
						Usage:    "Asset staked into the pool",
						Required: true,
					},
					&cli.UintFlag{
						Name:     "weight",
						Usage:    "Allocation weight, the pool's share of emission is weight/total weight",
						Required: true,
					},
					&cli.UintFlag{
						Name:  "fee",
						Usage: "Deposit fee in basis points (0-10000)",
					},
				},
			},
			{
				Name:   "set",
				Usage:  "Change the weight and deposit fee of a pool (owner only)",
				Action: PoolSet,
				Flags: []cli.Flag{
					asFlag(),
					clockFlag(),
					poolFlag(),
					settleFlag,
					&cli.UintFlag{
						Name:     "weight",
						Usage:    "New allocation weight",
						Required: true,
					},
					&cli.UintFlag{
						Name:  "fee",
						Usage: "New deposit fee in basis points (0-10000)",
					},
				},
			},
			{
				Name:   "accrue",
				Usage:  "Bring a pool (or every pool with --all) up to the given clock",
				Action: PoolAccrue,
				Flags: []cli.Flag{
					clockFlag(),
					&cli.UintFlag{
						Name:  "pool",
						Usage: "Pool ID",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Accrue every pool",
					},
				},
			},
		},
	}
}

func PoolsList(ctx context.Context, command *cli.Command) error {
	s, err := App.load()
	if err != nil {
		return err
	}
	cfg := s.farm.Config()

	out := new(strings.Builder)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Pool\tAsset\tWeight\tShare\tFee (bps)\tStakers\tTotal Staked\tLast Accrual\t")
	var totalStaked uint64
	for _, pool := range s.farm.Pools() {
		share := 0.0
		if cfg.TotalAllocWeight > 0 {
			share = float64(pool.AllocWeight) / float64(cfg.TotalAllocWeight) * 100
		}
		totalStaked += pool.TotalStaked
		numbers.Fprintf(tw, "%d\t%s\t%d\t%.2f%%\t%d\t%d\t%d\t%d\t\n", pool.ID, pool.Asset, pool.AllocWeight, share,
			pool.DepositFeeBps, len(s.farm.Stakers(pool.ID)), pool.TotalStaked, pool.LastAccrualClock)
	}
	numbers.Fprintf(tw, "TOTAL\t\t%d\t\t\t\t%d\t\t\n", cfg.TotalAllocWeight, totalStaked)
	tw.Flush()
	fmt.Print(out.String())
	numbers.Printf("Emission: %d %s per tick from clock %d, last clock used: %d\n", cfg.RewardPerTick,
		s.state.RewardAsset, cfg.StartClock, s.farm.Clock())
	return nil
}

func PoolLedger(ctx context.Context, command *cli.Command) error {
	s, err := App.load()
	if err != nil {
		return err
	}
	poolID := command.Uint("pool")
	pool, err := s.farm.Pool(poolID)
	if err != nil {
		return err
	}
	clock := command.Uint("clock")
	if clock == 0 {
		clock = s.farm.Clock()
	}
	pending, err := s.farm.PendingRewards(poolID, clock)
	if err != nil {
		return err
	}

	out := new(strings.Builder)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Account\tStaked\tReward Debt\tPending\tPct\t")
	var totalPending uint64
	for _, account := range s.farm.Stakers(poolID) {
		stake, err := s.farm.Stake(poolID, account)
		if err != nil {
			return err
		}
		if stake.Amount == 0 && pending[account] == 0 {
			continue
		}
		pct := 0.0
		if pool.TotalStaked > 0 {
			pct = float64(stake.Amount) / float64(pool.TotalStaked) * 100
		}
		totalPending += pending[account]
		numbers.Fprintf(tw, "%s\t%d\t%d\t%d\t%.2f%%\t\n", account, stake.Amount, stake.RewardDebt, pending[account], pct)
	}
	numbers.Fprintf(tw, "TOTAL\t%d\t\t%d\t\t\n", pool.TotalStaked, totalPending)
	tw.Flush()
	fmt.Print(out.String())
	fmt.Printf("Accumulated reward per share (x%d): %s at clock %d\n", fixedpoint.Precision, pool.AccRewardPerShare.Dec(), clock)
	return nil
}

func PoolAdd(ctx context.Context, command *cli.Command) error {
	var (
		caller = command.String("as")
		asset  = command.String("asset")
		weight = command.Uint("weight")
		fee    = command.Uint("fee")
		clock  = command.Uint("clock")
		settle = command.Bool("settle")
		id     uint64
	)
	args := map[string]any{"asset": asset, "weight": weight, "fee": fee, "settle": settle, "clock": clock}
	err := App.mutate(ctx, "add pool", caller, args, func(s *session) error {
		if asset == s.state.RewardAsset {
			return fmt.Errorf("pool cannot stake the reward asset %s", asset)
		}
		var err error
		id, err = s.farm.AddPool(caller, weight, asset, fee, settle, clock)
		return err
	})
	if err != nil {
		return err
	}
	misc.Infof(App.logger, "added pool %d for %s", id, asset)
	return nil
}

func PoolSet(ctx context.Context, command *cli.Command) error {
	var (
		caller = command.String("as")
		id     = command.Uint("pool")
		weight = command.Uint("weight")
		fee    = command.Uint("fee")
		clock  = command.Uint("clock")
		settle = command.Bool("settle")
	)
	args := map[string]any{"pool": id, "weight": weight, "fee": fee, "settle": settle, "clock": clock}
	return App.mutate(ctx, "set pool", caller, args, func(s *session) error {
		return s.farm.SetPool(caller, id, weight, fee, settle, clock)
	})
}

func PoolAccrue(ctx context.Context, command *cli.Command) error {
	clock := command.Uint("clock")
	if command.Bool("all") {
		return App.mutate(ctx, "accrue all", "", map[string]any{"clock": clock}, func(s *session) error {
			return s.farm.AccrueAll(clock)
		})
	}
	if !command.IsSet("pool") {
		return fmt.Errorf("either --pool or --all is required")
	}
	id := command.Uint("pool")
	return App.mutate(ctx, "accrue", "", map[string]any{"pool": id, "clock": clock}, func(s *session) error {
		return s.farm.Accrue(id, clock)
	})
}

// poolOrErr returns pool id, converting the error into a user-friendly message.
func poolOrErr(f *farm.Farm, id uint64) (farm.Pool, error) {
	pool, err := f.Pool(id)
	if err != nil {
		return farm.Pool{}, fmt.Errorf("pool %d does not exist, see 'farm pool list'", id)
	}
	return pool, nil
}
