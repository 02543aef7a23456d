package farm

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/TxnLab/farm/internal/lib/fixedpoint"
	"github.com/TxnLab/farm/internal/lib/misc"
)

// Multiplier returns the number of rewardable ticks in (from, to], ignoring anything before the start clock.
func Multiplier(startClock, from, to uint64) uint64 {
	if from < startClock {
		from = startClock
	}
	if to <= from {
		return 0
	}
	return to - from
}

// accrual is the outcome of bringing a pool up to a clock, without side effects.
type accrual struct {
	reward    uint64
	devReward uint64
	acc       *uint256.Int
}

// projectAccrual computes what accruing p at clock would mint and the resulting accumulator.
// The second return is false when the pool has nothing to credit (no time elapsed, no stake or no weight).
func projectAccrual(cfg Config, p Pool, clock uint64) (accrual, bool, error) {
	if clock <= p.LastAccrualClock || p.TotalStaked == 0 || p.AllocWeight == 0 || cfg.TotalAllocWeight == 0 {
		return accrual{acc: p.AccRewardPerShare}, false, nil
	}
	elapsed := Multiplier(cfg.StartClock, p.LastAccrualClock, clock)
	gross, err := fixedpoint.Product(cfg.RewardPerTick, elapsed, p.AllocWeight)
	if err != nil {
		return accrual{}, false, err
	}
	reward, err := fixedpoint.Quo(gross, cfg.TotalAllocWeight)
	if err != nil {
		return accrual{}, false, err
	}
	perShare, err := fixedpoint.Scale(reward, p.TotalStaked)
	if err != nil {
		return accrual{}, false, err
	}
	acc, err := fixedpoint.Accumulate(p.AccRewardPerShare, perShare)
	if err != nil {
		return accrual{}, false, err
	}
	return accrual{reward: reward, devReward: reward / DevShareDivisor, acc: acc}, true, nil
}

// accrue brings pool id up to the transaction clock, minting the pool reward into custody and the dev top-up.
func (t *txn) accrue(id uint64) error {
	p, err := t.pool(id)
	if err != nil {
		return err
	}
	if t.clock <= p.LastAccrualClock {
		return nil
	}
	a, credit, err := projectAccrual(t.cfg, p, t.clock)
	if err != nil {
		return fmt.Errorf("accrue pool %d: %w", id, err)
	}
	if credit {
		if a.devReward > 0 {
			if err = t.f.issuer.Mint(t.cfg.DevBeneficiary, a.devReward); err != nil {
				return fmt.Errorf("%w: dev top-up for pool %d: %w", ErrMintFailed, id, err)
			}
		}
		if a.reward > 0 {
			if err = t.f.issuer.Mint(t.cfg.Custody, a.reward); err != nil {
				return fmt.Errorf("%w: reward for pool %d: %w", ErrMintFailed, id, err)
			}
		}
		t.stats.minted += a.reward
		t.stats.devMinted += a.devReward
		t.f.logger.Debug("pool accrued", "pool", id, "from", p.LastAccrualClock, "to", t.clock,
			"reward", a.reward, "dev", a.devReward, "accPerShare", a.acc.Dec())
		p.AccRewardPerShare = a.acc
	}
	p.LastAccrualClock = t.clock
	t.putPool(p)
	return nil
}

func (t *txn) accrueAll() error {
	for id := uint64(0); id < t.poolCount(); id++ {
		if err := t.accrue(id); err != nil {
			return err
		}
	}
	return nil
}

func (t *txn) requireOwner(caller string) error {
	if caller != t.cfg.Owner {
		return fmt.Errorf("%s is not the owner: %w", caller, ErrUnauthorized)
	}
	return nil
}

func validateFee(feeBps uint64) error {
	if feeBps > MaxDepositFeeBps {
		return fmt.Errorf("%d bps (max %d): %w", feeBps, MaxDepositFeeBps, ErrInvalidFeeBps)
	}
	return nil
}

// AddPool appends a pool for asset and returns its id. When settleAll is set every existing pool is accrued
// first, so the new weight does not dilute rewards already earned.
func (f *Farm) AddPool(caller string, allocWeight uint64, asset string, depositFeeBps uint64, settleAll bool, clock uint64) (uint64, error) {
	var id uint64
	err := f.apply("add pool", clock, func(t *txn) error {
		if err := t.requireOwner(caller); err != nil {
			return err
		}
		if err := validateFee(depositFeeBps); err != nil {
			return err
		}
		if settleAll {
			if err := t.accrueAll(); err != nil {
				return err
			}
		}
		total, err := fixedpoint.Add(t.cfg.TotalAllocWeight, allocWeight)
		if err != nil {
			return fmt.Errorf("total weight: %w", err)
		}
		t.cfg.TotalAllocWeight = total

		last := clock
		if last < t.cfg.StartClock {
			last = t.cfg.StartClock
		}
		id = t.poolCount()
		t.added = append(t.added, Pool{
			ID:                id,
			Asset:             asset,
			AllocWeight:       allocWeight,
			DepositFeeBps:     depositFeeBps,
			LastAccrualClock:  last,
			AccRewardPerShare: fixedpoint.Zero(),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	misc.Infof(f.logger, "pool %d added for %s, weight:%d, fee:%d bps", id, asset, allocWeight, depositFeeBps)
	return id, nil
}

// SetPool changes the weight and deposit fee of pool id.
func (f *Farm) SetPool(caller string, id uint64, allocWeight uint64, depositFeeBps uint64, settleAll bool, clock uint64) error {
	err := f.apply("set pool", clock, func(t *txn) error {
		if err := t.requireOwner(caller); err != nil {
			return err
		}
		p, err := t.pool(id)
		if err != nil {
			return err
		}
		if err = validateFee(depositFeeBps); err != nil {
			return err
		}
		if settleAll {
			if err = t.accrueAll(); err != nil {
				return err
			}
			// re-read, accrual may have touched it
			if p, err = t.pool(id); err != nil {
				return err
			}
		}
		total, err := fixedpoint.Sub(t.cfg.TotalAllocWeight, p.AllocWeight)
		if err != nil {
			return fmt.Errorf("total weight: %w", err)
		}
		if total, err = fixedpoint.Add(total, allocWeight); err != nil {
			return fmt.Errorf("total weight: %w", err)
		}
		t.cfg.TotalAllocWeight = total
		p.AllocWeight = allocWeight
		p.DepositFeeBps = depositFeeBps
		t.putPool(p)
		return nil
	})
	if err != nil {
		return err
	}
	misc.Infof(f.logger, "pool %d updated, weight:%d, fee:%d bps", id, allocWeight, depositFeeBps)
	return nil
}

// Accrue brings a single pool up to clock.
func (f *Farm) Accrue(id uint64, clock uint64) error {
	return f.apply("accrue", clock, func(t *txn) error {
		return t.accrue(id)
	})
}

// AccrueAll brings every pool up to clock, in registry order.
func (f *Farm) AccrueAll(clock uint64) error {
	return f.apply("accrue all", clock, func(t *txn) error {
		return t.accrueAll()
	})
}
