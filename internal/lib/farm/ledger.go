package farm

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	"github.com/mailgun/holster/v4/syncutil"

	"github.com/TxnLab/farm/internal/lib/fixedpoint"
)

// pendingAt returns what s is owed against accumulator acc.
func pendingAt(s Stake, acc *uint256.Int) (uint64, error) {
	entitled, err := fixedpoint.Unscale(s.Amount, acc)
	if err != nil {
		return 0, err
	}
	return fixedpoint.Sub(entitled, s.RewardDebt)
}

// settle pays account its pending reward in pool id. accrue must already have run at the transaction clock.
// The payout is capped at the reward pot held by custody: truncated reward debt can leave a stake owed a unit
// more than was minted for it, and that shortfall is forfeited rather than failing the operation.
// The stake's reward debt is not touched; callers reset it after changing the amount.
func (t *txn) settle(id uint64, account string) error {
	p, err := t.pool(id)
	if err != nil {
		return err
	}
	s := t.stake(id, account)
	if s.Amount == 0 {
		return nil
	}
	pending, err := pendingAt(s, p.AccRewardPerShare)
	if err != nil {
		return fmt.Errorf("pending reward for %s in pool %d: %w", account, id, err)
	}
	paid := min(pending, t.f.issuer.Balance(t.cfg.Custody))
	if paid < pending {
		t.f.logger.Debug("reward pot short", "pool", id, "account", account, "pending", pending, "paid", paid)
	}
	if paid == 0 {
		return nil
	}
	if err = t.f.issuer.Transfer(t.cfg.Custody, account, paid); err != nil {
		return fmt.Errorf("%w: paying %d reward to %s: %w", ErrAssetTransferFailed, paid, account, err)
	}
	t.stats.paid += paid
	t.f.logger.Debug("reward settled", "pool", id, "account", account, "amount", paid)
	return nil
}

// resetDebt snapshots the stake's entitlement against the pool's current accumulator.
func (t *txn) resetDebt(id uint64, account string, s Stake) error {
	p, err := t.pool(id)
	if err != nil {
		return err
	}
	debt, err := fixedpoint.Unscale(s.Amount, p.AccRewardPerShare)
	if err != nil {
		return fmt.Errorf("reward debt for %s in pool %d: %w", account, id, err)
	}
	s.RewardDebt = debt
	t.putStake(id, account, s)
	return nil
}

// PendingReward returns the reward account would be paid if it interacted with pool id at clock.
// It projects the accrual without applying it, so the value matches a real accrue followed by settlement.
func (f *Farm) PendingReward(id uint64, account string, clock uint64) (uint64, error) {
	f.RLock()
	defer f.RUnlock()
	acc, err := f.projectedAccLocked(id, clock)
	if err != nil {
		return 0, err
	}
	return pendingAt(f.stakes[stakeKey{id, account}], acc)
}

func (f *Farm) projectedAccLocked(id uint64, clock uint64) (*uint256.Int, error) {
	if id >= uint64(len(f.pools)) {
		return nil, fmt.Errorf("pool %d: %w", id, ErrUnknownPool)
	}
	a, _, err := projectAccrual(f.cfg, f.pools[id], clock)
	if err != nil {
		return nil, fmt.Errorf("project pool %d: %w", id, err)
	}
	return a.acc, nil
}

// PendingRewards computes the pending reward of every staker in pool id at clock. Stakers are evaluated
// concurrently under the read lock.
func (f *Farm) PendingRewards(id uint64, clock uint64) (map[string]uint64, error) {
	f.RLock()
	defer f.RUnlock()
	acc, err := f.projectedAccLocked(id, clock)
	if err != nil {
		return nil, err
	}
	var (
		mu      sync.Mutex
		pending = map[string]uint64{}
		fanOut  = syncutil.NewFanOut(20)
	)
	for _, account := range f.stakersLocked(id) {
		fanOut.Run(func(val any) error {
			account := val.(string)
			amount, err := pendingAt(f.stakes[stakeKey{id, account}], acc)
			if err != nil {
				return fmt.Errorf("pending reward for %s: %w", account, err)
			}
			mu.Lock()
			pending[account] = amount
			mu.Unlock()
			return nil
		}, account)
	}
	if errs := fanOut.Wait(); len(errs) > 0 {
		return nil, errs[0]
	}
	return pending, nil
}
