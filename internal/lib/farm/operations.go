package farm

import (
	"fmt"

	"github.com/TxnLab/farm/internal/lib/fixedpoint"
	"github.com/TxnLab/farm/internal/lib/misc"
)

// Deposit stakes amount of the pool's asset for account. Pending reward on the existing stake is paid first.
// The deposit fee is forwarded to the fee beneficiary and only the net amount is credited. A zero amount is a
// harvest.
func (f *Farm) Deposit(id uint64, account string, amount uint64, clock uint64) error {
	return f.apply("deposit", clock, func(t *txn) error {
		if err := t.requireParticipant(account); err != nil {
			return err
		}
		if err := t.accrue(id); err != nil {
			return err
		}
		if err := t.settle(id, account); err != nil {
			return err
		}
		p, err := t.pool(id)
		if err != nil {
			return err
		}
		s := t.stake(id, account)
		if amount > 0 {
			if err = t.f.custody.TransferIn(p.Asset, account, amount); err != nil {
				return fmt.Errorf("%w: %d %s from %s: %w", ErrAssetTransferFailed, amount, p.Asset, account, err)
			}
			fee, err := fixedpoint.MulDiv(amount, p.DepositFeeBps, MaxDepositFeeBps)
			if err != nil {
				return fmt.Errorf("deposit fee: %w", err)
			}
			if fee > 0 {
				if err = t.f.custody.TransferOut(p.Asset, t.cfg.FeeBeneficiary, fee); err != nil {
					return fmt.Errorf("%w: fee %d %s to %s: %w", ErrAssetTransferFailed, fee, p.Asset, t.cfg.FeeBeneficiary, err)
				}
				t.stats.fees += fee
			}
			net := amount - fee
			if s.Amount, err = fixedpoint.Add(s.Amount, net); err != nil {
				return fmt.Errorf("stake amount: %w", err)
			}
			if p.TotalStaked, err = fixedpoint.Add(p.TotalStaked, net); err != nil {
				return fmt.Errorf("pool total: %w", err)
			}
			t.putPool(p)
		}
		return t.resetDebt(id, account, s)
	})
}

// Harvest pays out the pending reward without changing the stake.
func (f *Farm) Harvest(id uint64, account string, clock uint64) error {
	return f.Deposit(id, account, 0, clock)
}

// Withdraw returns amount of staked asset to account after paying the pending reward. No fee applies.
func (f *Farm) Withdraw(id uint64, account string, amount uint64, clock uint64) error {
	return f.apply("withdraw", clock, func(t *txn) error {
		if err := t.requireParticipant(account); err != nil {
			return err
		}
		if _, err := t.pool(id); err != nil {
			return err
		}
		if s := t.stake(id, account); amount > s.Amount {
			return fmt.Errorf("%s has %d staked in pool %d, asked %d: %w", account, s.Amount, id, amount, ErrInsufficientStake)
		}
		if err := t.accrue(id); err != nil {
			return err
		}
		if err := t.settle(id, account); err != nil {
			return err
		}
		p, err := t.pool(id)
		if err != nil {
			return err
		}
		s := t.stake(id, account)
		if amount > 0 {
			if s.Amount, err = fixedpoint.Sub(s.Amount, amount); err != nil {
				return fmt.Errorf("stake amount: %w", err)
			}
			if p.TotalStaked, err = fixedpoint.Sub(p.TotalStaked, amount); err != nil {
				return fmt.Errorf("pool total: %w", err)
			}
			t.putPool(p)
			if err = t.f.custody.TransferOut(p.Asset, account, amount); err != nil {
				return fmt.Errorf("%w: %d %s to %s: %w", ErrAssetTransferFailed, amount, p.Asset, account, err)
			}
		}
		return t.resetDebt(id, account, s)
	})
}

// EmergencyWithdraw returns the whole stake of account without accruing or settling. Any unpaid reward is
// forfeited.
func (f *Farm) EmergencyWithdraw(id uint64, account string) error {
	var amount uint64
	err := f.applyNow("emergency withdraw", func(t *txn) error {
		if err := t.requireParticipant(account); err != nil {
			return err
		}
		p, err := t.pool(id)
		if err != nil {
			return err
		}
		amount = t.stake(id, account).Amount
		if p.TotalStaked, err = fixedpoint.Sub(p.TotalStaked, amount); err != nil {
			return fmt.Errorf("pool total: %w", err)
		}
		t.putPool(p)
		t.putStake(id, account, Stake{})
		if amount > 0 {
			if err = t.f.custody.TransferOut(p.Asset, account, amount); err != nil {
				return fmt.Errorf("%w: %d %s to %s: %w", ErrAssetTransferFailed, amount, p.Asset, account, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	promEmergencyWithdrawals.Inc()
	misc.Warnf(f.logger, "emergency withdraw of %d from pool %d by %s, pending reward forfeited", amount, id, account)
	return nil
}

// requireParticipant rejects accounts that cannot hold a stake: the empty account and the farm's custody account,
// whose transfers to itself would credit stake nobody paid for.
func (t *txn) requireParticipant(account string) error {
	if account == "" {
		return ErrInvalidAccount
	}
	if account == t.cfg.Custody {
		return fmt.Errorf("%s is the custody account: %w", account, ErrInvalidAccount)
	}
	return nil
}
