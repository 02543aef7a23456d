package farm

import (
	"fmt"

	"github.com/TxnLab/farm/internal/lib/misc"
)

// SetRewardRate changes the per-tick emission. Every pool is accrued at the old rate first.
func (f *Farm) SetRewardRate(caller string, rewardPerTick uint64, clock uint64) error {
	err := f.apply("set reward rate", clock, func(t *txn) error {
		if err := t.requireOwner(caller); err != nil {
			return err
		}
		if err := t.accrueAll(); err != nil {
			return err
		}
		t.cfg.RewardPerTick = rewardPerTick
		return nil
	})
	if err != nil {
		return err
	}
	misc.Infof(f.logger, "reward rate set to %d per tick at clock %d", rewardPerTick, clock)
	return nil
}

// SetDevBeneficiary rotates the dev beneficiary. Only the current dev beneficiary may call it.
func (f *Farm) SetDevBeneficiary(caller, next string) error {
	return f.rotate("set dev beneficiary", caller, next,
		func(c *Config) *string { return &c.DevBeneficiary })
}

// SetFeeBeneficiary rotates the fee beneficiary. Only the current fee beneficiary may call it.
func (f *Farm) SetFeeBeneficiary(caller, next string) error {
	return f.rotate("set fee beneficiary", caller, next,
		func(c *Config) *string { return &c.FeeBeneficiary })
}

// TransferOwnership hands pool administration to next. Only the current owner may call it.
func (f *Farm) TransferOwnership(caller, next string) error {
	return f.rotate("transfer ownership", caller, next,
		func(c *Config) *string { return &c.Owner })
}

func (f *Farm) rotate(op, caller, next string, field func(c *Config) *string) error {
	var prev string
	err := f.applyNow(op, func(t *txn) error {
		current := field(&t.cfg)
		if caller != *current {
			return fmt.Errorf("%s: %w", caller, ErrUnauthorized)
		}
		if next == "" {
			return ErrInvalidAccount
		}
		if next == t.cfg.Custody {
			return fmt.Errorf("%s is the custody account: %w", next, ErrInvalidAccount)
		}
		prev, *current = *current, next
		return nil
	})
	if err != nil {
		return err
	}
	misc.Infof(f.logger, "%s: %s -> %s", op, prev, next)
	return nil
}
