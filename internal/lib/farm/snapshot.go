package farm

import (
	"fmt"
	"sort"

	"github.com/TxnLab/farm/internal/lib/fixedpoint"
)

// State is the serializable form of a farm. 256-bit accumulators are written as decimal strings.
type State struct {
	Config Config       `json:"config"`
	Clock  uint64       `json:"clock"`
	Pools  []PoolState  `json:"pools"`
	Stakes []StakeState `json:"stakes"`
}

type PoolState struct {
	Asset             string `json:"asset"`
	AllocWeight       uint64 `json:"allocWeight"`
	DepositFeeBps     uint64 `json:"depositFeeBps"`
	LastAccrualClock  uint64 `json:"lastAccrualClock"`
	AccRewardPerShare string `json:"accRewardPerShare"`
	TotalStaked       uint64 `json:"totalStaked"`
}

type StakeState struct {
	Pool       uint64 `json:"pool"`
	Account    string `json:"account"`
	Amount     uint64 `json:"amount"`
	RewardDebt uint64 `json:"rewardDebt"`
}

// Snapshot captures the current state. Stakes are ordered by pool then account.
func (f *Farm) Snapshot() State {
	f.RLock()
	defer f.RUnlock()
	st := State{
		Config: f.cfg,
		Clock:  f.clock,
		Pools:  make([]PoolState, 0, len(f.pools)),
		Stakes: make([]StakeState, 0, len(f.stakes)),
	}
	for _, p := range f.pools {
		st.Pools = append(st.Pools, PoolState{
			Asset:             p.Asset,
			AllocWeight:       p.AllocWeight,
			DepositFeeBps:     p.DepositFeeBps,
			LastAccrualClock:  p.LastAccrualClock,
			AccRewardPerShare: fixedpoint.Format(p.AccRewardPerShare),
			TotalStaked:       p.TotalStaked,
		})
	}
	for key, s := range f.stakes {
		st.Stakes = append(st.Stakes, StakeState{Pool: key.pool, Account: key.account, Amount: s.Amount, RewardDebt: s.RewardDebt})
	}
	sort.Slice(st.Stakes, func(i, j int) bool {
		if st.Stakes[i].Pool != st.Stakes[j].Pool {
			return st.Stakes[i].Pool < st.Stakes[j].Pool
		}
		return st.Stakes[i].Account < st.Stakes[j].Account
	})
	return st
}

// Restore rebuilds a farm from st, rejecting states that break the weight-sum, stake-sum or fee invariants.
func Restore(st State, deps Deps) (*Farm, error) {
	f, err := New(st.Config, deps)
	if err != nil {
		return nil, err
	}
	var totalWeight uint64
	for i, ps := range st.Pools {
		if ps.DepositFeeBps > MaxDepositFeeBps {
			return nil, fmt.Errorf("pool %d fee %d bps: %w", i, ps.DepositFeeBps, ErrCorruptState)
		}
		acc, err := fixedpoint.Parse(ps.AccRewardPerShare)
		if err != nil {
			return nil, fmt.Errorf("pool %d accumulator %q: %w", i, ps.AccRewardPerShare, ErrCorruptState)
		}
		if totalWeight, err = fixedpoint.Add(totalWeight, ps.AllocWeight); err != nil {
			return nil, fmt.Errorf("pool weights: %w", ErrCorruptState)
		}
		f.pools = append(f.pools, Pool{
			ID:                uint64(i),
			Asset:             ps.Asset,
			AllocWeight:       ps.AllocWeight,
			DepositFeeBps:     ps.DepositFeeBps,
			LastAccrualClock:  ps.LastAccrualClock,
			AccRewardPerShare: acc,
			TotalStaked:       ps.TotalStaked,
		})
	}
	if totalWeight != st.Config.TotalAllocWeight {
		return nil, fmt.Errorf("total weight %d, pools sum to %d: %w", st.Config.TotalAllocWeight, totalWeight, ErrCorruptState)
	}
	f.cfg.TotalAllocWeight = totalWeight

	sums := make([]uint64, len(f.pools))
	for _, ss := range st.Stakes {
		if ss.Pool >= uint64(len(f.pools)) || ss.Account == "" {
			return nil, fmt.Errorf("stake %d/%q: %w", ss.Pool, ss.Account, ErrCorruptState)
		}
		if sums[ss.Pool], err = fixedpoint.Add(sums[ss.Pool], ss.Amount); err != nil {
			return nil, fmt.Errorf("pool %d stakes: %w", ss.Pool, ErrCorruptState)
		}
		f.stakes[stakeKey{ss.Pool, ss.Account}] = Stake{Amount: ss.Amount, RewardDebt: ss.RewardDebt}
	}
	for i, p := range f.pools {
		if sums[i] != p.TotalStaked {
			return nil, fmt.Errorf("pool %d total %d, stakes sum to %d: %w", i, p.TotalStaked, sums[i], ErrCorruptState)
		}
		promStaked.WithLabelValues(fmt.Sprint(i)).Set(float64(p.TotalStaked))
	}
	promPoolCount.Set(float64(len(f.pools)))
	f.clock = st.Clock
	return f, nil
}
