package farm

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Custody moves a pool's staked asset between a participant and the farm.
type Custody interface {
	TransferIn(asset, from string, amount uint64) error
	TransferOut(asset, to string, amount uint64) error
}

// Issuer is the reward minting authority. Transfer pays out of an account holding already-minted rewards.
type Issuer interface {
	Balance(account string) uint64
	Mint(to string, amount uint64) error
	Transfer(from, to string, amount uint64) error
}

// Reverter is implemented by collaborators that can undo the effects applied since Snapshot was called.
// When configured, a failed operation reverts every external transfer and mint it made.
type Reverter interface {
	Snapshot() int
	RevertToSnapshot(id int)
	Release(id int)
}

// Config is the farm-wide configuration. TotalAllocWeight is derived from the pools and always equals the
// sum of their weights.
type Config struct {
	RewardPerTick    uint64 `json:"rewardPerTick"`
	TotalAllocWeight uint64 `json:"totalAllocWeight"`
	StartClock       uint64 `json:"startClock"`
	Owner            string `json:"owner"`
	DevBeneficiary   string `json:"devBeneficiary"`
	FeeBeneficiary   string `json:"feeBeneficiary"`
	// Custody is the farm's own account: it holds staked assets and the minted reward pot.
	Custody string `json:"custody"`
}

func (c Config) String() string {
	return fmt.Sprintf("RewardPerTick: %d, TotalAllocWeight: %d, StartClock: %d, Owner: %s, Dev: %s, Fee: %s, Custody: %s",
		c.RewardPerTick, c.TotalAllocWeight, c.StartClock, c.Owner, c.DevBeneficiary, c.FeeBeneficiary, c.Custody)
}

type Pool struct {
	ID               uint64
	Asset            string
	AllocWeight      uint64
	DepositFeeBps    uint64
	LastAccrualClock uint64
	// AccRewardPerShare is scaled by fixedpoint.Precision. Values are never mutated in place; accrual
	// replaces the pointer.
	AccRewardPerShare *uint256.Int
	TotalStaked       uint64
}

func (p Pool) clone() Pool {
	p.AccRewardPerShare = p.AccRewardPerShare.Clone()
	return p
}

func (p Pool) String() string {
	return fmt.Sprintf("Pool{ID: %d, Asset: %s, Weight: %d, FeeBps: %d, LastAccrual: %d, AccPerShare: %s, Staked: %d}",
		p.ID, p.Asset, p.AllocWeight, p.DepositFeeBps, p.LastAccrualClock, p.AccRewardPerShare.Dec(), p.TotalStaked)
}

// Stake is one participant's position in one pool.
type Stake struct {
	Amount     uint64
	RewardDebt uint64
}

type stakeKey struct {
	pool    uint64
	account string
}
