// Package farm implements the multi-pool reward ledger: pools share a global per-tick emission by weight,
// participants stake into pools and are paid their share lazily whenever they interact with a pool.
//
// Every mutating operation runs as one atomic transition. Pool, stake and config changes are staged on a
// transaction and only committed when the whole operation succeeds; external effects are rolled back through
// the configured Reverter. Reads take a shared lock and never mutate state.
package farm

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/TxnLab/farm/internal/lib/misc"
)

type Farm struct {
	logger   *slog.Logger
	custody  Custody
	issuer   Issuer
	reverter Reverter

	// guards everything below. Writes are serialized, reads may run concurrently.
	sync.RWMutex
	cfg    Config
	clock  uint64
	pools  []Pool
	stakes map[stakeKey]Stake
}

// Deps are the external collaborators of a Farm.
type Deps struct {
	Custody  Custody
	Issuer   Issuer
	Reverter Reverter
	Logger   *slog.Logger
}

// New creates an empty farm (no pools). cfg.TotalAllocWeight is ignored and starts at zero.
func New(cfg Config, deps Deps) (*Farm, error) {
	if deps.Custody == nil || deps.Issuer == nil {
		return nil, fmt.Errorf("farm requires both asset custody and reward issuer")
	}
	for name, account := range map[string]string{
		"owner": cfg.Owner, "dev beneficiary": cfg.DevBeneficiary,
		"fee beneficiary": cfg.FeeBeneficiary, "custody": cfg.Custody,
	} {
		if account == "" {
			return nil, fmt.Errorf("%s: %w", name, ErrInvalidAccount)
		}
	}
	for _, account := range []string{cfg.Owner, cfg.DevBeneficiary, cfg.FeeBeneficiary} {
		if account == cfg.Custody {
			return nil, fmt.Errorf("custody %s doubles as a privileged account: %w", cfg.Custody, ErrInvalidAccount)
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg.TotalAllocWeight = 0
	f := &Farm{
		logger:   logger,
		custody:  deps.Custody,
		issuer:   deps.Issuer,
		reverter: deps.Reverter,
		cfg:      cfg,
		stakes:   map[stakeKey]Stake{},
	}
	misc.Debugf(logger, "farm created, %s", cfg)
	return f, nil
}

func (f *Farm) PoolCount() uint64 {
	f.RLock()
	defer f.RUnlock()
	return uint64(len(f.pools))
}

func (f *Farm) Pool(id uint64) (Pool, error) {
	f.RLock()
	defer f.RUnlock()
	if id >= uint64(len(f.pools)) {
		return Pool{}, fmt.Errorf("pool %d: %w", id, ErrUnknownPool)
	}
	return f.pools[id].clone(), nil
}

func (f *Farm) Pools() []Pool {
	f.RLock()
	defer f.RUnlock()
	out := make([]Pool, len(f.pools))
	for i, p := range f.pools {
		out[i] = p.clone()
	}
	return out
}

// Stake returns the position of account in pool id; an account that never deposited has a zero stake.
func (f *Farm) Stake(id uint64, account string) (Stake, error) {
	f.RLock()
	defer f.RUnlock()
	if id >= uint64(len(f.pools)) {
		return Stake{}, fmt.Errorf("pool %d: %w", id, ErrUnknownPool)
	}
	return f.stakes[stakeKey{id, account}], nil
}

// Stakers lists every account that ever held a position in pool id, sorted.
func (f *Farm) Stakers(id uint64) []string {
	f.RLock()
	defer f.RUnlock()
	return f.stakersLocked(id)
}

func (f *Farm) stakersLocked(id uint64) []string {
	var accounts []string
	for key := range f.stakes {
		if key.pool == id {
			accounts = append(accounts, key.account)
		}
	}
	sort.Strings(accounts)
	return accounts
}

func (f *Farm) Config() Config {
	f.RLock()
	defer f.RUnlock()
	return f.cfg
}

func (f *Farm) Owner() string          { return f.Config().Owner }
func (f *Farm) DevBeneficiary() string { return f.Config().DevBeneficiary }
func (f *Farm) FeeBeneficiary() string { return f.Config().FeeBeneficiary }

// Clock is the highest clock value any committed operation has used.
func (f *Farm) Clock() uint64 {
	f.RLock()
	defer f.RUnlock()
	return f.clock
}

// txn stages the effects of one operation on copies of the farm state.
type txn struct {
	f     *Farm
	clock uint64
	cfg   Config

	pools  map[uint64]Pool
	added  []Pool
	stakes map[stakeKey]Stake

	stats opStats
}

// opStats accumulates metric deltas that are only published on commit.
type opStats struct {
	minted    uint64
	devMinted uint64
	paid      uint64
	fees      uint64
}

func (t *txn) poolCount() uint64 {
	return uint64(len(t.f.pools) + len(t.added))
}

func (t *txn) pool(id uint64) (Pool, error) {
	if p, ok := t.pools[id]; ok {
		return p, nil
	}
	n := uint64(len(t.f.pools))
	switch {
	case id < n:
		return t.f.pools[id], nil
	case id < t.poolCount():
		return t.added[id-n], nil
	}
	return Pool{}, fmt.Errorf("pool %d: %w", id, ErrUnknownPool)
}

func (t *txn) putPool(p Pool) {
	t.pools[p.ID] = p
}

func (t *txn) stake(id uint64, account string) Stake {
	key := stakeKey{id, account}
	if s, ok := t.stakes[key]; ok {
		return s
	}
	return t.f.stakes[key]
}

func (t *txn) putStake(id uint64, account string, s Stake) {
	t.stakes[stakeKey{id, account}] = s
}

func (t *txn) commit() {
	f := t.f
	f.pools = append(f.pools, t.added...)
	for id, p := range t.pools {
		f.pools[id] = p
	}
	for key, s := range t.stakes {
		f.stakes[key] = s
	}
	f.cfg = t.cfg
	f.clock = t.clock

	promRewardsMinted.Add(float64(t.stats.minted))
	promDevMinted.Add(float64(t.stats.devMinted))
	promRewardsPaid.Add(float64(t.stats.paid))
	promDepositFees.Add(float64(t.stats.fees))
	promPoolCount.Set(float64(len(f.pools)))
	for id := range t.pools {
		promStaked.WithLabelValues(fmt.Sprint(id)).Set(float64(f.pools[id].TotalStaked))
	}
}

// apply runs fn as a single all-or-nothing transition at clock.
func (f *Farm) apply(op string, clock uint64, fn func(t *txn) error) error {
	f.Lock()
	defer f.Unlock()
	return f.applyLocked(op, clock, fn)
}

// applyNow is apply at the last committed clock, for operations that do not take one.
func (f *Farm) applyNow(op string, fn func(t *txn) error) error {
	f.Lock()
	defer f.Unlock()
	return f.applyLocked(op, f.clock, fn)
}

func (f *Farm) applyLocked(op string, clock uint64, fn func(t *txn) error) error {
	if clock < f.clock {
		promOpsFailed.WithLabelValues(op).Inc()
		return fmt.Errorf("%s at clock %d (last %d): %w", op, clock, f.clock, ErrClockRegression)
	}

	var snap int
	if f.reverter != nil {
		snap = f.reverter.Snapshot()
	}
	t := &txn{
		f:      f,
		clock:  clock,
		cfg:    f.cfg,
		pools:  map[uint64]Pool{},
		stakes: map[stakeKey]Stake{},
	}
	if err := fn(t); err != nil {
		if f.reverter != nil {
			f.reverter.RevertToSnapshot(snap)
		}
		promOpsFailed.WithLabelValues(op).Inc()
		f.logger.Debug("operation aborted", "op", op, "clock", clock, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	if f.reverter != nil {
		f.reverter.Release(snap)
	}
	t.commit()
	return nil
}
