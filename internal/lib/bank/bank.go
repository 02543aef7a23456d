// Package bank is an in-memory multi-asset balance book. It backs both the staked-asset custody and the
// reward issuer used by the farm, and journals every balance change so a failed farm operation can be
// rolled back to a snapshot.
package bank

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBalanceOverflow     = errors.New("balance overflow")
	ErrUnknownSnapshot     = errors.New("unknown snapshot")
)

type change struct {
	asset   string
	account string
	prev    uint64
	existed bool
}

// Ledger holds balances keyed by asset then account.
type Ledger struct {
	sync.RWMutex
	balances map[string]map[string]uint64

	journal   []change
	snapshots []int
}

func New() *Ledger {
	return &Ledger{balances: map[string]map[string]uint64{}}
}

// Restore builds a ledger from a balances map as returned by Balances.
func Restore(balances map[string]map[string]uint64) *Ledger {
	l := New()
	for asset, accounts := range balances {
		l.balances[asset] = make(map[string]uint64, len(accounts))
		for account, amount := range accounts {
			l.balances[asset][account] = amount
		}
	}
	return l
}

func (l *Ledger) BalanceOf(asset, account string) uint64 {
	l.RLock()
	defer l.RUnlock()
	return l.balances[asset][account]
}

// Balances returns a deep copy of every balance.
func (l *Ledger) Balances() map[string]map[string]uint64 {
	l.RLock()
	defer l.RUnlock()
	out := make(map[string]map[string]uint64, len(l.balances))
	for asset, accounts := range l.balances {
		out[asset] = make(map[string]uint64, len(accounts))
		for account, amount := range accounts {
			out[asset][account] = amount
		}
	}
	return out
}

// Assets lists the known asset names in sorted order.
func (l *Ledger) Assets() []string {
	l.RLock()
	defer l.RUnlock()
	assets := make([]string, 0, len(l.balances))
	for asset := range l.balances {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}

// Credit adds newly created units of asset to account.
func (l *Ledger) Credit(asset, account string, amount uint64) error {
	l.Lock()
	defer l.Unlock()
	cur := l.balances[asset][account]
	if cur+amount < cur {
		return fmt.Errorf("credit %d %s to %s: %w", amount, asset, account, ErrBalanceOverflow)
	}
	l.set(asset, account, cur+amount)
	return nil
}

// Move transfers amount of asset between two accounts.
func (l *Ledger) Move(asset, from, to string, amount uint64) error {
	l.Lock()
	defer l.Unlock()
	if amount == 0 {
		return nil
	}
	fromBal := l.balances[asset][from]
	if fromBal < amount {
		return fmt.Errorf("move %d %s from %s (balance %d): %w", amount, asset, from, fromBal, ErrInsufficientBalance)
	}
	if from == to {
		return nil
	}
	toBal := l.balances[asset][to]
	if toBal+amount < toBal {
		return fmt.Errorf("move %d %s to %s: %w", amount, asset, to, ErrBalanceOverflow)
	}
	l.set(asset, from, fromBal-amount)
	l.set(asset, to, toBal+amount)
	return nil
}

func (l *Ledger) set(asset, account string, amount uint64) {
	accounts, ok := l.balances[asset]
	if !ok {
		accounts = map[string]uint64{}
		l.balances[asset] = accounts
	}
	prev, existed := accounts[account]
	if len(l.snapshots) > 0 {
		l.journal = append(l.journal, change{asset: asset, account: account, prev: prev, existed: existed})
	}
	accounts[account] = amount
}

// Snapshot marks the current journal position. Changes made after it can be undone with RevertToSnapshot
// until the snapshot is released.
func (l *Ledger) Snapshot() int {
	l.Lock()
	defer l.Unlock()
	l.snapshots = append(l.snapshots, len(l.journal))
	return len(l.snapshots) - 1
}

// RevertToSnapshot undoes every change made since snapshot id was taken and drops it (and any newer snapshots).
func (l *Ledger) RevertToSnapshot(id int) {
	l.Lock()
	defer l.Unlock()
	if id < 0 || id >= len(l.snapshots) {
		panic(fmt.Errorf("revert to snapshot %d: %w", id, ErrUnknownSnapshot))
	}
	mark := l.snapshots[id]
	for i := len(l.journal) - 1; i >= mark; i-- {
		c := l.journal[i]
		if c.existed {
			l.balances[c.asset][c.account] = c.prev
		} else {
			delete(l.balances[c.asset], c.account)
		}
	}
	l.journal = l.journal[:mark]
	l.snapshots = l.snapshots[:id]
}

// Release drops snapshot id (and any newer snapshots) keeping the changes. The journal is discarded once no
// snapshot remains open.
func (l *Ledger) Release(id int) {
	l.Lock()
	defer l.Unlock()
	if id < 0 || id >= len(l.snapshots) {
		return
	}
	l.snapshots = l.snapshots[:id]
	if len(l.snapshots) == 0 {
		l.journal = l.journal[:0]
	}
}
