package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TxnLab/farm/internal/config"
)

func genesisState(t *testing.T) *LocalState {
	t.Helper()
	g, err := config.Load("testdata/genesis.yaml")
	require.NoError(t, err)
	state, err := newState(g, nil)
	require.NoError(t, err)
	return state
}

func TestNewStateFromGenesis(t *testing.T) {
	state := genesisState(t)

	assert.Equal(t, "GAJ", state.RewardAsset)
	require.Len(t, state.Farm.Pools, 3)
	assert.Equal(t, uint64(3000), state.Farm.Config.TotalAllocWeight)
	assert.Equal(t, uint64(100), state.Farm.Pools[0].LastAccrualClock)
	assert.Equal(t, uint64(2000), state.Balances["LP"]["alice"])
	assert.Empty(t, state.Farm.Stakes)
}

func TestNewStateRejectsRewardFaucet(t *testing.T) {
	g, err := config.Load("testdata/genesis.yaml")
	require.NoError(t, err)
	g.Faucet["mallory"] = map[string]uint64{"GAJ": 1}
	_, err = newState(g, nil)
	assert.Error(t, err)
}

func TestStateSurvivesSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "farm", "state.json")
	_, err := LoadState(path)
	assert.ErrorIs(t, err, ErrNotInitialized)

	state := genesisState(t)
	f, ledger, err := state.Open(nil)
	require.NoError(t, err)
	for i, amount := range []uint64{20, 0, 40, 0} {
		require.NoError(t, f.Deposit(0, "alice", amount, 136+uint64(i)))
	}
	require.NoError(t, f.Withdraw(0, "alice", 10, 140))
	state.Capture(f, ledger)
	require.NoError(t, SaveState(path, state))

	loaded, err := LoadState(path)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)

	f2, ledger2, err := loaded.Open(nil)
	require.NoError(t, err)
	assert.Equal(t, f.Snapshot(), f2.Snapshot())
	assert.Equal(t, uint64(1950), ledger2.BalanceOf("LP", "alice"))

	// no temp files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpenRejectsCorruptState(t *testing.T) {
	state := genesisState(t)
	state.Farm.Pools[1].TotalStaked = 5
	_, _, err := state.Open(nil)
	assert.Error(t, err)
}
