package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadGenesis(t *testing.T) {
	g, err := Load("testdata/genesis.yaml")
	require.NoError(t, err)

	assert.Equal(t, "GAJ", g.RewardAsset)
	assert.Equal(t, uint64(1000), g.RewardPerTick)
	assert.Equal(t, uint64(100), g.StartClock)
	assert.Equal(t, "chef", g.Custody)
	assert.Equal(t, []GenesisPool{{"LP", 2000, 300}, {"LP2", 1000, 0}}, g.Pools)
	assert.Equal(t, uint64(500), g.Faucet["bob"]["LP2"])

	cfg := g.FarmConfig()
	assert.Equal(t, "dev", cfg.DevBeneficiary)
	assert.Equal(t, "fee", cfg.FeeBeneficiary)
	assert.Zero(t, cfg.TotalAllocWeight)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FARM_REWARD_PER_TICK", "40")
	t.Setenv("FARM_START_CLOCK", "7")
	t.Setenv("FARM_DEV", "ops")

	g, err := Load("testdata/genesis.yaml")
	require.NoError(t, err)
	assert.Equal(t, uint64(40), g.RewardPerTick)
	assert.Equal(t, uint64(7), g.StartClock)
	assert.Equal(t, "ops", g.DevBeneficiary)
	assert.Equal(t, "fee", g.FeeBeneficiary)

	t.Setenv("FARM_START_CLOCK", "soon")
	_, err = Load("testdata/genesis.yaml")
	assert.ErrorIs(t, err, ErrInvalidGenesis)
}

func TestDefaultsWithoutFile(t *testing.T) {
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidGenesis, "owner is required")

	t.Setenv("FARM_OWNER", "carol")
	g, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRewardAsset, g.RewardAsset)
	assert.Equal(t, DefaultCustody, g.Custody)
	assert.Equal(t, "carol", g.DevBeneficiary)
	assert.Equal(t, "carol", g.FeeBeneficiary)
}

func TestValidate(t *testing.T) {
	base := Genesis{RewardAsset: "GAJ", Owner: "owner", DevBeneficiary: "dev", FeeBeneficiary: "fee", Custody: "chef"}
	tests := []struct {
		name   string
		mutate func(g *Genesis)
	}{
		{"custody is owner", func(g *Genesis) { g.Custody = "owner" }},
		{"pool without asset", func(g *Genesis) { g.Pools = []GenesisPool{{AllocWeight: 1}} }},
		{"pool stakes reward", func(g *Genesis) { g.Pools = []GenesisPool{{Asset: "GAJ"}} }},
		{"fee too high", func(g *Genesis) { g.Pools = []GenesisPool{{Asset: "LP", DepositFeeBps: 10_001}} }},
	}
	require.NoError(t, base.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := base
			tt.mutate(&g)
			assert.ErrorIs(t, g.Validate(), ErrInvalidGenesis)
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("owner: a\nrewardsPerBlock: 5\n"))
	assert.ErrorIs(t, err, ErrInvalidGenesis)
}

func TestWriteRoundTrip(t *testing.T) {
	g, err := Load("testdata/genesis.yaml")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, g.Write(path))

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, g, again)
}
